package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type onboardingRepository interface {
	ListSteps(ctx context.Context, audience models.UserRole) ([]models.OnboardingStep, error)
	FindStep(ctx context.Context, id string) (*models.OnboardingStep, error)
	CreateStep(ctx context.Context, step *models.OnboardingStep) error
	UpdateStep(ctx context.Context, step *models.OnboardingStep) error
	DeleteStep(ctx context.Context, id string) error
	ListProgress(ctx context.Context, userID string) ([]models.OnboardingProgress, error)
	MarkCompleted(ctx context.Context, userID, stepID string) error
}

// OnboardingStepRequest authors or edits a step.
type OnboardingStepRequest struct {
	Title    string          `json:"title" validate:"required"`
	Body     string          `json:"body" validate:"required"`
	MediaURL string          `json:"media_url" validate:"omitempty,url"`
	Audience models.UserRole `json:"audience" validate:"required,oneof=TEACHER STUDENT"`
	Position int             `json:"position" validate:"gte=0"`
	Active   bool            `json:"active"`
}

// OnboardingChecklist is the user-facing view: steps plus completion.
type OnboardingChecklist struct {
	Steps     []models.OnboardingStep `json:"steps"`
	Completed []string                `json:"completed_step_ids"`
}

// OnboardingService manages guided onboarding content and progress.
type OnboardingService struct {
	repo      onboardingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOnboardingService creates a new onboarding service.
func NewOnboardingService(repo onboardingRepository, validate *validator.Validate, logger *zap.Logger) *OnboardingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingService{repo: repo, validator: validate, logger: logger}
}

// Checklist returns the active steps for a role with the user's progress.
func (s *OnboardingService) Checklist(ctx context.Context, userID string, audience models.UserRole) (*OnboardingChecklist, error) {
	steps, err := s.repo.ListSteps(ctx, audience)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list onboarding steps")
	}
	progress, err := s.repo.ListProgress(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load onboarding progress")
	}

	completed := make([]string, 0, len(progress))
	for _, p := range progress {
		completed = append(completed, p.StepID)
	}
	return &OnboardingChecklist{Steps: steps, Completed: completed}, nil
}

// Complete marks a step done for the user.
func (s *OnboardingService) Complete(ctx context.Context, userID, stepID string) error {
	if _, err := s.repo.FindStep(ctx, stepID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "onboarding step not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load onboarding step")
	}
	if err := s.repo.MarkCompleted(ctx, userID, stepID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record progress")
	}
	return nil
}

// ListSteps returns every step, including inactive ones, for admins.
func (s *OnboardingService) ListSteps(ctx context.Context) ([]models.OnboardingStep, error) {
	steps, err := s.repo.ListSteps(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list onboarding steps")
	}
	return steps, nil
}

// CreateStep authors a new step.
func (s *OnboardingService) CreateStep(ctx context.Context, req OnboardingStepRequest) (*models.OnboardingStep, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid step payload")
	}

	step := &models.OnboardingStep{
		Title:    req.Title,
		Body:     req.Body,
		MediaURL: req.MediaURL,
		Audience: req.Audience,
		Position: req.Position,
		Active:   req.Active,
	}
	if err := s.repo.CreateStep(ctx, step); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create onboarding step")
	}
	return step, nil
}

// UpdateStep modifies a step.
func (s *OnboardingService) UpdateStep(ctx context.Context, id string, req OnboardingStepRequest) (*models.OnboardingStep, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid step payload")
	}

	step, err := s.repo.FindStep(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "onboarding step not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load onboarding step")
	}

	step.Title = req.Title
	step.Body = req.Body
	step.MediaURL = req.MediaURL
	step.Audience = req.Audience
	step.Position = req.Position
	step.Active = req.Active

	if err := s.repo.UpdateStep(ctx, step); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update onboarding step")
	}
	return step, nil
}

// DeleteStep removes a step with its recorded progress.
func (s *OnboardingService) DeleteStep(ctx context.Context, id string) error {
	if _, err := s.repo.FindStep(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "onboarding step not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load onboarding step")
	}
	if err := s.repo.DeleteStep(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete onboarding step")
	}
	return nil
}
