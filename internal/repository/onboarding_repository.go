package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// OnboardingRepository manages onboarding steps and per-user progress.
type OnboardingRepository struct {
	db *sqlx.DB
}

// NewOnboardingRepository constructs an OnboardingRepository.
func NewOnboardingRepository(db *sqlx.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

// ListSteps returns active steps for an audience in display order. An empty
// audience returns every step, including inactive ones, for the admin console.
func (r *OnboardingRepository) ListSteps(ctx context.Context, audience models.UserRole) ([]models.OnboardingStep, error) {
	query := `SELECT id, title, body, media_url, audience, position, active, created_at, updated_at
        FROM onboarding_steps`
	var args []interface{}
	if audience != "" {
		query += ` WHERE audience = $1 AND active = true`
		args = append(args, audience)
	}
	query += ` ORDER BY position ASC, created_at ASC`

	var steps []models.OnboardingStep
	if err := r.db.SelectContext(ctx, &steps, query, args...); err != nil {
		return nil, fmt.Errorf("list onboarding steps: %w", err)
	}
	return steps, nil
}

// FindStep fetches one step.
func (r *OnboardingRepository) FindStep(ctx context.Context, id string) (*models.OnboardingStep, error) {
	const query = `SELECT id, title, body, media_url, audience, position, active, created_at, updated_at
        FROM onboarding_steps WHERE id = $1`
	var step models.OnboardingStep
	if err := r.db.GetContext(ctx, &step, query, id); err != nil {
		return nil, err
	}
	return &step, nil
}

// CreateStep inserts a new step.
func (r *OnboardingRepository) CreateStep(ctx context.Context, step *models.OnboardingStep) error {
	if step.ID == "" {
		step.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if step.CreatedAt.IsZero() {
		step.CreatedAt = now
	}
	step.UpdatedAt = now
	const query = `INSERT INTO onboarding_steps (id, title, body, media_url, audience, position, active, created_at, updated_at)
        VALUES (:id, :title, :body, :media_url, :audience, :position, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, step); err != nil {
		return fmt.Errorf("create onboarding step: %w", err)
	}
	return nil
}

// UpdateStep modifies an existing step.
func (r *OnboardingRepository) UpdateStep(ctx context.Context, step *models.OnboardingStep) error {
	step.UpdatedAt = time.Now().UTC()
	const query = `UPDATE onboarding_steps SET title = :title, body = :body, media_url = :media_url,
        audience = :audience, position = :position, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, step); err != nil {
		return fmt.Errorf("update onboarding step: %w", err)
	}
	return nil
}

// DeleteStep removes a step and its progress rows.
func (r *OnboardingRepository) DeleteStep(ctx context.Context, id string) error {
	const query = `DELETE FROM onboarding_steps WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete onboarding step: %w", err)
	}
	return nil
}

// ListProgress returns the step IDs a user has completed.
func (r *OnboardingRepository) ListProgress(ctx context.Context, userID string) ([]models.OnboardingProgress, error) {
	const query = `SELECT id, user_id, step_id, completed_at FROM onboarding_progress WHERE user_id = $1`
	var progress []models.OnboardingProgress
	if err := r.db.SelectContext(ctx, &progress, query, userID); err != nil {
		return nil, fmt.Errorf("list onboarding progress: %w", err)
	}
	return progress, nil
}

// MarkCompleted records a completed step; repeat completions are ignored.
func (r *OnboardingRepository) MarkCompleted(ctx context.Context, userID, stepID string) error {
	const query = `INSERT INTO onboarding_progress (id, user_id, step_id, completed_at)
        VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, step_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, stepID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark onboarding step completed: %w", err)
	}
	return nil
}
