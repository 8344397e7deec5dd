package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/booking"
	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type scheduleRepository interface {
	GetConfig(ctx context.Context, teacherID string) (*models.ScheduleConfig, error)
	ReplaceRules(ctx context.Context, teacherID string, rules []models.WeeklyAvailabilityRule) error
	AddRule(ctx context.Context, rule *models.WeeklyAvailabilityRule) error
	RemoveRule(ctx context.Context, teacherID string, dayOfWeek int, startTime, endTime string) (int64, error)
	UpsertSettings(ctx context.Context, settings *models.ScheduleSettings) error
}

// AvailabilityRuleRequest is one weekly open window.
type AvailabilityRuleRequest struct {
	DayOfWeek    int      `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime    string   `json:"start_time" validate:"required"`
	EndTime      string   `json:"end_time" validate:"required"`
	AllowedTiers []string `json:"allowed_tiers"`
}

// ReplaceRulesRequest swaps the whole weekly grid at once.
type ReplaceRulesRequest struct {
	Rules []AvailabilityRuleRequest `json:"rules" validate:"required,dive"`
}

// UpdateScheduleSettingsRequest tunes the slot grid and public page flag.
type UpdateScheduleSettingsRequest struct {
	SlotDurationMinutes  int  `json:"slot_duration_minutes" validate:"gt=0"`
	PublicBookingEnabled bool `json:"public_booking_enabled"`
}

// ScheduleService manages a teacher's weekly availability.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// Get returns the full bookable schedule for a teacher.
func (s *ScheduleService) Get(ctx context.Context, teacherID string) (*models.ScheduleConfig, error) {
	config, err := s.repo.GetConfig(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return config, nil
}

// ReplaceRules validates and swaps the whole weekly rule set.
func (s *ScheduleService) ReplaceRules(ctx context.Context, teacherID string, req ReplaceRulesRequest) (*models.ScheduleConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rules payload")
	}

	rules := make([]models.WeeklyAvailabilityRule, 0, len(req.Rules))
	for _, rule := range req.Rules {
		if err := validateWindow(rule.StartTime, rule.EndTime); err != nil {
			return nil, err
		}
		rules = append(rules, models.WeeklyAvailabilityRule{
			TeacherID:    teacherID,
			DayOfWeek:    rule.DayOfWeek,
			StartTime:    rule.StartTime,
			EndTime:      rule.EndTime,
			AllowedTiers: rule.AllowedTiers,
		})
	}

	if err := s.repo.ReplaceRules(ctx, teacherID, rules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace rules")
	}
	return s.Get(ctx, teacherID)
}

// AddRule opens one weekly window.
func (s *ScheduleService) AddRule(ctx context.Context, teacherID string, req AvailabilityRuleRequest) (*models.WeeklyAvailabilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	if err := validateWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	rule := &models.WeeklyAvailabilityRule{
		TeacherID:    teacherID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		AllowedTiers: req.AllowedTiers,
	}
	if err := s.repo.AddRule(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add rule")
	}
	return rule, nil
}

// RemoveRule closes one weekly window.
func (s *ScheduleService) RemoveRule(ctx context.Context, teacherID string, req AvailabilityRuleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	removed, err := s.repo.RemoveRule(ctx, teacherID, req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove rule")
	}
	if removed == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "rule not found")
	}
	return nil
}

// UpdateSettings persists the slot duration and public booking flag.
func (s *ScheduleService) UpdateSettings(ctx context.Context, teacherID string, req UpdateScheduleSettingsRequest) (*models.ScheduleSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	settings := &models.ScheduleSettings{
		TeacherID:            teacherID,
		SlotDurationMinutes:  req.SlotDurationMinutes,
		PublicBookingEnabled: req.PublicBookingEnabled,
	}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule settings")
	}
	return settings, nil
}

func validateWindow(start, end string) error {
	startMin, err := booking.ParseClock(start)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	endMin, err := booking.ParseClock(end)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if endMin <= startMin {
		return appErrors.Clone(appErrors.ErrInvalidTimeRange, "end time must be after start time")
	}
	return nil
}
