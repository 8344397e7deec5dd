package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type mockScheduleRepo struct {
	rules    []models.WeeklyAvailabilityRule
	settings *models.ScheduleSettings
	removed  int64
}

func (m *mockScheduleRepo) GetConfig(ctx context.Context, teacherID string) (*models.ScheduleConfig, error) {
	duration := 60
	enabled := true
	if m.settings != nil {
		duration = m.settings.SlotDurationMinutes
		enabled = m.settings.PublicBookingEnabled
	}
	return &models.ScheduleConfig{
		TeacherID:            teacherID,
		Rules:                m.rules,
		SlotDurationMinutes:  duration,
		PublicBookingEnabled: enabled,
	}, nil
}

func (m *mockScheduleRepo) ReplaceRules(ctx context.Context, teacherID string, rules []models.WeeklyAvailabilityRule) error {
	m.rules = rules
	return nil
}

func (m *mockScheduleRepo) AddRule(ctx context.Context, rule *models.WeeklyAvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = "rule-1"
	}
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *mockScheduleRepo) RemoveRule(ctx context.Context, teacherID string, dayOfWeek int, startTime, endTime string) (int64, error) {
	return m.removed, nil
}

func (m *mockScheduleRepo) UpsertSettings(ctx context.Context, settings *models.ScheduleSettings) error {
	m.settings = settings
	return nil
}

func TestScheduleAddRule(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewScheduleService(repo, nil, nil)

	rule, err := svc.AddRule(context.Background(), "teacher-1", AvailabilityRuleRequest{
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", rule.TeacherID)
	assert.Len(t, repo.rules, 1)
}

func TestScheduleAddRuleInvertedWindow(t *testing.T) {
	svc := NewScheduleService(&mockScheduleRepo{}, nil, nil)

	_, err := svc.AddRule(context.Background(), "teacher-1", AvailabilityRuleRequest{
		DayOfWeek: 1,
		StartTime: "12:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTimeRange.Code, apiErr.Code)
}

func TestScheduleAddRuleMalformedClock(t *testing.T) {
	svc := NewScheduleService(&mockScheduleRepo{}, nil, nil)

	for _, raw := range []string{"9:00", "25:00", "09:60", "0900", "ab:cd"} {
		_, err := svc.AddRule(context.Background(), "teacher-1", AvailabilityRuleRequest{
			DayOfWeek: 1,
			StartTime: raw,
			EndTime:   "23:00",
		})
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestScheduleAddRuleBadDay(t *testing.T) {
	svc := NewScheduleService(&mockScheduleRepo{}, nil, nil)

	_, err := svc.AddRule(context.Background(), "teacher-1", AvailabilityRuleRequest{
		DayOfWeek: 7,
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.Error(t, err)
}

func TestScheduleReplaceRules(t *testing.T) {
	repo := &mockScheduleRepo{rules: []models.WeeklyAvailabilityRule{{DayOfWeek: 0, StartTime: "08:00", EndTime: "10:00"}}}
	svc := NewScheduleService(repo, nil, nil)

	config, err := svc.ReplaceRules(context.Background(), "teacher-1", ReplaceRulesRequest{
		Rules: []AvailabilityRuleRequest{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: 3, StartTime: "14:00", EndTime: "18:00"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, config.Rules, 2)
	assert.Equal(t, 3, config.Rules[1].DayOfWeek)
}

func TestScheduleRemoveRuleNotFound(t *testing.T) {
	repo := &mockScheduleRepo{removed: 0}
	svc := NewScheduleService(repo, nil, nil)

	err := svc.RemoveRule(context.Background(), "teacher-1", AvailabilityRuleRequest{
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, apiErr.Code)
}

func TestScheduleUpdateSettings(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewScheduleService(repo, nil, nil)

	settings, err := svc.UpdateSettings(context.Background(), "teacher-1", UpdateScheduleSettingsRequest{
		SlotDurationMinutes:  45,
		PublicBookingEnabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 45, settings.SlotDurationMinutes)
	require.NotNil(t, repo.settings)
	assert.True(t, repo.settings.PublicBookingEnabled)
}

func TestScheduleUpdateSettingsRejectsZeroDuration(t *testing.T) {
	svc := NewScheduleService(&mockScheduleRepo{}, nil, nil)

	_, err := svc.UpdateSettings(context.Background(), "teacher-1", UpdateScheduleSettingsRequest{
		SlotDurationMinutes: 0,
	})
	require.Error(t, err)
}
