package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// ScheduleRepository manages the weekly availability rules and per-teacher
// schedule settings backing the public booking page.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetConfig assembles the full bookable schedule for a teacher. Teachers
// without a settings row get defaults (60-minute slots, booking disabled).
func (r *ScheduleRepository) GetConfig(ctx context.Context, teacherID string) (*models.ScheduleConfig, error) {
	settings := models.ScheduleSettings{TeacherID: teacherID, SlotDurationMinutes: 60}
	const settingsQuery = `SELECT teacher_id, slot_duration_minutes, public_booking_enabled, updated_at
        FROM schedule_settings WHERE teacher_id = $1`
	if err := r.db.GetContext(ctx, &settings, settingsQuery, teacherID); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("load schedule settings: %w", err)
	}

	const rulesQuery = `SELECT id, teacher_id, day_of_week, start_time, end_time, allowed_tiers, created_at
        FROM availability_rules WHERE teacher_id = $1 ORDER BY day_of_week ASC, start_time ASC`
	var rules []models.WeeklyAvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, rulesQuery, teacherID); err != nil {
		return nil, fmt.Errorf("load availability rules: %w", err)
	}
	for i := range rules {
		rules[i].AllowedTiers = decodeTiers(rules[i].TiersRaw)
	}

	return &models.ScheduleConfig{
		TeacherID:            teacherID,
		Rules:                rules,
		SlotDurationMinutes:  settings.SlotDurationMinutes,
		PublicBookingEnabled: settings.PublicBookingEnabled,
	}, nil
}

// ReplaceRules swaps the entire rule set for a teacher in one transaction.
func (r *ScheduleRepository) ReplaceRules(ctx context.Context, teacherID string, rules []models.WeeklyAvailabilityRule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace rules: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_rules WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear availability rules: %w", err)
	}

	const insert = `INSERT INTO availability_rules (id, teacher_id, day_of_week, start_time, end_time, allowed_tiers, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := time.Now().UTC()
	for _, rule := range rules {
		id := rule.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insert, id, teacherID, rule.DayOfWeek, rule.StartTime, rule.EndTime, encodeTiers(rule.AllowedTiers), now); err != nil {
			return fmt.Errorf("insert availability rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace rules: %w", err)
	}
	return nil
}

// AddRule inserts a single availability rule (one toggled cell).
func (r *ScheduleRepository) AddRule(ctx context.Context, rule *models.WeeklyAvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO availability_rules (id, teacher_id, day_of_week, start_time, end_time, allowed_tiers, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, rule.ID, rule.TeacherID, rule.DayOfWeek, rule.StartTime, rule.EndTime, encodeTiers(rule.AllowedTiers), rule.CreatedAt); err != nil {
		return fmt.Errorf("add availability rule: %w", err)
	}
	return nil
}

// RemoveRule deletes the rule matching an exact day/window cell. Returns the
// number of removed rows so callers can distinguish a no-op toggle.
func (r *ScheduleRepository) RemoveRule(ctx context.Context, teacherID string, dayOfWeek int, startTime, endTime string) (int64, error) {
	const query = `DELETE FROM availability_rules WHERE teacher_id = $1 AND day_of_week = $2 AND start_time = $3 AND end_time = $4`
	res, err := r.db.ExecContext(ctx, query, teacherID, dayOfWeek, startTime, endTime)
	if err != nil {
		return 0, fmt.Errorf("remove availability rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove availability rule: %w", err)
	}
	return affected, nil
}

// UpsertSettings writes the slot duration and public booking flag.
func (r *ScheduleRepository) UpsertSettings(ctx context.Context, settings *models.ScheduleSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO schedule_settings (teacher_id, slot_duration_minutes, public_booking_enabled, updated_at)
        VALUES (:teacher_id, :slot_duration_minutes, :public_booking_enabled, :updated_at)
        ON CONFLICT (teacher_id) DO UPDATE SET slot_duration_minutes = :slot_duration_minutes,
        public_booking_enabled = :public_booking_enabled, updated_at = :updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert schedule settings: %w", err)
	}
	return nil
}

func encodeTiers(tiers []string) *string {
	if len(tiers) == 0 {
		return nil
	}
	joined := strings.Join(tiers, ",")
	return &joined
}

func decodeTiers(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	return strings.Split(*raw, ",")
}
