package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// EventRepository manages persistence for calendar events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events of a teacher inside an optional window.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	base := `FROM events e`
	args := []interface{}{filter.TeacherID}
	conditions := []string{"e.teacher_id = $1"}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("e.ends_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("e.starts_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("e.event_type = $%d", len(args)+1))
		args = append(args, filter.EventType)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 200
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.teacher_id, e.title, e.description, e.event_type, e.starts_at, e.ends_at,
        e.class_id, e.student_id, e.location, e.meeting_url, e.external_ref, e.created_at, e.updated_at
        %s ORDER BY e.starts_at ASC LIMIT %d OFFSET %d`, base, size, offset)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// ListBusyIntervals returns the start/end instants of every event for a
// teacher. The slot generator filters them by calendar date itself.
func (r *EventRepository) ListBusyIntervals(ctx context.Context, teacherID string) ([]models.BusyInterval, error) {
	const query = `SELECT starts_at AS start, ends_at AS "end" FROM events WHERE teacher_id = $1`
	var intervals []models.BusyInterval
	if err := r.db.SelectContext(ctx, &intervals, query, teacherID); err != nil {
		return nil, fmt.Errorf("list busy intervals: %w", err)
	}
	return intervals, nil
}

// FindByID fetches an event scoped to a teacher.
func (r *EventRepository) FindByID(ctx context.Context, teacherID, id string) (*models.Event, error) {
	const query = `SELECT id, teacher_id, title, description, event_type, starts_at, ends_at, class_id, student_id,
        location, meeting_url, external_ref, created_at, updated_at
        FROM events WHERE id = $1 AND teacher_id = $2`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id, teacherID); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, teacher_id, title, description, event_type, starts_at, ends_at, class_id, student_id,
        location, meeting_url, external_ref, created_at, updated_at)
        VALUES (:id, :teacher_id, :title, :description, :event_type, :starts_at, :ends_at, :class_id, :student_id,
        :location, :meeting_url, :external_ref, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, event_type = :event_type,
        starts_at = :starts_at, ends_at = :ends_at, class_id = :class_id, student_id = :student_id,
        location = :location, meeting_url = :meeting_url, external_ref = :external_ref, updated_at = :updated_at
        WHERE id = :id AND teacher_id = :teacher_id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, teacherID, id string) error {
	const query = `DELETE FROM events WHERE id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
