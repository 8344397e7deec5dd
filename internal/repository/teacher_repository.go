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

// TeacherRepository manages persistence for tutor profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teacher profiles matching the admin console filters.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	base := `FROM teachers t JOIN users u ON u.id = t.user_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("t.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(t.display_name) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"display_name": "t.display_name",
		"email":        "u.email",
		"created_at":   "t.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.user_id, t.display_name, t.bio, t.timezone, t.subjects, t.hourly_rate_cents,
        t.booking_slug, t.active, t.created_at, t.updated_at, u.email, u.full_name,
        (SELECT COUNT(*) FROM students s WHERE s.teacher_id = t.id AND s.active) AS student_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher profile with account details.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	const query = `SELECT t.id, t.user_id, t.display_name, t.bio, t.timezone, t.subjects, t.hourly_rate_cents,
        t.booking_slug, t.active, t.created_at, t.updated_at, u.email, u.full_name,
        (SELECT COUNT(*) FROM students s WHERE s.teacher_id = t.id AND s.active) AS student_count
        FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.id = $1`
	var detail models.TeacherDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID resolves the teacher profile belonging to an account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, display_name, bio, timezone, subjects, hourly_rate_cents, booking_slug, active, created_at, updated_at
        FROM teachers WHERE user_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindBySlug resolves a teacher by their public booking page slug.
func (r *TeacherRepository) FindBySlug(ctx context.Context, slug string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, display_name, bio, timezone, subjects, hourly_rate_cents, booking_slug, active, created_at, updated_at
        FROM teachers WHERE booking_slug = $1 AND active`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, slug); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsBySlug checks slug uniqueness, optionally excluding a profile.
func (r *TeacherRepository) ExistsBySlug(ctx context.Context, slug string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM teachers WHERE booking_slug = $1"
	args := []interface{}{slug}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check slug: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, user_id, display_name, bio, timezone, subjects, hourly_rate_cents, booking_slug, active, created_at, updated_at)
        VALUES (:id, :user_id, :display_name, :bio, :timezone, :subjects, :hourly_rate_cents, :booking_slug, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher profile.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET display_name = :display_name, bio = :bio, timezone = :timezone, subjects = :subjects,
        hourly_rate_cents = :hourly_rate_cents, booking_slug = :booking_slug, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Deactivate marks a teacher profile inactive.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE teachers SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	return nil
}
