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

// ClassRepository manages persistence for classes and their rosters.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes of a teacher matching the filters.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := `FROM classes c`
	args := []interface{}{filter.TeacherID}
	conditions := []string{"c.teacher_id = $1"}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("c.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.name) LIKE $%d OR LOWER(c.subject) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":       "c.name",
		"subject":    "c.subject",
		"created_at": "c.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "c.created_at"
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

	query := fmt.Sprintf(`SELECT c.id, c.teacher_id, c.name, c.subject, c.color_label, c.meeting_link, c.active, c.created_at, c.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a class scoped to a teacher.
func (r *ClassRepository) FindByID(ctx context.Context, teacherID, id string) (*models.Class, error) {
	const query = `SELECT id, teacher_id, name, subject, color_label, meeting_link, active, created_at, updated_at
        FROM classes WHERE id = $1 AND teacher_id = $2`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id, teacherID); err != nil {
		return nil, err
	}
	return &class, nil
}

// Roster returns the students enrolled in a class.
func (r *ClassRepository) Roster(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.teacher_id, s.user_id, s.full_name, s.email, s.phone, s.plan_tier, s.notes, s.active, s.created_at, s.updated_at
        FROM class_members cm JOIN students s ON s.id = cm.student_id
        WHERE cm.class_id = $1 ORDER BY s.full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return students, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, teacher_id, name, subject, color_label, meeting_link, active, created_at, updated_at)
        VALUES (:id, :teacher_id, :name, :subject, :color_label, :meeting_link, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, subject = :subject, color_label = :color_label, meeting_link = :meeting_link,
        active = :active, updated_at = :updated_at WHERE id = :id AND teacher_id = :teacher_id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Archive marks a class inactive.
func (r *ClassRepository) Archive(ctx context.Context, teacherID, id string) error {
	const query = `UPDATE classes SET active = false, updated_at = $3 WHERE id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive class: %w", err)
	}
	return nil
}

// Enroll adds a student to a class roster; duplicates are ignored.
func (r *ClassRepository) Enroll(ctx context.Context, classID, studentID string) error {
	const query = `INSERT INTO class_members (id, class_id, student_id, created_at)
        VALUES ($1, $2, $3, $4) ON CONFLICT (class_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), classID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// Unenroll removes a student from a class roster.
func (r *ClassRepository) Unenroll(ctx context.Context, classID, studentID string) error {
	const query = `DELETE FROM class_members WHERE class_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, classID, studentID); err != nil {
		return fmt.Errorf("unenroll student: %w", err)
	}
	return nil
}
