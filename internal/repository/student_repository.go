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

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students of a teacher matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students s`
	args := []interface{}{filter.TeacherID}
	conditions := []string{"s.teacher_id = $1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM class_members cm WHERE cm.student_id = s.id AND cm.class_id = $%d)", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"email":      "s.email",
		"created_at": "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
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

	query := fmt.Sprintf(`SELECT s.id, s.teacher_id, s.user_id, s.full_name, s.email, s.phone, s.plan_tier, s.notes, s.active, s.created_at, s.updated_at,
        (SELECT STRING_AGG(c.name, ', ') FROM class_members cm JOIN classes c ON c.id = cm.class_id WHERE cm.student_id = s.id) AS class_names
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID scoped to a teacher.
func (r *StudentRepository) FindByID(ctx context.Context, teacherID, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.teacher_id, s.user_id, s.full_name, s.email, s.phone, s.plan_tier, s.notes, s.active, s.created_at, s.updated_at,
        (SELECT STRING_AGG(c.name, ', ') FROM class_members cm JOIN classes c ON c.id = cm.class_id WHERE cm.student_id = s.id) AS class_names
        FROM students s WHERE s.id = $1 AND s.teacher_id = $2`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, teacherID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID resolves the student profile linked to a login account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, teacher_id, user_id, full_name, email, phone, plan_tier, notes, active, created_at, updated_at
        FROM students WHERE user_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByEmail checks if a teacher already has a student with the email.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, teacherID, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE teacher_id = $1 AND LOWER(email) = LOWER($2)"
	args := []interface{}{teacherID, email}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, teacher_id, user_id, full_name, email, phone, plan_tier, notes, active, created_at, updated_at)
        VALUES (:id, :teacher_id, :user_id, :full_name, :email, :phone, :plan_tier, :notes, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, email = :email, phone = :phone, plan_tier = :plan_tier,
        notes = :notes, active = :active, updated_at = :updated_at WHERE id = :id AND teacher_id = :teacher_id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Archive marks a student as inactive.
func (r *StudentRepository) Archive(ctx context.Context, teacherID, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $3 WHERE id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive student: %w", err)
	}
	return nil
}
