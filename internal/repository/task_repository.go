package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// TaskRepository manages persistence for tasks and their assignments.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns tasks of a teacher matching the filters.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	base := `FROM tasks t`
	args := []interface{}{filter.TeacherID}
	conditions := []string{"t.teacher_id = $1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("t.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.TaskType != "" {
		conditions = append(conditions, fmt.Sprintf("t.task_type = $%d", len(args)+1))
		args = append(args, filter.TaskType)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(t.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"title":      "t.title",
		"due_at":     "t.due_at",
		"created_at": "t.created_at",
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

	query := fmt.Sprintf(`SELECT t.id, t.teacher_id, t.title, t.instructions, t.task_type, t.status, t.class_id, t.due_at, t.spec, t.created_at, t.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		if err := decodeSpec(&tasks[i]); err != nil {
			return nil, 0, err
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	return tasks, total, nil
}

// FindByID fetches a task scoped to a teacher.
func (r *TaskRepository) FindByID(ctx context.Context, teacherID, id string) (*models.Task, error) {
	const query = `SELECT id, teacher_id, title, instructions, task_type, status, class_id, due_at, spec, created_at, updated_at
        FROM tasks WHERE id = $1 AND teacher_id = $2`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id, teacherID); err != nil {
		return nil, err
	}
	if err := decodeSpec(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if err := encodeSpec(task); err != nil {
		return err
	}
	const query = `INSERT INTO tasks (id, teacher_id, title, instructions, task_type, status, class_id, due_at, spec, created_at, updated_at)
        VALUES (:id, :teacher_id, :title, :instructions, :task_type, :status, :class_id, :due_at, :spec, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update modifies an existing task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	if err := encodeSpec(task); err != nil {
		return err
	}
	const query = `UPDATE tasks SET title = :title, instructions = :instructions, task_type = :task_type, status = :status,
        class_id = :class_id, due_at = :due_at, spec = :spec, updated_at = :updated_at
        WHERE id = :id AND teacher_id = :teacher_id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task and its assignments.
func (r *TaskRepository) Delete(ctx context.Context, teacherID, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Assign links a task to a student; duplicates are ignored.
func (r *TaskRepository) Assign(ctx context.Context, assignment *models.TaskAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO task_assignments (id, task_id, student_id, due_at, created_at)
        VALUES (:id, :task_id, :student_id, :due_at, :created_at)
        ON CONFLICT (task_id, student_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	return nil
}

// Unassign removes a student from a task.
func (r *TaskRepository) Unassign(ctx context.Context, taskID, studentID string) error {
	const query = `DELETE FROM task_assignments WHERE task_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, taskID, studentID); err != nil {
		return fmt.Errorf("unassign task: %w", err)
	}
	return nil
}

// ListAssignedToStudent returns the student-facing assignment feed.
func (r *TaskRepository) ListAssignedToStudent(ctx context.Context, studentID string) ([]models.AssignedTask, error) {
	const query = `SELECT t.id, t.teacher_id, t.title, t.instructions, t.task_type, t.status, t.class_id, t.due_at, t.spec, t.created_at, t.updated_at,
        a.id AS assignment_id, a.due_at AS assigned_due,
        EXISTS (SELECT 1 FROM submissions s WHERE s.task_id = t.id AND s.student_id = a.student_id) AS submitted
        FROM task_assignments a JOIN tasks t ON t.id = a.task_id
        WHERE a.student_id = $1 ORDER BY COALESCE(a.due_at, t.due_at) ASC NULLS LAST, t.created_at DESC`
	var assigned []models.AssignedTask
	if err := r.db.SelectContext(ctx, &assigned, query, studentID); err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	for i := range assigned {
		if err := decodeSpec(&assigned[i].Task); err != nil {
			return nil, err
		}
	}
	return assigned, nil
}

// IsAssigned reports whether a student has the task on their feed.
func (r *TaskRepository) IsAssigned(ctx context.Context, taskID, studentID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM task_assignments WHERE task_id = $1 AND student_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, taskID, studentID); err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return count > 0, nil
}

func encodeSpec(task *models.Task) error {
	raw, err := json.Marshal(task.Spec)
	if err != nil {
		return fmt.Errorf("encode task spec: %w", err)
	}
	task.SpecRaw = raw
	return nil
}

func decodeSpec(task *models.Task) error {
	if len(task.SpecRaw) == 0 {
		return nil
	}
	if err := json.Unmarshal(task.SpecRaw, &task.Spec); err != nil {
		return fmt.Errorf("decode task spec: %w", err)
	}
	return nil
}
