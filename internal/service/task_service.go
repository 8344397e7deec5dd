package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	FindByID(ctx context.Context, teacherID, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, teacherID, id string) error
	Assign(ctx context.Context, assignment *models.TaskAssignment) error
	Unassign(ctx context.Context, taskID, studentID string) error
	ListAssignedToStudent(ctx context.Context, studentID string) ([]models.AssignedTask, error)
}

type taskStudentRepository interface {
	FindByID(ctx context.Context, teacherID, id string) (*models.StudentDetail, error)
}

// CreateTaskRequest captures fields for authoring a task.
type CreateTaskRequest struct {
	Title        string          `json:"title" validate:"required"`
	Instructions string          `json:"instructions"`
	TaskType     models.TaskType `json:"task_type" validate:"required,oneof=TEXT MULTIPLE_CHOICE FILE_UPLOAD"`
	ClassID      *string         `json:"class_id"`
	DueAt        *time.Time      `json:"due_at"`
	Spec         models.TaskSpec `json:"spec"`
}

// UpdateTaskRequest modifies a task, including its kanban status.
type UpdateTaskRequest struct {
	Title        string            `json:"title" validate:"required"`
	Instructions string            `json:"instructions"`
	Status       models.TaskStatus `json:"status" validate:"required,oneof=TODO IN_PROGRESS DONE"`
	ClassID      *string           `json:"class_id"`
	DueAt        *time.Time        `json:"due_at"`
	Spec         models.TaskSpec   `json:"spec"`
}

// AssignTaskRequest links a task to a student.
type AssignTaskRequest struct {
	StudentID string     `json:"student_id" validate:"required"`
	DueAt     *time.Time `json:"due_at"`
}

// TaskService handles assignment authoring and distribution.
type TaskService struct {
	repo      taskRepository
	students  taskStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(repo taskRepository, students taskStudentRepository, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns paginated tasks of a teacher.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return tasks, pagination, nil
}

// Get returns one task scoped to the teacher.
func (s *TaskService) Get(ctx context.Context, teacherID, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// Create authors a new task after validating the variant payload.
func (s *TaskService) Create(ctx context.Context, teacherID string, req CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if err := validateTaskSpec(req.TaskType, req.Spec); err != nil {
		return nil, err
	}

	task := &models.Task{
		TeacherID:    teacherID,
		Title:        req.Title,
		Instructions: req.Instructions,
		TaskType:     req.TaskType,
		Status:       models.TaskStatusTodo,
		ClassID:      req.ClassID,
		DueAt:        req.DueAt,
		Spec:         req.Spec,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// Update modifies a task. The task type is immutable once created.
func (s *TaskService) Update(ctx context.Context, teacherID, id string, req UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	if err := validateTaskSpec(task.TaskType, req.Spec); err != nil {
		return nil, err
	}

	task.Title = req.Title
	task.Instructions = req.Instructions
	task.Status = req.Status
	task.ClassID = req.ClassID
	task.DueAt = req.DueAt
	task.Spec = req.Spec

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task with its assignments and submissions.
func (s *TaskService) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if err := s.repo.Delete(ctx, teacherID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

// Assign puts the task on a student's feed.
func (s *TaskService) Assign(ctx context.Context, teacherID, taskID string, req AssignTaskRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.repo.FindByID(ctx, teacherID, taskID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if _, err := s.students.FindByID(ctx, teacherID, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	assignment := &models.TaskAssignment{TaskID: taskID, StudentID: req.StudentID, DueAt: req.DueAt}
	if err := s.repo.Assign(ctx, assignment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign task")
	}
	return nil
}

// Unassign removes the task from a student's feed.
func (s *TaskService) Unassign(ctx context.Context, teacherID, taskID, studentID string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, taskID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if err := s.repo.Unassign(ctx, taskID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign task")
	}
	return nil
}

// StudentFeed lists the tasks assigned to one student.
func (s *TaskService) StudentFeed(ctx context.Context, studentID string) ([]models.AssignedTask, error) {
	assigned, err := s.repo.ListAssignedToStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return assigned, nil
}

// validateTaskSpec enforces that exactly the payload matching the task type
// is present and well formed.
func validateTaskSpec(taskType models.TaskType, spec models.TaskSpec) error {
	switch taskType {
	case models.TaskTypeText:
		if spec.MultipleChoice != nil || spec.FileUpload != nil {
			return appErrors.Clone(appErrors.ErrValidation, "text tasks carry no extra payload")
		}
	case models.TaskTypeMultipleChoice:
		mc := spec.MultipleChoice
		if mc == nil {
			return appErrors.Clone(appErrors.ErrValidation, "multiple choice tasks require choices")
		}
		if len(mc.Choices) < 2 {
			return appErrors.Clone(appErrors.ErrValidation, "at least two choices are required")
		}
		if mc.CorrectIndex < 0 || mc.CorrectIndex >= len(mc.Choices) {
			return appErrors.Clone(appErrors.ErrValidation, "correct index is out of range")
		}
	case models.TaskTypeFileUpload:
		if spec.FileUpload == nil {
			return appErrors.Clone(appErrors.ErrValidation, "file upload tasks require upload constraints")
		}
	}
	return nil
}
