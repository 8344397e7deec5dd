package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, teacherID, id string) (*models.Class, error)
	Roster(ctx context.Context, classID string) ([]models.Student, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Archive(ctx context.Context, teacherID, id string) error
	Enroll(ctx context.Context, classID, studentID string) error
	Unenroll(ctx context.Context, classID, studentID string) error
}

type classStudentRepository interface {
	FindByID(ctx context.Context, teacherID, id string) (*models.StudentDetail, error)
}

// CreateClassRequest captures fields for creating a class.
type CreateClassRequest struct {
	Name        string `json:"name" validate:"required"`
	Subject     string `json:"subject"`
	ColorLabel  string `json:"color_label"`
	MeetingLink string `json:"meeting_link" validate:"omitempty,url"`
}

// UpdateClassRequest modifies class fields.
type UpdateClassRequest struct {
	Name        string `json:"name" validate:"required"`
	Subject     string `json:"subject"`
	ColorLabel  string `json:"color_label"`
	MeetingLink string `json:"meeting_link" validate:"omitempty,url"`
}

// ClassService handles group management workflows.
type ClassService struct {
	repo      classRepository
	students  classStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService creates a new class service.
func NewClassService(repo classRepository, students classStudentRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns paginated classes of a teacher.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
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
	return classes, pagination, nil
}

// Get returns a class with its roster.
func (s *ClassService) Get(ctx context.Context, teacherID, id string) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	roster, err := s.repo.Roster(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	return &models.ClassDetail{Class: *class, Students: roster}, nil
}

// Create adds a new class for the teacher.
func (s *ClassService) Create(ctx context.Context, teacherID string, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{
		TeacherID:   teacherID,
		Name:        req.Name,
		Subject:     req.Subject,
		ColorLabel:  req.ColorLabel,
		MeetingLink: req.MeetingLink,
		Active:      true,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, teacherID, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	class.Name = req.Name
	class.Subject = req.Subject
	class.ColorLabel = req.ColorLabel
	class.MeetingLink = req.MeetingLink

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Archive soft-deletes a class; enrollments remain for history.
func (s *ClassService) Archive(ctx context.Context, teacherID, id string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.repo.Archive(ctx, teacherID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive class")
	}
	return nil
}

// Enroll adds a student to the class roster. Both rows must belong to the
// same teacher.
func (s *ClassService) Enroll(ctx context.Context, teacherID, classID, studentID string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.students.FindByID(ctx, teacherID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Enroll(ctx, classID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return nil
}

// Unenroll removes a student from the class roster.
func (s *ClassService) Unenroll(ctx context.Context, teacherID, classID, studentID string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.repo.Unenroll(ctx, classID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	return nil
}
