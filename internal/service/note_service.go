package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type noteRepository interface {
	ListByStudent(ctx context.Context, teacherID, studentID string) ([]models.Note, error)
	FindByID(ctx context.Context, teacherID, id string) (*models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, teacherID, id string) error
}

type noteStudentRepository interface {
	FindByID(ctx context.Context, teacherID, id string) (*models.StudentDetail, error)
}

// CreateNoteRequest adds a private note about a student.
type CreateNoteRequest struct {
	Body   string `json:"body" validate:"required"`
	Pinned bool   `json:"pinned"`
}

// UpdateNoteRequest modifies a note.
type UpdateNoteRequest struct {
	Body   string `json:"body" validate:"required"`
	Pinned bool   `json:"pinned"`
}

// NoteService manages teacher-private student notes.
type NoteService struct {
	repo      noteRepository
	students  noteStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(repo noteRepository, students noteStudentRepository, validate *validator.Validate, logger *zap.Logger) *NoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{repo: repo, students: students, validator: validate, logger: logger}
}

// ListByStudent returns the notes for one student, pinned first.
func (s *NoteService) ListByStudent(ctx context.Context, teacherID, studentID string) ([]models.Note, error) {
	if _, err := s.students.FindByID(ctx, teacherID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	notes, err := s.repo.ListByStudent(ctx, teacherID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, nil
}

// Create adds a note for a student.
func (s *NoteService) Create(ctx context.Context, teacherID, studentID string, req CreateNoteRequest) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	if _, err := s.students.FindByID(ctx, teacherID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	note := &models.Note{
		TeacherID: teacherID,
		StudentID: studentID,
		Body:      req.Body,
		Pinned:    req.Pinned,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note")
	}
	return note, nil
}

// Update modifies a note.
func (s *NoteService) Update(ctx context.Context, teacherID, id string, req UpdateNoteRequest) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}

	note, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}

	note.Body = req.Body
	note.Pinned = req.Pinned
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update note")
	}
	return note, nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	if err := s.repo.Delete(ctx, teacherID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}
	return nil
}
