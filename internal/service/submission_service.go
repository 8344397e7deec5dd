package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type submissionRepository interface {
	ListByTask(ctx context.Context, taskID string) ([]models.SubmissionDetail, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByTaskAndStudent(ctx context.Context, taskID, studentID string) (*models.Submission, error)
	Upsert(ctx context.Context, submission *models.Submission) error
	Review(ctx context.Context, id string, score *int, feedback string, reviewedAt time.Time) error
}

type submissionTaskRepository interface {
	FindByID(ctx context.Context, teacherID, id string) (*models.Task, error)
	IsAssigned(ctx context.Context, taskID, studentID string) (bool, error)
}

type submissionStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// SubmitTextRequest answers a TEXT task.
type SubmitTextRequest struct {
	TextAnswer string `json:"text_answer" validate:"required"`
}

// SubmitChoiceRequest answers a MULTIPLE_CHOICE task.
type SubmitChoiceRequest struct {
	ChoiceIndex int `json:"choice_index" validate:"gte=0"`
}

// ReviewSubmissionRequest records the teacher's verdict.
type ReviewSubmissionRequest struct {
	Score    *int   `json:"score" validate:"omitempty,gte=0,lte=100"`
	Feedback string `json:"feedback"`
}

// SubmissionService handles student answers and teacher review.
type SubmissionService struct {
	repo      submissionRepository
	tasks     submissionTaskRepository
	storage   submissionStorage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService creates a new submission service.
func NewSubmissionService(repo submissionRepository, tasks submissionTaskRepository, store submissionStorage, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, tasks: tasks, storage: store, validator: validate, logger: logger}
}

// ListByTask returns all submissions for a teacher's task.
func (s *SubmissionService) ListByTask(ctx context.Context, teacherID, taskID string) ([]models.SubmissionDetail, error) {
	if _, err := s.tasks.FindByID(ctx, teacherID, taskID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	submissions, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// SubmitText stores a text answer for an assigned TEXT task.
func (s *SubmissionService) SubmitText(ctx context.Context, teacherID, taskID, studentID string, req SubmitTextRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	task, err := s.loadAssignedTask(ctx, teacherID, taskID, studentID)
	if err != nil {
		return nil, err
	}
	if task.TaskType != models.TaskTypeText {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task does not accept text answers")
	}

	submission := &models.Submission{TaskID: taskID, StudentID: studentID, TextAnswer: &req.TextAnswer}
	if err := s.repo.Upsert(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	return submission, nil
}

// SubmitChoice stores a choice answer for an assigned MULTIPLE_CHOICE task.
func (s *SubmissionService) SubmitChoice(ctx context.Context, teacherID, taskID, studentID string, req SubmitChoiceRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	task, err := s.loadAssignedTask(ctx, teacherID, taskID, studentID)
	if err != nil {
		return nil, err
	}
	if task.TaskType != models.TaskTypeMultipleChoice || task.Spec.MultipleChoice == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task does not accept choice answers")
	}
	if req.ChoiceIndex >= len(task.Spec.MultipleChoice.Choices) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "choice index is out of range")
	}

	submission := &models.Submission{TaskID: taskID, StudentID: studentID, ChoiceIndex: &req.ChoiceIndex}
	if err := s.repo.Upsert(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	return submission, nil
}

// SubmitFile stores an uploaded file for an assigned FILE_UPLOAD task.
func (s *SubmissionService) SubmitFile(ctx context.Context, teacherID, taskID, studentID, fileName string, size int64, r io.Reader) (*models.Submission, error) {
	task, err := s.loadAssignedTask(ctx, teacherID, taskID, studentID)
	if err != nil {
		return nil, err
	}
	if task.TaskType != models.TaskTypeFileUpload || task.Spec.FileUpload == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task does not accept file uploads")
	}

	spec := task.Spec.FileUpload
	if spec.MaxSizeBytes > 0 && size > spec.MaxSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if len(spec.AllowedExtensions) > 0 && !containsFold(spec.AllowedExtensions, ext) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file extension is not allowed")
	}

	relPath := fmt.Sprintf("submissions/%s/%s-%s", taskID, uuid.NewString(), filepath.Base(fileName))
	stored, err := s.storage.SaveStream(relPath, r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store uploaded file")
	}

	submission := &models.Submission{TaskID: taskID, StudentID: studentID, FilePath: &stored, FileName: &fileName}
	if err := s.repo.Upsert(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	return submission, nil
}

// Review records score and feedback on a submission of the teacher's task.
func (s *SubmissionService) Review(ctx context.Context, teacherID, submissionID string, req ReviewSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	submission, err := s.repo.FindByID(ctx, submissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if _, err := s.tasks.FindByID(ctx, teacherID, submission.TaskID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another teacher")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	reviewedAt := time.Now().UTC()
	if err := s.repo.Review(ctx, submissionID, req.Score, req.Feedback, reviewedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review submission")
	}

	submission.Reviewed = true
	submission.Score = req.Score
	if req.Feedback != "" {
		submission.Feedback = &req.Feedback
	}
	submission.ReviewedAt = &reviewedAt
	return submission, nil
}

func (s *SubmissionService) loadAssignedTask(ctx context.Context, teacherID, taskID, studentID string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, teacherID, taskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	assigned, err := s.tasks.IsAssigned(ctx, taskID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "task is not assigned to this student")
	}
	return task, nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimPrefix(v, "."), target) {
			return true
		}
	}
	return false
}
