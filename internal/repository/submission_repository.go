package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// SubmissionRepository manages persistence for task submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// ListByTask returns submissions for a task with the student names attached.
func (r *SubmissionRepository) ListByTask(ctx context.Context, taskID string) ([]models.SubmissionDetail, error) {
	const query = `SELECT sub.id, sub.task_id, sub.student_id, sub.text_answer, sub.choice_index, sub.file_path, sub.file_name,
        sub.reviewed, sub.score, sub.feedback, sub.submitted_at, sub.reviewed_at, s.full_name AS student_name
        FROM submissions sub JOIN students s ON s.id = sub.student_id
        WHERE sub.task_id = $1 ORDER BY sub.submitted_at DESC`
	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, query, taskID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// FindByID fetches a single submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, task_id, student_id, text_answer, choice_index, file_path, file_name,
        reviewed, score, feedback, submitted_at, reviewed_at
        FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByTaskAndStudent fetches the student's submission for a task.
func (r *SubmissionRepository) FindByTaskAndStudent(ctx context.Context, taskID, studentID string) (*models.Submission, error) {
	const query = `SELECT id, task_id, student_id, text_answer, choice_index, file_path, file_name,
        reviewed, score, feedback, submitted_at, reviewed_at
        FROM submissions WHERE task_id = $1 AND student_id = $2`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, taskID, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Upsert stores a submission; a resubmission replaces the previous content
// and clears the review fields.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, task_id, student_id, text_answer, choice_index, file_path, file_name,
        reviewed, score, feedback, submitted_at, reviewed_at)
        VALUES (:id, :task_id, :student_id, :text_answer, :choice_index, :file_path, :file_name,
        false, NULL, NULL, :submitted_at, NULL)
        ON CONFLICT (task_id, student_id) DO UPDATE SET
        text_answer = :text_answer, choice_index = :choice_index, file_path = :file_path, file_name = :file_name,
        reviewed = false, score = NULL, feedback = NULL, submitted_at = :submitted_at, reviewed_at = NULL`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// Review stores the teacher's score and feedback.
func (r *SubmissionRepository) Review(ctx context.Context, id string, score *int, feedback string, reviewedAt time.Time) error {
	const query = `UPDATE submissions SET reviewed = true, score = $2, feedback = $3, reviewed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, score, feedback, reviewedAt); err != nil {
		return fmt.Errorf("review submission: %w", err)
	}
	return nil
}
