package models

import "time"

// Submission is a student's answer to an assigned task. At most one row per
// (task, student); resubmission replaces the content and clears the review.
type Submission struct {
	ID          string     `db:"id" json:"id"`
	TaskID      string     `db:"task_id" json:"task_id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	TextAnswer  *string    `db:"text_answer" json:"text_answer,omitempty"`
	ChoiceIndex *int       `db:"choice_index" json:"choice_index,omitempty"`
	FilePath    *string    `db:"file_path" json:"-"`
	FileName    *string    `db:"file_name" json:"file_name,omitempty"`
	Reviewed    bool       `db:"reviewed" json:"reviewed"`
	Score       *int       `db:"score" json:"score,omitempty"`
	Feedback    *string    `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// SubmissionDetail includes the student identity for teacher review lists.
type SubmissionDetail struct {
	Submission
	StudentName string `db:"student_name" json:"student_name"`
}
