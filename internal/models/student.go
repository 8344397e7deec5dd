package models

import "time"

// Student is a learner managed by a single teacher tenant.
type Student struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	PlanTier  string    `db:"plan_tier" json:"plan_tier"`
	Notes     string    `db:"notes" json:"notes"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail adds class membership info to a student row.
type StudentDetail struct {
	Student
	ClassNames *string `db:"class_names" json:"class_names,omitempty"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	TeacherID string
	ClassID   string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
