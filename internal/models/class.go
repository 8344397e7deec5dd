package models

import "time"

// Class groups students under a teacher with shared meetings and tasks.
type Class struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Name        string    `db:"name" json:"name"`
	Subject     string    `db:"subject" json:"subject"`
	ColorLabel  string    `db:"color_label" json:"color_label"`
	MeetingLink string    `db:"meeting_link" json:"meeting_link"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail carries the roster alongside the class row.
type ClassDetail struct {
	Class
	Students []Student `json:"students"`
}

// ClassFilter narrows class listings.
type ClassFilter struct {
	TeacherID string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
