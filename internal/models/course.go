package models

import "time"

// Course is a platform-wide catalog entry managed by admins.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Subject     string    `db:"subject" json:"subject"`
	Level       string    `db:"level" json:"level"`
	CoverURL    string    `db:"cover_url" json:"cover_url"`
	Published   bool      `db:"published" json:"published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows catalog listings.
type CourseFilter struct {
	Subject   string
	Level     string
	Published *bool
	Search    string
	Page      int
	PageSize  int
}
