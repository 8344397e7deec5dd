package models

import "time"

// Teacher is the tutor profile owned by a user with the TEACHER role.
type Teacher struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	Bio             string    `db:"bio" json:"bio"`
	Timezone        string    `db:"timezone" json:"timezone"`
	Subjects        string    `db:"subjects" json:"subjects"`
	HourlyRateCents int64     `db:"hourly_rate_cents" json:"hourly_rate_cents"`
	BookingSlug     string    `db:"booking_slug" json:"booking_slug"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail joins the profile with its account row.
type TeacherDetail struct {
	Teacher
	Email        string `db:"email" json:"email"`
	FullName     string `db:"full_name" json:"full_name"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

// TeacherFilter captures admin console list filters.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
