package models

import "time"

// OnboardingStep is an ordered piece of onboarding content shown to a role.
type OnboardingStep struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	MediaURL  string    `db:"media_url" json:"media_url"`
	Audience  UserRole  `db:"audience" json:"audience"`
	Position  int       `db:"position" json:"position"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OnboardingProgress records which steps a user has completed.
type OnboardingProgress struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	StepID      string    `db:"step_id" json:"step_id"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}
