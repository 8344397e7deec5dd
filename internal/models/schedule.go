package models

import "time"

// WeeklyAvailabilityRule is a recurring weekly open window for booking.
// DayOfWeek follows time.Weekday numbering: 0 = Sunday .. 6 = Saturday.
// Times are zone-naive "HH:MM" strings in the teacher's local zone.
type WeeklyAvailabilityRule struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"-"`
	DayOfWeek    int       `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	AllowedTiers []string  `db:"-" json:"allowed_tiers,omitempty"`
	TiersRaw     *string   `db:"allowed_tiers" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ScheduleConfig is a teacher's bookable schedule: the weekly rules plus the
// slot grid parameters. One per teacher.
type ScheduleConfig struct {
	TeacherID            string                   `json:"teacher_id"`
	Rules                []WeeklyAvailabilityRule `json:"rules"`
	SlotDurationMinutes  int                      `json:"slot_duration_minutes"`
	PublicBookingEnabled bool                     `json:"public_booking_enabled"`
}

// ScheduleSettings is the persisted per-teacher row backing ScheduleConfig.
type ScheduleSettings struct {
	TeacherID            string    `db:"teacher_id" json:"teacher_id"`
	SlotDurationMinutes  int       `db:"slot_duration_minutes" json:"slot_duration_minutes"`
	PublicBookingEnabled bool      `db:"public_booking_enabled" json:"public_booking_enabled"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
