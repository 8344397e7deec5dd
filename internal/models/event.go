package models

import "time"

// EventType enumerates calendar event kinds.
type EventType string

const (
	EventTypeLesson   EventType = "LESSON"
	EventTypeMeeting  EventType = "MEETING"
	EventTypeBlock    EventType = "BLOCK"
	EventTypePersonal EventType = "PERSONAL"
)

// Event is any calendar commitment for a teacher. Events are the busy
// intervals consulted by the booking slot generator.
type Event struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	EventType   EventType `db:"event_type" json:"event_type"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	ClassID     *string   `db:"class_id" json:"class_id,omitempty"`
	StudentID   *string   `db:"student_id" json:"student_id,omitempty"`
	Location    string    `db:"location" json:"location"`
	MeetingURL  string    `db:"meeting_url" json:"meeting_url"`
	ExternalRef *string   `db:"external_ref" json:"external_ref,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows event listings to a window and optional links.
type EventFilter struct {
	TeacherID string
	From      *time.Time
	To        *time.Time
	EventType string
	ClassID   string
	StudentID string
	Page      int
	PageSize  int
}

// BusyInterval is the minimal view of an event the slot generator needs.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
