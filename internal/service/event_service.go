package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, teacherID, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, teacherID, id string) error
}

// MeetingProvider provisions a video call link for an event. Implemented by
// the integrations service for Google Meet and Zoom.
type MeetingProvider interface {
	CreateMeeting(ctx context.Context, teacherID, title string, startsAt, endsAt time.Time) (url, externalRef string, err error)
	DeleteMeeting(ctx context.Context, teacherID, externalRef string) error
}

// CreateEventRequest captures fields for creating a calendar event.
type CreateEventRequest struct {
	Title         string           `json:"title" validate:"required"`
	Description   string           `json:"description"`
	EventType     models.EventType `json:"event_type" validate:"required,oneof=LESSON MEETING BLOCK PERSONAL"`
	StartsAt      time.Time        `json:"starts_at" validate:"required"`
	EndsAt        time.Time        `json:"ends_at" validate:"required"`
	ClassID       *string          `json:"class_id"`
	StudentID     *string          `json:"student_id"`
	Location      string           `json:"location"`
	CreateMeeting bool             `json:"create_meeting"`
}

// UpdateEventRequest modifies calendar event fields.
type UpdateEventRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	EventType   models.EventType `json:"event_type" validate:"required,oneof=LESSON MEETING BLOCK PERSONAL"`
	StartsAt    time.Time        `json:"starts_at" validate:"required"`
	EndsAt      time.Time        `json:"ends_at" validate:"required"`
	ClassID     *string          `json:"class_id"`
	StudentID   *string          `json:"student_id"`
	Location    string           `json:"location"`
}

// EventService handles the teacher calendar.
type EventService struct {
	repo      eventRepository
	meetings  MeetingProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService creates a new event service. The meeting provider may be
// nil when no integration is configured.
func NewEventService(repo eventRepository, meetings MeetingProvider, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, meetings: meetings, validator: validate, logger: logger}
}

// List returns paginated events inside an optional window.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return events, pagination, nil
}

// Get returns one event scoped to the teacher.
func (s *EventService) Get(ctx context.Context, teacherID, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create adds a calendar event, optionally provisioning a meeting link.
func (s *EventService) Create(ctx context.Context, teacherID string, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "event must end after it starts")
	}

	event := &models.Event{
		TeacherID:   teacherID,
		Title:       req.Title,
		Description: req.Description,
		EventType:   req.EventType,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		ClassID:     req.ClassID,
		StudentID:   req.StudentID,
		Location:    req.Location,
	}

	if req.CreateMeeting && s.meetings != nil {
		url, ref, err := s.meetings.CreateMeeting(ctx, teacherID, req.Title, event.StartsAt, event.EndsAt)
		if err != nil {
			s.logger.Warn("failed to provision meeting link", zap.Error(err))
		} else {
			event.MeetingURL = url
			event.ExternalRef = &ref
		}
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// Update modifies an existing event.
func (s *EventService) Update(ctx context.Context, teacherID, id string, req UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "event must end after it starts")
	}

	event, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	event.Title = req.Title
	event.Description = req.Description
	event.EventType = req.EventType
	event.StartsAt = req.StartsAt.UTC()
	event.EndsAt = req.EndsAt.UTC()
	event.ClassID = req.ClassID
	event.StudentID = req.StudentID
	event.Location = req.Location

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Delete removes an event and tears down its provisioned meeting.
func (s *EventService) Delete(ctx context.Context, teacherID, id string) error {
	event, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if err := s.repo.Delete(ctx, teacherID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}

	if event.ExternalRef != nil && s.meetings != nil {
		if err := s.meetings.DeleteMeeting(ctx, teacherID, *event.ExternalRef); err != nil {
			s.logger.Warn("failed to delete provisioned meeting", zap.Error(err))
		}
	}
	return nil
}
