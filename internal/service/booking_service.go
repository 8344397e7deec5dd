package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/booking"
	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type bookingTeacherRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Teacher, error)
}

type bookingScheduleRepository interface {
	GetConfig(ctx context.Context, teacherID string) (*models.ScheduleConfig, error)
}

type bookingEventRepository interface {
	ListBusyIntervals(ctx context.Context, teacherID string) ([]models.BusyInterval, error)
	Create(ctx context.Context, event *models.Event) error
}

type bookingStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	Create(ctx context.Context, student *models.Student) error
}

// BookingPage is the public projection of a teacher's booking profile.
type BookingPage struct {
	TeacherID   string `json:"-"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Subjects    string `json:"subjects"`
	Timezone    string `json:"timezone"`
}

// DaySlots lists the open start times of one calendar date.
type DaySlots struct {
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}

// CreateBookingRequest reserves a slot on the public page.
type CreateBookingRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Note      string `json:"note"`
}

// BookingService serves the public booking page: slot listing and
// reservation. All lookups go through the teacher's booking slug.
type BookingService struct {
	teachers       bookingTeacherRepository
	schedules      bookingScheduleRepository
	events         bookingEventRepository
	students       bookingStudentRepository
	validator      *validator.Validate
	logger         *zap.Logger
	maxAdvanceDays int
}

// NewBookingService creates a new booking service.
func NewBookingService(teachers bookingTeacherRepository, schedules bookingScheduleRepository, events bookingEventRepository, students bookingStudentRepository, maxAdvanceDays int, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 60
	}
	return &BookingService{
		teachers:       teachers,
		schedules:      schedules,
		events:         events,
		students:       students,
		validator:      validate,
		logger:         logger,
		maxAdvanceDays: maxAdvanceDays,
	}
}

// Page resolves the public booking profile for a slug.
func (s *BookingService) Page(ctx context.Context, slug string) (*BookingPage, error) {
	teacher, err := s.resolveTeacher(ctx, slug)
	if err != nil {
		return nil, err
	}
	if enabled, err := s.bookingEnabled(ctx, teacher.ID); err != nil {
		return nil, err
	} else if !enabled {
		return nil, appErrors.Clone(appErrors.ErrBookingDisabled, "")
	}
	return &BookingPage{
		TeacherID:   teacher.ID,
		DisplayName: teacher.DisplayName,
		Bio:         teacher.Bio,
		Subjects:    teacher.Subjects,
		Timezone:    teacher.Timezone,
	}, nil
}

// Slots computes the open start times for one date.
func (s *BookingService) Slots(ctx context.Context, slug, dateRaw string) (*DaySlots, error) {
	teacher, err := s.resolveTeacher(ctx, slug)
	if err != nil {
		return nil, err
	}

	date, err := parseBookingDate(dateRaw, s.maxAdvanceDays)
	if err != nil {
		return nil, err
	}

	config, err := s.schedules.GetConfig(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !config.PublicBookingEnabled {
		return nil, appErrors.Clone(appErrors.ErrBookingDisabled, "")
	}

	busy, err := s.events.ListBusyIntervals(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}

	slots, err := booking.ComputeAvailableSlots(date, *config, busy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to compute slots")
	}

	duration := config.SlotDurationMinutes
	if duration <= 0 {
		duration = booking.DefaultSlotMinutes
	}
	return &DaySlots{Date: date.Format("2006-01-02"), DurationMinutes: duration, Slots: slots}, nil
}

// Book reserves a slot. The slot list is recomputed at write time so a
// request racing another booking gets a conflict instead of a double-book.
func (s *BookingService) Book(ctx context.Context, slug string, req CreateBookingRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	teacher, err := s.resolveTeacher(ctx, slug)
	if err != nil {
		return nil, err
	}

	date, err := parseBookingDate(req.Date, s.maxAdvanceDays)
	if err != nil {
		return nil, err
	}
	startMin, err := booking.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}

	config, err := s.schedules.GetConfig(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !config.PublicBookingEnabled {
		return nil, appErrors.Clone(appErrors.ErrBookingDisabled, "")
	}

	busy, err := s.events.ListBusyIntervals(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}

	slots, err := booking.ComputeAvailableSlots(date, *config, busy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to compute slots")
	}
	if !containsSlot(slots, req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrSlotTaken, "")
	}

	duration := config.SlotDurationMinutes
	if duration <= 0 {
		duration = booking.DefaultSlotMinutes
	}
	startsAt := time.Date(date.Year(), date.Month(), date.Day(), startMin/60, startMin%60, 0, 0, date.Location())
	endsAt := startsAt.Add(time.Duration(duration) * time.Minute)

	student, err := s.findOrCreateStudent(ctx, teacher.ID, req)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		TeacherID:   teacher.ID,
		Title:       fmt.Sprintf("Lesson with %s", req.FullName),
		Description: req.Note,
		EventType:   models.EventTypeLesson,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		StudentID:   &student.ID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		// a concurrent booking that won the slot trips the events
		// unique constraint; first request wins
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, appErrors.Clone(appErrors.ErrSlotTaken, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.logger.Info("slot booked",
		zap.String("teacher_id", teacher.ID),
		zap.String("date", req.Date),
		zap.String("start", req.StartTime))
	return event, nil
}

func (s *BookingService) resolveTeacher(ctx context.Context, slug string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindBySlug(ctx, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrBookingDisabled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve booking page")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrBookingDisabled, "")
	}
	return teacher, nil
}

func (s *BookingService) bookingEnabled(ctx context.Context, teacherID string) (bool, error) {
	config, err := s.schedules.GetConfig(ctx, teacherID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return config.PublicBookingEnabled, nil
}

// findOrCreateStudent matches the booker to an existing student by email or
// registers a new roster entry.
func (s *BookingService) findOrCreateStudent(ctx context.Context, teacherID string, req CreateBookingRequest) (*models.Student, error) {
	existing, _, err := s.students.List(ctx, models.StudentFilter{
		TeacherID: teacherID,
		Search:    req.Email,
		Page:      1,
		PageSize:  1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	if len(existing) > 0 && existing[0].Email == req.Email {
		return &existing[0].Student, nil
	}

	student := &models.Student{
		TeacherID: teacherID,
		FullName:  req.FullName,
		Email:     req.Email,
		Active:    true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}
	return student, nil
}

func parseBookingDate(raw string, maxAdvanceDays int) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	horizon := time.Now().UTC().AddDate(0, 0, maxAdvanceDays)
	if date.After(horizon) {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date is beyond the booking horizon")
	}
	return date, nil
}

func containsSlot(slots []string, start string) bool {
	for _, s := range slots {
		if s == start {
			return true
		}
	}
	return false
}
