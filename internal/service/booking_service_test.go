package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type mockBookingTeacherRepo struct {
	teachers map[string]models.Teacher
}

func (m *mockBookingTeacherRepo) FindBySlug(ctx context.Context, slug string) (*models.Teacher, error) {
	if t, ok := m.teachers[slug]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

type mockBookingScheduleRepo struct {
	config models.ScheduleConfig
}

func (m *mockBookingScheduleRepo) GetConfig(ctx context.Context, teacherID string) (*models.ScheduleConfig, error) {
	cfg := m.config
	cfg.TeacherID = teacherID
	return &cfg, nil
}

type mockBookingEventRepo struct {
	busy      []models.BusyInterval
	created   []models.Event
	createErr error
}

func (m *mockBookingEventRepo) ListBusyIntervals(ctx context.Context, teacherID string) ([]models.BusyInterval, error) {
	return m.busy, nil
}

func (m *mockBookingEventRepo) Create(ctx context.Context, event *models.Event) error {
	if m.createErr != nil {
		return m.createErr
	}
	if event.ID == "" {
		event.ID = "event-1"
	}
	m.created = append(m.created, *event)
	return nil
}

type mockBookingStudentRepo struct {
	students []models.StudentDetail
	created  []models.Student
}

func (m *mockBookingStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	matches := make([]models.StudentDetail, 0)
	for _, s := range m.students {
		if filter.Search == "" || s.Email == filter.Search {
			matches = append(matches, s)
		}
	}
	return matches, len(matches), nil
}

func (m *mockBookingStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "student-new"
	}
	m.created = append(m.created, *student)
	return nil
}

func bookingFixture(busy []models.BusyInterval) (*BookingService, *mockBookingEventRepo, *mockBookingStudentRepo, string) {
	date := time.Now().UTC().AddDate(0, 0, 3)
	teachers := &mockBookingTeacherRepo{teachers: map[string]models.Teacher{
		"jane-doe": {ID: "teacher-1", DisplayName: "Jane Doe", Timezone: "UTC", Active: true},
	}}
	schedules := &mockBookingScheduleRepo{config: models.ScheduleConfig{
		Rules: []models.WeeklyAvailabilityRule{
			{DayOfWeek: int(date.Weekday()), StartTime: "09:00", EndTime: "11:00"},
		},
		SlotDurationMinutes:  60,
		PublicBookingEnabled: true,
	}}
	events := &mockBookingEventRepo{busy: busy}
	students := &mockBookingStudentRepo{}
	svc := NewBookingService(teachers, schedules, events, students, 60, nil, nil)
	return svc, events, students, date.Format("2006-01-02")
}

func TestBookingSlots(t *testing.T) {
	svc, _, _, date := bookingFixture(nil)

	slots, err := svc.Slots(context.Background(), "jane-doe", date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, slots.Slots)
	assert.Equal(t, 60, slots.DurationMinutes)
}

func TestBookingSlotsExcludesBusy(t *testing.T) {
	day, _ := time.Parse("2006-01-02", time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02"))
	busy := []models.BusyInterval{{
		Start: day.Add(9 * time.Hour),
		End:   day.Add(10 * time.Hour),
	}}
	svc, _, _, date := bookingFixture(busy)

	slots, err := svc.Slots(context.Background(), "jane-doe", date)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, slots.Slots)
}

func TestBookingSlotsUnknownSlug(t *testing.T) {
	svc, _, _, date := bookingFixture(nil)

	_, err := svc.Slots(context.Background(), "nobody", date)
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBookingDisabled.Code, apiErr.Code)
}

func TestBookingBook(t *testing.T) {
	svc, events, students, date := bookingFixture(nil)

	event, err := svc.Book(context.Background(), "jane-doe", CreateBookingRequest{
		Date:      date,
		StartTime: "09:00",
		FullName:  "Sam Student",
		Email:     "sam@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeLesson, event.EventType)
	assert.Len(t, events.created, 1)
	assert.Len(t, students.created, 1)
	assert.Equal(t, "sam@example.com", students.created[0].Email)
}

func TestBookingBookTakenSlot(t *testing.T) {
	day, _ := time.Parse("2006-01-02", time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02"))
	busy := []models.BusyInterval{{
		Start: day.Add(9 * time.Hour),
		End:   day.Add(10 * time.Hour),
	}}
	svc, events, _, date := bookingFixture(busy)

	_, err := svc.Book(context.Background(), "jane-doe", CreateBookingRequest{
		Date:      date,
		StartTime: "09:00",
		FullName:  "Sam Student",
		Email:     "sam@example.com",
	})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, apiErr.Code)
	assert.Empty(t, events.created)
}

func TestBookingBookLostRaceMapsToSlotTaken(t *testing.T) {
	svc, events, _, date := bookingFixture(nil)
	events.createErr = fmt.Errorf("create event: %w", &pq.Error{Code: "23505"})

	_, err := svc.Book(context.Background(), "jane-doe", CreateBookingRequest{
		Date:      date,
		StartTime: "09:00",
		FullName:  "Sam Student",
		Email:     "sam@example.com",
	})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, apiErr.Code)
}

func TestBookingBookReusesExistingStudent(t *testing.T) {
	svc, _, students, date := bookingFixture(nil)
	students.students = []models.StudentDetail{{Student: models.Student{
		ID:        "student-1",
		TeacherID: "teacher-1",
		FullName:  "Sam Student",
		Email:     "sam@example.com",
		Active:    true,
	}}}

	event, err := svc.Book(context.Background(), "jane-doe", CreateBookingRequest{
		Date:      date,
		StartTime: "10:00",
		FullName:  "Sam Student",
		Email:     "sam@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, event.StudentID)
	assert.Equal(t, "student-1", *event.StudentID)
	assert.Empty(t, students.created)
}

func TestBookingDateBeyondHorizon(t *testing.T) {
	svc, _, _, _ := bookingFixture(nil)

	far := time.Now().UTC().AddDate(0, 0, 120).Format("2006-01-02")
	_, err := svc.Slots(context.Background(), "jane-doe", far)
	require.Error(t, err)
}

func TestBookingDisabled(t *testing.T) {
	svc, _, _, date := bookingFixture(nil)
	svc.schedules.(*mockBookingScheduleRepo).config.PublicBookingEnabled = false

	_, err := svc.Slots(context.Background(), "jane-doe", date)
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBookingDisabled.Code, apiErr.Code)
}
