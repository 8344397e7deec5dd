package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/service"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

type bookingTeacherRepoStub struct{}

func (s *bookingTeacherRepoStub) FindBySlug(ctx context.Context, slug string) (*models.Teacher, error) {
	if slug != "jane-doe" {
		return nil, sql.ErrNoRows
	}
	return &models.Teacher{ID: "teacher-1", DisplayName: "Jane Doe", Timezone: "UTC", Active: true}, nil
}

type bookingScheduleRepoStub struct {
	day int
}

func (s *bookingScheduleRepoStub) GetConfig(ctx context.Context, teacherID string) (*models.ScheduleConfig, error) {
	return &models.ScheduleConfig{
		TeacherID: teacherID,
		Rules: []models.WeeklyAvailabilityRule{
			{DayOfWeek: s.day, StartTime: "09:00", EndTime: "11:00"},
		},
		SlotDurationMinutes:  60,
		PublicBookingEnabled: true,
	}, nil
}

type bookingEventRepoStub struct {
	busy []models.BusyInterval
}

func (s *bookingEventRepoStub) ListBusyIntervals(ctx context.Context, teacherID string) ([]models.BusyInterval, error) {
	return s.busy, nil
}

func (s *bookingEventRepoStub) Create(ctx context.Context, event *models.Event) error {
	event.ID = "event-1"
	return nil
}

type bookingStudentRepoStub struct{}

func (s *bookingStudentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

func (s *bookingStudentRepoStub) Create(ctx context.Context, student *models.Student) error {
	student.ID = "student-1"
	return nil
}

func newBookingHandler(busy []models.BusyInterval) (*BookingHandler, string) {
	date := time.Now().UTC().AddDate(0, 0, 3)
	svc := service.NewBookingService(
		&bookingTeacherRepoStub{},
		&bookingScheduleRepoStub{day: int(date.Weekday())},
		&bookingEventRepoStub{busy: busy},
		&bookingStudentRepoStub{},
		60, nil, nil)
	return NewBookingHandler(svc, service.NewMetricsService()), date.Format("2006-01-02")
}

func TestBookingHandlerSlotsRequiresDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newBookingHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/book/jane-doe/slots", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "slug", Value: "jane-doe"}}

	handler.Slots(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerSlots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, date := newBookingHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/book/jane-doe/slots?date="+date, nil)
	c.Request = req
	c.Params = gin.Params{{Key: "slug", Value: "jane-doe"}}

	handler.Slots(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	require.Len(t, data["slots"], 2)
}

func TestBookingHandlerSlotsUnknownSlug(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, date := newBookingHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/book/nobody/slots?date="+date, nil)
	c.Request = req
	c.Params = gin.Params{{Key: "slug", Value: "nobody"}}

	handler.Slots(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandlerBook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, date := newBookingHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"date":"` + date + `","start_time":"09:00","full_name":"Sam Student","email":"sam@example.com"}`
	req, _ := http.NewRequest(http.MethodPost, "/book/jane-doe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "slug", Value: "jane-doe"}}

	handler.Book(c)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestBookingHandlerBookMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newBookingHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/book/jane-doe", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "slug", Value: "jane-doe"}}

	handler.Book(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerBookTakenSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	day, _ := time.Parse("2006-01-02", time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02"))
	busy := []models.BusyInterval{{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}}
	handler, date := newBookingHandler(busy)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"date":"` + date + `","start_time":"09:00","full_name":"Sam Student","email":"sam@example.com"}`
	req, _ := http.NewRequest(http.MethodPost, "/book/jane-doe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "slug", Value: "jane-doe"}}

	handler.Book(c)

	require.Equal(t, http.StatusConflict, w.Code)
}
