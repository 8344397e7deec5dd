package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/tutorhive-api/internal/service"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

// BookingHandler serves the public, unauthenticated booking page.
type BookingHandler struct {
	service *service.BookingService
	metrics *service.MetricsService
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(svc *service.BookingService, metrics *service.MetricsService) *BookingHandler {
	return &BookingHandler{service: svc, metrics: metrics}
}

// Page godoc
// @Summary Public booking page for a teacher
// @Tags Booking
// @Produce json
// @Param slug path string true "Booking slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /book/{slug} [get]
func (h *BookingHandler) Page(c *gin.Context) {
	page, err := h.service.Page(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// Slots godoc
// @Summary Open slots for a date
// @Tags Booking
// @Produce json
// @Param slug path string true "Booking slug"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /book/{slug}/slots [get]
func (h *BookingHandler) Slots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	slots, err := h.service.Slots(c.Request.Context(), c.Param("slug"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Book godoc
// @Summary Reserve a slot
// @Tags Booking
// @Accept json
// @Produce json
// @Param slug path string true "Booking slug"
// @Param payload body service.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /book/{slug} [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.service.Book(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordBooking()
	response.Created(c, event)
}
