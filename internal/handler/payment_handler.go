package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/service"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

// PaymentHandler exposes the invoice lifecycle endpoints.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter models.PaymentFilter
	filter.TeacherID = teacherScope(c)
	filter.StudentID = c.Query("student_id")
	filter.Status = c.Query("status")
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	payments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Get godoc
// @Summary Get payment by id
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.service.Get(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Create godoc
// @Summary Create a draft invoice
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreatePaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.service.Create(c.Request.Context(), teacherScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Issue godoc
// @Summary Issue a draft invoice
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/issue [post]
func (h *PaymentHandler) Issue(c *gin.Context) {
	payment, err := h.service.Issue(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// MarkPaid godoc
// @Summary Mark an invoice as paid
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/mark-paid [post]
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	payment, err := h.service.MarkPaid(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Void godoc
// @Summary Void an invoice
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/void [post]
func (h *PaymentHandler) Void(c *gin.Context) {
	payment, err := h.service.Void(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// SweepOverdue godoc
// @Summary Flag overdue invoices
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payments/sweep-overdue [post]
func (h *PaymentHandler) SweepOverdue(c *gin.Context) {
	updated, err := h.service.SweepOverdue(c.Request.Context(), teacherScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}

// ExportCSV godoc
// @Summary Export invoices as CSV
// @Tags Payments
// @Produce text/csv
// @Param student_id query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Success 200
// @Router /payments/export [get]
func (h *PaymentHandler) ExportCSV(c *gin.Context) {
	var filter models.PaymentFilter
	filter.TeacherID = teacherScope(c)
	filter.StudentID = c.Query("student_id")
	filter.Status = c.Query("status")

	data, err := h.service.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="payments.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ReceiptLink godoc
// @Summary Signed download link for a receipt
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) ReceiptLink(c *gin.Context) {
	link, err := h.service.ReceiptLink(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// GatewayNotification godoc
// @Summary Payment gateway webhook
// @Description Receives asynchronous transaction status updates
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /webhooks/payment-gateway [post]
func (h *PaymentHandler) GatewayNotification(c *gin.Context) {
	var notif service.GatewayNotification
	if err := c.ShouldBindJSON(&notif); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}
	if err := h.service.HandleGatewayNotification(c.Request.Context(), notif); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}
