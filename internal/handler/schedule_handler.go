package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/tutorhive-api/internal/service"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

// ScheduleHandler exposes availability configuration endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Get godoc
// @Summary Get schedule configuration
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	config, err := h.service.Get(c.Request.Context(), teacherScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// ReplaceRules godoc
// @Summary Replace the weekly availability rules
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.ReplaceRulesRequest true "Rule set"
// @Success 200 {object} response.Envelope
// @Router /schedule/rules [put]
func (h *ScheduleHandler) ReplaceRules(c *gin.Context) {
	var req service.ReplaceRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.service.ReplaceRules(c.Request.Context(), teacherScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// AddRule godoc
// @Summary Add a weekly availability rule
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/rules [post]
func (h *ScheduleHandler) AddRule(c *gin.Context) {
	var req service.AvailabilityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.service.AddRule(c.Request.Context(), teacherScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// RemoveRule godoc
// @Summary Remove a weekly availability rule
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityRuleRequest true "Rule payload"
// @Success 204
// @Router /schedule/rules [delete]
func (h *ScheduleHandler) RemoveRule(c *gin.Context) {
	var req service.AvailabilityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.RemoveRule(c.Request.Context(), teacherScope(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateSettings godoc
// @Summary Update booking settings
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.UpdateScheduleSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/settings [put]
func (h *ScheduleHandler) UpdateSettings(c *gin.Context) {
	var req service.UpdateScheduleSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.service.UpdateSettings(c.Request.Context(), teacherScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
