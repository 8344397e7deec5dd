package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/tutorhive-api/internal/service"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

// OnboardingHandler exposes guided onboarding endpoints.
type OnboardingHandler struct {
	service *service.OnboardingService
}

// NewOnboardingHandler constructs an onboarding handler.
func NewOnboardingHandler(svc *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{service: svc}
}

// Checklist godoc
// @Summary Onboarding checklist for the current user
// @Tags Onboarding
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /onboarding [get]
func (h *OnboardingHandler) Checklist(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	checklist, err := h.service.Checklist(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checklist, nil)
}

// Complete godoc
// @Summary Mark an onboarding step as completed
// @Tags Onboarding
// @Produce json
// @Param id path string true "Step ID"
// @Success 204
// @Router /onboarding/{id}/complete [post]
func (h *OnboardingHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Complete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSteps godoc
// @Summary List all onboarding steps
// @Tags Onboarding
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /onboarding/steps [get]
func (h *OnboardingHandler) ListSteps(c *gin.Context) {
	steps, err := h.service.ListSteps(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, steps, nil)
}

// CreateStep godoc
// @Summary Create onboarding step
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param payload body service.OnboardingStepRequest true "Step payload"
// @Success 201 {object} response.Envelope
// @Router /onboarding/steps [post]
func (h *OnboardingHandler) CreateStep(c *gin.Context) {
	var req service.OnboardingStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	step, err := h.service.CreateStep(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, step)
}

// UpdateStep godoc
// @Summary Update onboarding step
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param id path string true "Step ID"
// @Param payload body service.OnboardingStepRequest true "Step payload"
// @Success 200 {object} response.Envelope
// @Router /onboarding/steps/{id} [put]
func (h *OnboardingHandler) UpdateStep(c *gin.Context) {
	var req service.OnboardingStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	step, err := h.service.UpdateStep(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, step, nil)
}

// DeleteStep godoc
// @Summary Delete onboarding step
// @Tags Onboarding
// @Produce json
// @Param id path string true "Step ID"
// @Success 204
// @Router /onboarding/steps/{id} [delete]
func (h *OnboardingHandler) DeleteStep(c *gin.Context) {
	if err := h.service.DeleteStep(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
