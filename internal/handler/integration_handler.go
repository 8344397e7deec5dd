package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/service"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

// IntegrationHandler exposes third-party connection endpoints.
type IntegrationHandler struct {
	service *service.IntegrationService
}

// NewIntegrationHandler constructs an integration handler.
func NewIntegrationHandler(svc *service.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{service: svc}
}

func providerParam(c *gin.Context) models.IntegrationProvider {
	return models.IntegrationProvider(strings.ToUpper(c.Param("provider")))
}

// Status godoc
// @Summary Connection status for all providers
// @Tags Integrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /integrations [get]
func (h *IntegrationHandler) Status(c *gin.Context) {
	statuses, err := h.service.Status(c.Request.Context(), teacherScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// AuthURL godoc
// @Summary OAuth consent URL for a provider
// @Tags Integrations
// @Produce json
// @Param provider path string true "Provider (google or zoom)"
// @Success 200 {object} response.Envelope
// @Router /integrations/{provider}/auth-url [get]
func (h *IntegrationHandler) AuthURL(c *gin.Context) {
	claims := claimsFromContext(c)
	state := c.Query("state")
	if state == "" && claims != nil {
		state = claims.TeacherID
	}
	url, err := h.service.AuthURL(providerParam(c), state)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"url": url}, nil)
}

// Connect godoc
// @Summary Exchange an OAuth code and store the connection
// @Tags Integrations
// @Accept json
// @Produce json
// @Param provider path string true "Provider (google or zoom)"
// @Param payload body map[string]string true "Authorization code"
// @Success 204
// @Router /integrations/{provider}/connect [post]
func (h *IntegrationHandler) Connect(c *gin.Context) {
	var payload struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "authorization code required"))
		return
	}
	if err := h.service.Connect(c.Request.Context(), teacherScope(c), providerParam(c), payload.Code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Disconnect godoc
// @Summary Disconnect a provider
// @Tags Integrations
// @Produce json
// @Param provider path string true "Provider (google or zoom)"
// @Success 204
// @Router /integrations/{provider} [delete]
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), teacherScope(c), providerParam(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
