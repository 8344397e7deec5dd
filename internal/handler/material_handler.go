package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/service"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

// MaterialHandler exposes the teaching material library endpoints.
type MaterialHandler struct {
	service *service.MaterialService
}

// NewMaterialHandler constructs a material handler.
func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{service: svc}
}

// List godoc
// @Summary List materials
// @Tags Materials
// @Produce json
// @Param class_id query string false "Filter by shared class"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	var filter models.MaterialFilter
	filter.TeacherID = teacherScope(c)
	filter.ClassID = c.Query("class_id")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	materials, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, pagination)
}

// Get godoc
// @Summary Get material by id
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.service.Get(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Upload godoc
// @Summary Upload a material
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	req := service.UploadMaterialRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		FileName:    fileHeader.Filename,
		MIMEType:    fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
	}

	material, err := h.service.Upload(c.Request.Context(), teacherScope(c), req, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Update godoc
// @Summary Update material metadata
// @Tags Materials
// @Accept json
// @Produce json
// @Param id path string true "Material ID"
// @Param payload body service.UpdateMaterialRequest true "Material payload"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [put]
func (h *MaterialHandler) Update(c *gin.Context) {
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	material, err := h.service.Update(c.Request.Context(), teacherScope(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Delete godoc
// @Summary Delete material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), teacherScope(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Share godoc
// @Summary Share material with a class
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Param classId path string true "Class ID"
// @Success 204
// @Router /materials/{id}/shares/{classId} [post]
func (h *MaterialHandler) Share(c *gin.Context) {
	if err := h.service.Share(c.Request.Context(), teacherScope(c), c.Param("id"), c.Param("classId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unshare godoc
// @Summary Revoke a class share
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Param classId path string true "Class ID"
// @Success 204
// @Router /materials/{id}/shares/{classId} [delete]
func (h *MaterialHandler) Unshare(c *gin.Context) {
	if err := h.service.Unshare(c.Request.Context(), teacherScope(c), c.Param("id"), c.Param("classId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadLink godoc
// @Summary Signed download link for a material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/download [get]
func (h *MaterialHandler) DownloadLink(c *gin.Context) {
	link, err := h.service.DownloadLink(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}
