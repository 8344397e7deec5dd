package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/service"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
)

// SubmissionHandler exposes answer submission and review endpoints.
type SubmissionHandler struct {
	service *service.SubmissionService
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

func studentIdentity(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.StudentID == "" || claims.TeacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no student profile linked to this account"))
		return nil, false
	}
	return claims, true
}

// ListByTask godoc
// @Summary List submissions for a task
// @Tags Submissions
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/submissions [get]
func (h *SubmissionHandler) ListByTask(c *gin.Context) {
	submissions, err := h.service.ListByTask(c.Request.Context(), teacherScope(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// SubmitText godoc
// @Summary Submit a text answer
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.SubmitTextRequest true "Answer payload"
// @Success 201 {object} response.Envelope
// @Router /me/tasks/{id}/submissions/text [post]
func (h *SubmissionHandler) SubmitText(c *gin.Context) {
	claims, ok := studentIdentity(c)
	if !ok {
		return
	}
	var req service.SubmitTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.service.SubmitText(c.Request.Context(), claims.TeacherID, c.Param("id"), claims.StudentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// SubmitChoice godoc
// @Summary Submit a multiple choice answer
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.SubmitChoiceRequest true "Answer payload"
// @Success 201 {object} response.Envelope
// @Router /me/tasks/{id}/submissions/choice [post]
func (h *SubmissionHandler) SubmitChoice(c *gin.Context) {
	claims, ok := studentIdentity(c)
	if !ok {
		return
	}
	var req service.SubmitChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.service.SubmitChoice(c.Request.Context(), claims.TeacherID, c.Param("id"), claims.StudentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// SubmitFile godoc
// @Summary Submit a file answer
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Task ID"
// @Param file formData file true "Answer file"
// @Success 201 {object} response.Envelope
// @Router /me/tasks/{id}/submissions/file [post]
func (h *SubmissionHandler) SubmitFile(c *gin.Context) {
	claims, ok := studentIdentity(c)
	if !ok {
		return
	}
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

	submission, err := h.service.SubmitFile(c.Request.Context(), claims.TeacherID, c.Param("id"), claims.StudentID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// Review godoc
// @Summary Review a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.ReviewSubmissionRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/review [put]
func (h *SubmissionHandler) Review(c *gin.Context) {
	var req service.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.service.Review(c.Request.Context(), teacherScope(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
