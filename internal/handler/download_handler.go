package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/response"
	"github.com/tutorhive/tutorhive-api/pkg/storage"
)

// DownloadHandler serves stored files against signed tokens. The routes
// are unauthenticated: the token itself carries the authorization.
type DownloadHandler struct {
	materialSigner *storage.SignedURLSigner
	materialStore  *storage.LocalStorage
	receiptSigner  *storage.SignedURLSigner
	receiptStore   *storage.LocalStorage
}

// NewDownloadHandler constructs a download handler.
func NewDownloadHandler(materialSigner *storage.SignedURLSigner, materialStore *storage.LocalStorage, receiptSigner *storage.SignedURLSigner, receiptStore *storage.LocalStorage) *DownloadHandler {
	return &DownloadHandler{
		materialSigner: materialSigner,
		materialStore:  materialStore,
		receiptSigner:  receiptSigner,
		receiptStore:   receiptStore,
	}
}

// Material godoc
// @Summary Download a material by signed token
// @Tags Downloads
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /downloads/materials [get]
func (h *DownloadHandler) Material(c *gin.Context) {
	h.serve(c, h.materialSigner, h.materialStore, "application/octet-stream")
}

// Receipt godoc
// @Summary Download a receipt PDF by signed token
// @Tags Downloads
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /downloads/receipts [get]
func (h *DownloadHandler) Receipt(c *gin.Context) {
	h.serve(c, h.receiptSigner, h.receiptStore, "application/pdf")
}

func (h *DownloadHandler) serve(c *gin.Context, signer *storage.SignedURLSigner, store *storage.LocalStorage, contentType string) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}

	_, relPath, _, err := signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token"))
		return
	}

	file, err := store.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file"))
		return
	}

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)),
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, extraHeaders)
}
