package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/response"
	"github.com/limpopochefs/academy-api/pkg/storage"
)

// FileHandler serves stored objects through short-lived signed tokens.
type FileHandler struct {
	store  *storage.ObjectStore
	signer *storage.SignedURLSigner
}

// NewFileHandler creates a new handler.
func NewFileHandler(store *storage.ObjectStore, signer *storage.SignedURLSigner) *FileHandler {
	return &FileHandler{store: store, signer: signer}
}

// Serve godoc
// @Summary Serve a stored file
// @Description Requires a valid signed token; keys are never addressable directly
// @Tags Files
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /files [get]
func (h *FileHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "signed token required"))
		return
	}

	key, _, err := h.signer.Parse(token)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
		return
	}

	file, contentType, err := h.store.Open(key)
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

	c.Header("Cache-Control", "private, max-age=60")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
