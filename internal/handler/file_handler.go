package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/unigrado/grado-api/pkg/errors"
	"github.com/unigrado/grado-api/pkg/response"
	"github.com/unigrado/grado-api/pkg/storage"
)

// FileHandler serves attachment downloads through signed tokens, so blob
// access needs no session and the underlying paths stay private.
type FileHandler struct {
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
}

// NewFileHandler creates a new handler.
func NewFileHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner) *FileHandler {
	return &FileHandler{storage: store, signer: signer}
}

// Download godoc
// @Summary Download an attachment
// @Description Stream the attachment referenced by a signed token
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	fileRef, _, err := h.signer.Parse(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.storage.Open(fileRef)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "attachment not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	name := filepath.Base(fileRef)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
