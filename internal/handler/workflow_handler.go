package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/internal/service"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
	"github.com/unigrado/grado-api/pkg/response"
	"github.com/unigrado/grado-api/pkg/storage"
)

// WorkflowHandler exposes the lifecycle operations: iteration submission,
// review transitions and the audit history.
type WorkflowHandler struct {
	workflow *service.WorkflowService
	metrics  *service.MetricsService
	signer   *storage.SignedURLSigner
	maxBytes int64
}

// NewWorkflowHandler creates a new handler.
func NewWorkflowHandler(workflow *service.WorkflowService, metrics *service.MetricsService, signer *storage.SignedURLSigner, maxBytes int64) *WorkflowHandler {
	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}
	return &WorkflowHandler{workflow: workflow, metrics: metrics, signer: signer, maxBytes: maxBytes}
}

// SubmitIteration godoc
// @Summary Submit a work iteration
// @Description Attach a deliverable to the project without changing its status
// @Tags Workflow
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Project ID"
// @Param description formData string true "Iteration description"
// @Param file formData file true "Iteration file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /projects/{id}/iteration [post]
func (h *WorkflowHandler) SubmitIteration(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "iteration file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	req := service.SubmitIterationRequest{
		Description: c.PostForm("description"),
		Filename:    fileHeader.Filename,
		File:        file,
	}

	entry, err := h.workflow.SubmitIteration(c.Request.Context(), c.Param("id"), claims.PersonID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}

// Review godoc
// @Summary Review a project
// @Description Apply a review decision (approve, request corrections, reject, grade) moving the project through its lifecycle
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body service.ReviewTransitionRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /projects/{id}/review [post]
func (h *WorkflowHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReviewTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	result, err := h.workflow.ReviewTransition(c.Request.Context(), c.Param("id"), claims.PersonID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil && result.Entry.NewStatusID != nil {
		h.metrics.ObserveTransition(result.Entry.ActionType, *result.Entry.NewStatusID)
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary Project audit history
// @Description Chronological audit trail of every workflow event on the project
// @Tags Workflow
// @Produce json
// @Param id path string true "Project ID"
// @Param signed_urls query bool false "Include signed download URLs for attachments"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/history [get]
func (h *WorkflowHandler) History(c *gin.Context) {
	entries, err := h.workflow.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	includeURLs, _ := strconv.ParseBool(c.DefaultQuery("signed_urls", "false"))
	if !includeURLs || h.signer == nil {
		response.JSON(c, http.StatusOK, entries, nil)
		return
	}

	type historyEntry struct {
		models.AuditEntry
		DownloadURL string `json:"download_url,omitempty"`
	}
	enriched := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		item := historyEntry{AuditEntry: e}
		if e.FileRef != nil {
			if token, _, err := h.signer.Generate(*e.FileRef); err == nil {
				item.DownloadURL = "/files/" + token
			}
		}
		enriched = append(enriched, item)
	}
	response.JSON(c, http.StatusOK, enriched, nil)
}
