package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unigrado/grado-api/internal/service"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
	"github.com/unigrado/grado-api/pkg/export"
	"github.com/unigrado/grado-api/pkg/response"
)

// ImportHandler exposes the bulk project upload and its template.
type ImportHandler struct {
	imports  *service.ImportService
	gate     *service.AuthorizationGate
	metrics  *service.MetricsService
	exporter *export.CSVExporter
	maxBytes int64
}

// NewImportHandler creates a new handler.
func NewImportHandler(imports *service.ImportService, gate *service.AuthorizationGate, metrics *service.MetricsService, maxBytes int64) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}
	return &ImportHandler{
		imports:  imports,
		gate:     gate,
		metrics:  metrics,
		exporter: export.NewCSVExporter(),
		maxBytes: maxBytes,
	}
}

// Upload godoc
// @Summary Bulk import projects
// @Description Upload a CSV of projects; each row is imported independently and the summary preserves file order
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /projects/bulk-upload [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.gate.AuthorizeGlobal(claims); err != nil {
		response.Error(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "CSV file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	summary, err := h.imports.Import(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveImport(summary)
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Template godoc
// @Summary Download the import template
// @Description CSV template with the expected columns and one sample row
// @Tags Import
// @Produce text/csv
// @Success 200 {file} file
// @Router /projects/bulk-template [get]
func (h *ImportHandler) Template(c *gin.Context) {
	payload, err := h.exporter.Render(*h.imports.Template())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="plantilla_carga_proyectos.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}
