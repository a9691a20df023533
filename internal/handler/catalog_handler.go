package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unigrado/grado-api/internal/service"
	"github.com/unigrado/grado-api/pkg/response"
)

// CatalogHandler serves the reference catalogs and the transition graph.
type CatalogHandler struct {
	catalogs *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(catalogs *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs}
}

// Statuses godoc
// @Summary List lifecycle statuses
// @Tags Catalogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalogs/statuses [get]
func (h *CatalogHandler) Statuses(c *gin.Context) {
	statuses, err := h.catalogs.Statuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// ActionTypes godoc
// @Summary List workflow action types
// @Tags Catalogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalogs/action-types [get]
func (h *CatalogHandler) ActionTypes(c *gin.Context) {
	actions, err := h.catalogs.ActionTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions, nil)
}

// Programs godoc
// @Summary List academic programs
// @Tags Catalogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalogs/programs [get]
func (h *CatalogHandler) Programs(c *gin.Context) {
	programs, err := h.catalogs.Programs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// DegreeOptions godoc
// @Summary List degree options of a program
// @Tags Catalogs
// @Produce json
// @Param programId path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /catalogs/programs/{programId}/degree-options [get]
func (h *CatalogHandler) DegreeOptions(c *gin.Context) {
	options, err := h.catalogs.DegreeOptions(c.Request.Context(), c.Param("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Transitions godoc
// @Summary List legal lifecycle transitions
// @Description Enumerates every (action, from, to) edge of the workflow
// @Tags Catalogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalogs/transitions [get]
func (h *CatalogHandler) Transitions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalogs.Transitions(), nil)
}
