package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/internal/service"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
	"github.com/unigrado/grado-api/pkg/response"
)

// ProjectHandler exposes project registration, listing and roster endpoints.
type ProjectHandler struct {
	projects *service.ProjectService
	gate     *service.AuthorizationGate
}

// NewProjectHandler creates a new handler.
func NewProjectHandler(projects *service.ProjectService, gate *service.AuthorizationGate) *ProjectHandler {
	return &ProjectHandler{projects: projects, gate: gate}
}

// Create godoc
// @Summary Register a project
// @Description Create a degree project in its initial status with its actor roster
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body service.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.gate.AuthorizeGlobal(claims); err != nil {
		response.Error(c, err)
		return
	}

	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project payload"))
		return
	}

	detail, err := h.projects.Create(c.Request.Context(), req, claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, detail)
}

// List godoc
// @Summary List projects
// @Description Paginated project listing with status, program and title filters
// @Tags Projects
// @Produce json
// @Param status query string false "Filter by status code"
// @Param program_id query string false "Filter by program"
// @Param search query string false "Title substring search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column (title, start_date, created_at)"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := models.ProjectFilter{
		StatusID:  models.StatusID(c.Query("status")),
		ProgramID: c.Query("program_id"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	projects, pagination, err := h.projects.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, projects, pagination)
}

// Get godoc
// @Summary Get a project
// @Description Project detail with catalog names and actor roster
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	detail, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AssignActor godoc
// @Summary Assign an actor
// @Description Add a person to the project roster under a role
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body service.ActorAssignment true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/actors [post]
func (h *ProjectHandler) AssignActor(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.gate.AuthorizeGlobal(claims); err != nil {
		response.Error(c, err)
		return
	}

	var req service.ActorAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	actor, err := h.projects.AssignActor(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, actor)
}

// RemoveActor godoc
// @Summary Remove an actor
// @Description Deactivate a person's active role on the project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Param personId path string true "Person ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /projects/{id}/actors/{personId} [delete]
func (h *ProjectHandler) RemoveActor(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.gate.AuthorizeGlobal(claims); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.projects.RemoveActor(c.Request.Context(), c.Param("id"), c.Param("personId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
