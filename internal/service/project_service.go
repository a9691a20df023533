package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unigrado/grado-api/internal/models"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

type projectRepository interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.ProjectDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.ProjectDetail, error)
	CreateWithGraph(ctx context.Context, project *models.Project, actors []models.Actor, entry *models.AuditEntry) error
	ExistsByTitle(ctx context.Context, title string) (bool, error)
}

type projectActorRepository interface {
	ListByProject(ctx context.Context, projectID string) ([]models.ActorDetail, error)
	ExistsActive(ctx context.Context, projectID, personID string) (bool, error)
	Create(ctx context.Context, actor *models.Actor) error
	Deactivate(ctx context.Context, id string) error
	FindActive(ctx context.Context, projectID, personID string) (*models.Actor, error)
}

type projectPersonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Person, error)
}

// ActorAssignment pairs a person with the role they play on a new project.
type ActorAssignment struct {
	PersonID string           `json:"person_id" validate:"required"`
	Role     models.ActorRole `json:"role" validate:"required"`
}

// CreateProjectRequest holds the payload for registering a new project.
type CreateProjectRequest struct {
	Title          string            `json:"title" validate:"required,min=5"`
	Summary        string            `json:"summary"`
	Objectives     string            `json:"objectives"`
	Company        *string           `json:"company,omitempty"`
	StartDate      time.Time         `json:"start_date" validate:"required"`
	EndDate        *time.Time        `json:"end_date,omitempty"`
	ProgramID      string            `json:"program_id" validate:"required"`
	DegreeOptionID string            `json:"degree_option_id" validate:"required"`
	Actors         []ActorAssignment `json:"actors" validate:"required,min=1,dive"`
}

// ProjectService handles project registration, listing and roster management.
// Status changes are out of its reach; those belong to the workflow engine.
type ProjectService struct {
	projects  projectRepository
	actors    projectActorRepository
	persons   projectPersonRepository
	table     *TransitionTable
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(
	projects projectRepository,
	actors projectActorRepository,
	persons projectPersonRepository,
	table *TransitionTable,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projects:  projects,
		actors:    actors,
		persons:   persons,
		table:     table,
		validator: validate,
		logger:    logger,
	}
}

var validActorRoles = map[models.ActorRole]struct{}{
	models.ActorStudent:         {},
	models.ActorAdvisor:         {},
	models.ActorExternalAdvisor: {},
	models.ActorEvaluator:       {},
	models.ActorCoordinator:     {},
}

// Create registers a project in the initial lifecycle status together with
// its actor roster and the creation audit entry, atomically. The roster must
// include at least one student.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest, createdBy string) (*models.ProjectDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}

	hasStudent := false
	seen := make(map[string]struct{}, len(req.Actors))
	for _, a := range req.Actors {
		if _, ok := validActorRoles[a.Role]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown actor role "+string(a.Role))
		}
		if _, dup := seen[a.PersonID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "person "+a.PersonID+" assigned more than once")
		}
		seen[a.PersonID] = struct{}{}
		if a.Role == models.ActorStudent {
			hasStudent = true
		}
	}
	if !hasStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project requires at least one student actor")
	}

	for _, a := range req.Actors {
		if _, err := s.persons.FindByID(ctx, a.PersonID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "person "+a.PersonID+" does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve person")
		}
	}

	exists, err := s.projects.ExistsByTitle(ctx, req.Title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check title")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a project with this title already exists")
	}

	initial := s.table.InitialStatus()
	project := &models.Project{
		Title:           req.Title,
		Summary:         req.Summary,
		Objectives:      req.Objectives,
		Company:         req.Company,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CurrentStatusID: initial,
		DegreeOptionID:  req.DegreeOptionID,
		ProgramID:       req.ProgramID,
	}

	actors := make([]models.Actor, 0, len(req.Actors))
	for _, a := range req.Actors {
		actors = append(actors, models.Actor{PersonID: a.PersonID, Role: a.Role, Active: true})
	}

	entry := &models.AuditEntry{
		ActionType:  models.ActionCreate,
		NewStatusID: &initial,
		Description: "Proyecto registrado",
	}
	if createdBy != "" {
		entry.Description = "Proyecto registrado por " + createdBy
	}

	if err := s.projects.CreateWithGraph(ctx, project, actors, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("title", project.Title),
		zap.Int("actors", len(actors)),
	)
	return s.Get(ctx, project.ID)
}

// List returns projects matching the filter plus pagination info.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.ProjectDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}

	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	return projects, pagination, nil
}

// Get returns the project detail with its actor roster.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.ProjectDetail, error) {
	detail, err := s.projects.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	actors, err := s.actors.ListByProject(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load actors")
	}
	detail.Actors = actors
	return detail, nil
}

// AssignActor adds a person to a project roster under a role.
func (s *ProjectService) AssignActor(ctx context.Context, projectID string, assignment ActorAssignment) (*models.Actor, error) {
	if err := s.validator.Struct(assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, ok := validActorRoles[assignment.Role]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown actor role "+string(assignment.Role))
	}

	if _, err := s.projects.FindDetailByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	if _, err := s.persons.FindByID(ctx, assignment.PersonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "person does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve person")
	}

	exists, err := s.actors.ExistsActive(ctx, projectID, assignment.PersonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "person already holds an active role on this project")
	}

	actor := &models.Actor{
		ProjectID: projectID,
		PersonID:  assignment.PersonID,
		Role:      assignment.Role,
		Active:    true,
	}
	if err := s.actors.Create(ctx, actor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign actor")
	}

	s.logger.Info("actor assigned",
		zap.String("project_id", projectID),
		zap.String("person_id", assignment.PersonID),
		zap.String("role", string(assignment.Role)),
	)
	return actor, nil
}

// RemoveActor deactivates a person's active role on a project. Removing the
// last student is refused so every reviewable project keeps one.
func (s *ProjectService) RemoveActor(ctx context.Context, projectID, personID string) error {
	actor, err := s.actors.FindActive(ctx, projectID, personID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "person has no active role on this project")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve actor")
	}

	if actor.Role == models.ActorStudent {
		roster, err := s.actors.ListByProject(ctx, projectID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		students := 0
		for _, a := range roster {
			if a.Role == models.ActorStudent && a.Active {
				students++
			}
		}
		if students <= 1 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot remove the last active student")
		}
	}

	if err := s.actors.Deactivate(ctx, actor.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate actor")
	}
	return nil
}
