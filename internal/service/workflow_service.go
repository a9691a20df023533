package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/internal/repository"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

type workflowProjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	FindDetailByID(ctx context.Context, id string) (*models.ProjectDetail, error)
	ApplyTransition(ctx context.Context, entry *models.AuditEntry, expected models.StatusID) error
}

type workflowAuditRepository interface {
	InsertGuarded(ctx context.Context, entry *models.AuditEntry, expected models.StatusID) error
	ListByProject(ctx context.Context, projectID string) ([]models.AuditEntry, error)
}

type workflowActorRepository interface {
	HasActiveStudent(ctx context.Context, projectID string) (bool, error)
}

type actorAuthorizer interface {
	Authorize(ctx context.Context, projectID, personID string, action models.ActionTypeID) (*models.Actor, error)
}

// BlobStorage stores uploaded iteration files and returns an opaque reference.
// Files are written before the owning transaction commits; orphaned blobs on
// rollback are accepted.
type BlobStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// Notifier receives status-change events. Implementations must not block the
// calling request; delivery is fire-and-forget and never awaited.
type Notifier interface {
	NotifyStatusChange(project *models.Project, entry *models.AuditEntry)
}

// SubmitIterationRequest is a student's work-in-progress submission.
type SubmitIterationRequest struct {
	Description string `validate:"required"`
	Filename    string `validate:"required"`
	File        io.Reader
}

// ReviewTransitionRequest is an evaluator's decision on a project. The caller
// supplies the status it last observed; a mismatch with the stored status
// yields a retryable conflict and no write.
type ReviewTransitionRequest struct {
	ActionType     models.ActionTypeID `json:"action_type" validate:"required"`
	Description    string              `json:"description" validate:"required"`
	ExpectedStatus models.StatusID     `json:"expected_current_status" validate:"required"`
	Grade          *float64            `json:"grade,omitempty"`
	Filename       string              `json:"-"`
	File           io.Reader           `json:"-"`
}

// ReviewTransitionResult pairs the transitioned project with its new entry.
type ReviewTransitionResult struct {
	Project *models.ProjectDetail `json:"project"`
	Entry   *models.AuditEntry    `json:"entry"`
}

// WorkflowService executes the project lifecycle: iteration submissions,
// review transitions and history reads. All status mutations flow through
// here; nothing else writes Project.CurrentStatusID.
type WorkflowService struct {
	projects  workflowProjectRepository
	audit     workflowAuditRepository
	actors    workflowActorRepository
	gate      actorAuthorizer
	table     *TransitionTable
	storage   BlobStorage
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkflowService constructs a WorkflowService.
func NewWorkflowService(
	projects workflowProjectRepository,
	audit workflowAuditRepository,
	actors workflowActorRepository,
	gate actorAuthorizer,
	table *TransitionTable,
	storage BlobStorage,
	notifier Notifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		projects:  projects,
		audit:     audit,
		actors:    actors,
		gate:      gate,
		table:     table,
		storage:   storage,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
	}
}

// SubmitIteration appends an audit entry recording a student submission. The
// project status is left untouched; advancement is decided by a later review.
// The entry is written only while the status it records is still current, so
// a review landing in between yields a retryable conflict instead of a stale
// trail entry.
func (s *WorkflowService) SubmitIteration(ctx context.Context, projectID, personID string, req SubmitIterationRequest) (*models.AuditEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid iteration payload")
	}
	if req.File == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "iteration file is required")
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	actor, err := s.gate.Authorize(ctx, projectID, personID, models.ActionSubmitIteration)
	if err != nil {
		return nil, err
	}

	if s.table.IsTerminal(project.CurrentStatusID) {
		return nil, appErrors.Clone(appErrors.ErrTerminalStatus,
			"project is already "+string(project.CurrentStatusID))
	}

	fileRef, err := s.saveAttachment(projectID, req.Filename, req.File)
	if err != nil {
		return nil, err
	}

	current := project.CurrentStatusID
	entry := &models.AuditEntry{
		ProjectID:        projectID,
		ActorID:          &actor.ID,
		ActionType:       models.ActionSubmitIteration,
		PreviousStatusID: &current,
		NewStatusID:      &current,
		Description:      req.Description,
		FileRef:          &fileRef,
	}
	if err := s.audit.InsertGuarded(ctx, entry, current); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "project was reviewed concurrently, refetch and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record iteration")
	}

	s.logger.Info("iteration submitted",
		zap.String("project_id", projectID),
		zap.String("actor_id", actor.ID),
		zap.String("file_ref", fileRef),
	)
	return entry, nil
}

// ReviewTransition executes a status-changing review decision. The audit
// entry append and the status update happen in one transaction; a concurrent
// reviewer losing the race receives a conflict and leaves no entry behind.
func (s *WorkflowService) ReviewTransition(ctx context.Context, projectID, personID string, req ReviewTransitionRequest) (*ReviewTransitionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.ActionType == models.ActionGrade && req.Grade == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a numeric grade is required to close the project")
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	actor, err := s.gate.Authorize(ctx, projectID, personID, req.ActionType)
	if err != nil {
		return nil, err
	}

	hasStudent, err := s.actors.HasActiveStudent(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify project roster")
	}
	if !hasStudent {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "project has no active student actor")
	}

	if req.ExpectedStatus != project.CurrentStatusID {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			"project status is "+string(project.CurrentStatusID)+", not "+string(req.ExpectedStatus))
	}

	target, err := s.table.Target(req.ActionType, project.CurrentStatusID)
	if err != nil {
		return nil, err
	}

	var fileRef *string
	if req.File != nil {
		ref, err := s.saveAttachment(projectID, req.Filename, req.File)
		if err != nil {
			return nil, err
		}
		fileRef = &ref
	}

	previous := project.CurrentStatusID
	entry := &models.AuditEntry{
		ProjectID:        projectID,
		ActorID:          &actor.ID,
		ActionType:       req.ActionType,
		PreviousStatusID: &previous,
		NewStatusID:      &target,
		Description:      req.Description,
		FileRef:          fileRef,
		Grade:            req.Grade,
	}
	if err := s.projects.ApplyTransition(ctx, entry, req.ExpectedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "project was reviewed concurrently, refetch and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	detail, err := s.projects.FindDetailByID(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project detail")
	}

	if s.notifier != nil {
		s.notifier.NotifyStatusChange(&detail.Project, entry)
	}

	s.logger.Info("project transitioned",
		zap.String("project_id", projectID),
		zap.String("action", string(req.ActionType)),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
	)
	return &ReviewTransitionResult{Project: detail, Entry: entry}, nil
}

// History returns the project's audit trail in chronological order.
func (s *WorkflowService) History(ctx context.Context, projectID string) ([]models.AuditEntry, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	entries, err := s.audit.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return entries, nil
}

func (s *WorkflowService) saveAttachment(projectID, filename string, r io.Reader) (string, error) {
	name := filepath.Base(filename)
	ref := fmt.Sprintf("projects/%s/%d_%s_%s", projectID, time.Now().UTC().Unix(), uuid.NewString()[:8], name)
	stored, err := s.storage.SaveStream(ref, r)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}
	return stored, nil
}
