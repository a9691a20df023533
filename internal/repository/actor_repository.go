package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unigrado/grado-api/internal/models"
)

// ActorRepository manages the registry of person-project-role assignments.
type ActorRepository struct {
	db *sqlx.DB
}

// NewActorRepository constructs an ActorRepository.
func NewActorRepository(db *sqlx.DB) *ActorRepository {
	return &ActorRepository{db: db}
}

// FindActive resolves the active actor row for a person on a project.
func (r *ActorRepository) FindActive(ctx context.Context, projectID, personID string) (*models.Actor, error) {
	const query = `SELECT id, project_id, person_id, role, assigned_at, active
        FROM actors WHERE project_id = $1 AND person_id = $2 AND active = true`
	var actor models.Actor
	if err := r.db.GetContext(ctx, &actor, query, projectID, personID); err != nil {
		return nil, err
	}
	return &actor, nil
}

// ListByProject returns all actors of a project with person identities.
func (r *ActorRepository) ListByProject(ctx context.Context, projectID string) ([]models.ActorDetail, error) {
	const query = `SELECT a.id, a.project_id, a.person_id, a.role, a.assigned_at, a.active,
        pe.full_name, pe.document_id, pe.email
        FROM actors a
        JOIN persons pe ON pe.id = a.person_id
        WHERE a.project_id = $1
        ORDER BY a.assigned_at ASC`
	var actors []models.ActorDetail
	if err := r.db.SelectContext(ctx, &actors, query, projectID); err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	return actors, nil
}

// HasActiveStudent reports whether the project keeps at least one active
// student actor, a precondition for every transition after creation.
func (r *ActorRepository) HasActiveStudent(ctx context.Context, projectID string) (bool, error) {
	const query = `SELECT 1 FROM actors WHERE project_id = $1 AND role = $2 AND active = true LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, projectID, models.ActorStudent); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student actor: %w", err)
	}
	return true, nil
}

// ExistsActive checks whether the person already holds an active role on the project.
func (r *ActorRepository) ExistsActive(ctx context.Context, projectID, personID string) (bool, error) {
	const query = `SELECT 1 FROM actors WHERE project_id = $1 AND person_id = $2 AND active = true LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, projectID, personID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check actor: %w", err)
	}
	return true, nil
}

// Create inserts a new actor assignment.
func (r *ActorRepository) Create(ctx context.Context, actor *models.Actor) error {
	if actor.ID == "" {
		actor.ID = uuid.NewString()
	}
	if actor.AssignedAt.IsZero() {
		actor.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO actors (id, project_id, person_id, role, assigned_at, active)
        VALUES (:id, :project_id, :person_id, :role, :assigned_at, :active)`
	if _, err := r.db.NamedExecContext(ctx, query, actor); err != nil {
		return fmt.Errorf("create actor: %w", err)
	}
	return nil
}

// Deactivate marks an actor assignment inactive. The row itself is kept so
// the audit trail's actor references stay resolvable.
func (r *ActorRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE actors SET active = false WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate actor: %w", err)
	}
	return nil
}
