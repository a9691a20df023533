package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unigrado/grado-api/internal/models"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

type gateActorRepository interface {
	FindActive(ctx context.Context, projectID, personID string) (*models.Actor, error)
}

// AuthorizationGate is the single capability check consumed by the workflow
// engine and the bulk import pipeline. A denied attempt produces no side
// effects: callers must return before any write.
type AuthorizationGate struct {
	actors gateActorRepository
	table  *TransitionTable
}

// NewAuthorizationGate constructs an AuthorizationGate.
func NewAuthorizationGate(actors gateActorRepository, table *TransitionTable) *AuthorizationGate {
	return &AuthorizationGate{actors: actors, table: table}
}

// Authorize resolves the acting person's active actor row on the project and
// verifies the actor's role may invoke the action.
func (g *AuthorizationGate) Authorize(ctx context.Context, projectID, personID string, action models.ActionTypeID) (*models.Actor, error) {
	actor, err := g.actors.FindActive(ctx, projectID, personID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotAnActor
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve project actor")
	}
	if !g.table.RoleAllowed(action, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden,
			"role "+string(actor.Role)+" may not perform "+string(action))
	}
	return actor, nil
}

// AuthorizeGlobal checks the session's global role claim for actions that are
// not scoped to one project, such as project creation and bulk import.
func (g *AuthorizationGate) AuthorizeGlobal(claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin && claims.Role != models.RoleCoordinator {
		return appErrors.Clone(appErrors.ErrForbidden, "administrative role required")
	}
	return nil
}
