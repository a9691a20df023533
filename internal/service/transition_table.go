package service

import (
	"github.com/unigrado/grado-api/internal/models"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

// TransitionEdge is one legal (action, from) -> to transition.
type TransitionEdge struct {
	Action models.ActionTypeID `json:"action"`
	From   models.StatusID     `json:"from"`
	To     models.StatusID     `json:"to"`
}

// TransitionTable is the single source of truth for the project lifecycle:
// which action is legal from which status, where it leads, and which actor
// roles may invoke it. The table is static and read-only at request time.
type TransitionTable struct {
	edges map[models.ActionTypeID]map[models.StatusID]models.StatusID
	roles map[models.ActionTypeID][]models.ActorRole
	order []models.StatusID
}

// NewTransitionTable builds the lifecycle graph:
//
//	Propuesta -> En Revisión -> Aprobado -> En Desarrollo -> Finalizado
//
// APPROVE advances one step, REQUEST_CORRECTIONS returns to the immediately
// preceding non-terminal status, REJECT terminates from the two earliest
// statuses, GRADE closes a project in development. Finalizado and Rechazado
// are terminal.
func NewTransitionTable() *TransitionTable {
	reviewers := []models.ActorRole{
		models.ActorAdvisor,
		models.ActorExternalAdvisor,
		models.ActorEvaluator,
		models.ActorCoordinator,
	}

	return &TransitionTable{
		edges: map[models.ActionTypeID]map[models.StatusID]models.StatusID{
			models.ActionApprove: {
				models.StatusPropuesta:  models.StatusEnRevision,
				models.StatusEnRevision: models.StatusAprobado,
				models.StatusAprobado:   models.StatusEnDesarrollo,
			},
			models.ActionRequestCorrections: {
				models.StatusEnRevision:   models.StatusPropuesta,
				models.StatusAprobado:     models.StatusEnRevision,
				models.StatusEnDesarrollo: models.StatusAprobado,
			},
			models.ActionReject: {
				models.StatusPropuesta:  models.StatusRechazado,
				models.StatusEnRevision: models.StatusRechazado,
			},
			models.ActionGrade: {
				models.StatusEnDesarrollo: models.StatusFinalizado,
			},
		},
		roles: map[models.ActionTypeID][]models.ActorRole{
			models.ActionSubmitIteration:    {models.ActorStudent},
			models.ActionApprove:            reviewers,
			models.ActionRequestCorrections: reviewers,
			models.ActionReject:             {models.ActorEvaluator, models.ActorCoordinator},
			models.ActionGrade:              {models.ActorEvaluator, models.ActorCoordinator},
		},
		order: []models.StatusID{
			models.StatusPropuesta,
			models.StatusEnRevision,
			models.StatusAprobado,
			models.StatusEnDesarrollo,
			models.StatusFinalizado,
			models.StatusRechazado,
		},
	}
}

// Target resolves the status an action leads to from the given status.
func (t *TransitionTable) Target(action models.ActionTypeID, from models.StatusID) (models.StatusID, error) {
	targets, ok := t.edges[action]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidTransition, "unknown review action "+string(action))
	}
	to, ok := targets[from]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidTransition,
			"action "+string(action)+" is not allowed from status "+string(from))
	}
	return to, nil
}

// AllowedRoles returns the actor roles that may invoke the action.
func (t *TransitionTable) AllowedRoles(action models.ActionTypeID) []models.ActorRole {
	return t.roles[action]
}

// RoleAllowed reports whether the role may invoke the action.
func (t *TransitionTable) RoleAllowed(action models.ActionTypeID, role models.ActorRole) bool {
	for _, allowed := range t.roles[action] {
		if allowed == role {
			return true
		}
	}
	return false
}

// ReviewActions lists the status-changing actions the table knows about.
func (t *TransitionTable) ReviewActions() []models.ActionTypeID {
	actions := make([]models.ActionTypeID, 0, len(t.edges))
	for _, a := range []models.ActionTypeID{
		models.ActionApprove,
		models.ActionRequestCorrections,
		models.ActionReject,
		models.ActionGrade,
	} {
		if _, ok := t.edges[a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Edges enumerates every legal transition, in catalog order. The enumeration
// lets callers verify lifecycle invariants without invoking the engine.
func (t *TransitionTable) Edges() []TransitionEdge {
	var out []TransitionEdge
	for _, action := range t.ReviewActions() {
		for _, from := range t.order {
			if to, ok := t.edges[action][from]; ok {
				out = append(out, TransitionEdge{Action: action, From: from, To: to})
			}
		}
	}
	return out
}

// InitialStatus is the status assigned at project creation: the lowest-order
// non-terminal entry of the catalog.
func (t *TransitionTable) InitialStatus() models.StatusID {
	return models.StatusPropuesta
}

// IsTerminal reports whether the status has no outgoing edges.
func (t *TransitionTable) IsTerminal(status models.StatusID) bool {
	return status == models.StatusFinalizado || status == models.StatusRechazado
}
