package models

import "time"

// ActorRole is the role a person plays on one specific project.
type ActorRole string

const (
	ActorStudent         ActorRole = "ESTUDIANTE"
	ActorAdvisor         ActorRole = "DIRECTOR"
	ActorExternalAdvisor ActorRole = "ASESOR_EXTERNO"
	ActorEvaluator       ActorRole = "JURADO"
	ActorCoordinator     ActorRole = "COORDINADOR"
)

// Actor links a person to a project under a role. A project needs at least
// one active student actor before any transition other than creation.
type Actor struct {
	ID         string    `db:"id" json:"id"`
	ProjectID  string    `db:"project_id" json:"project_id"`
	PersonID   string    `db:"person_id" json:"person_id"`
	Role       ActorRole `db:"role" json:"role"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
	Active     bool      `db:"active" json:"active"`
}

// ActorDetail joins the actor with its person identity for display.
type ActorDetail struct {
	Actor
	FullName   string `db:"full_name" json:"full_name"`
	DocumentID string `db:"document_id" json:"document_id"`
	Email      string `db:"email" json:"email"`
}
