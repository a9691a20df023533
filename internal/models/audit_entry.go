package models

import "time"

// AuditEntry ("seguimiento") is an immutable record of one workflow event on
// a project. Entries are append-only: they are never updated or deleted, and
// for a given project their new-status chain is contiguous with the project's
// current status.
type AuditEntry struct {
	ID               string       `db:"id" json:"id"`
	ProjectID        string       `db:"project_id" json:"project_id"`
	ActorID          *string      `db:"actor_id" json:"actor_id,omitempty"`
	ActionType       ActionTypeID `db:"action_type" json:"action_type"`
	PreviousStatusID *StatusID    `db:"previous_status_id" json:"previous_status_id,omitempty"`
	NewStatusID      *StatusID    `db:"new_status_id" json:"new_status_id,omitempty"`
	Description      string       `db:"description" json:"description"`
	FileRef          *string      `db:"file_ref" json:"file_ref,omitempty"`
	Grade            *float64     `db:"grade" json:"grade,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}
