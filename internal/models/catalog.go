package models

// StatusID identifies a lifecycle status. Status rows are seeded reference
// data whose primary keys are the stable codes below.
type StatusID string

const (
	StatusPropuesta    StatusID = "PROPUESTA"
	StatusEnRevision   StatusID = "EN_REVISION"
	StatusAprobado     StatusID = "APROBADO"
	StatusEnDesarrollo StatusID = "EN_DESARROLLO"
	StatusFinalizado   StatusID = "FINALIZADO"
	StatusRechazado    StatusID = "RECHAZADO"
)

// Status is a catalog entry in the project lifecycle, totally ordered by
// OrderIndex. Terminal statuses have no outgoing transitions.
type Status struct {
	ID         StatusID `db:"id" json:"id"`
	Name       string   `db:"name" json:"name"`
	OrderIndex int      `db:"order_index" json:"order_index"`
	Terminal   bool     `db:"terminal" json:"terminal"`
}

// ActionTypeID identifies a workflow action.
type ActionTypeID string

const (
	ActionCreate             ActionTypeID = "CREATE"
	ActionSubmitIteration    ActionTypeID = "SUBMIT_ITERATION"
	ActionApprove            ActionTypeID = "APPROVE"
	ActionRequestCorrections ActionTypeID = "REQUEST_CORRECTIONS"
	ActionReject             ActionTypeID = "REJECT"
	ActionGrade              ActionTypeID = "GRADE"
)

// ActionType is a catalog entry describing one workflow action.
type ActionType struct {
	ID          ActionTypeID `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description,omitempty"`
}

// Faculty groups academic programs.
type Faculty struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Program is an academic program offering degree projects.
type Program struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	FacultyID string `db:"faculty_id" json:"faculty_id"`
}

// DegreeOption is the modality under which a project is developed
// (investigación, pasantía, emprendimiento, ...). Scoped to a program.
type DegreeOption struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	ProgramID string `db:"program_id" json:"program_id"`
}
