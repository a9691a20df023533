package models

import "time"

// Project is a degree-completion work item tracked through its lifecycle.
// CurrentStatusID is derived state: it always equals the new status of the
// chronologically last audit entry and is mutated by the workflow engine only.
type Project struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Summary         string     `db:"summary" json:"summary,omitempty"`
	Objectives      string     `db:"objectives" json:"objectives,omitempty"`
	Company         *string    `db:"company" json:"company,omitempty"`
	StartDate       time.Time  `db:"start_date" json:"start_date"`
	EndDate         *time.Time `db:"end_date" json:"end_date,omitempty"`
	CurrentStatusID StatusID   `db:"current_status_id" json:"current_status_id"`
	DegreeOptionID  string     `db:"degree_option_id" json:"degree_option_id"`
	ProgramID       string     `db:"program_id" json:"program_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ProjectDetail joins a project with its catalog names and actor roster.
type ProjectDetail struct {
	Project
	StatusName       string        `db:"status_name" json:"status_name"`
	ProgramName      string        `db:"program_name" json:"program_name"`
	DegreeOptionName string        `db:"degree_option_name" json:"degree_option_name"`
	Actors           []ActorDetail `db:"-" json:"actors,omitempty"`
}

// ProjectFilter captures filtering criteria for listing projects.
type ProjectFilter struct {
	StatusID  StatusID
	ProgramID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
