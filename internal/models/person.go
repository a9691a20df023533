package models

import "time"

// Person is an immutable identity referenced by project actors. People are
// never owned by a project; the same person may act on many projects.
type Person struct {
	ID           string    `db:"id" json:"id"`
	DocumentID   string    `db:"document_id" json:"document_id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}
