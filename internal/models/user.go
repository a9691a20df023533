package models

import "time"

// GlobalRole is the application-wide role carried by a session, used for
// actions not scoped to a single project (bulk import, administration).
type GlobalRole string

const (
	RoleAdmin       GlobalRole = "ADMIN"
	RoleCoordinator GlobalRole = "COORDINADOR"
	RoleUser        GlobalRole = "USUARIO"
)

// User represents an application account stored in the users table. Each
// account is linked to the person it authenticates.
type User struct {
	ID           string     `db:"id" json:"id"`
	PersonID     string     `db:"person_id" json:"person_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         GlobalRole `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// RefreshToken is a persisted refresh credential.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}
