package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unigrado/grado-api/internal/models"
)

// PersonRepository manages persistence for person identities.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// FindByID fetches a person by ID.
func (r *PersonRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	const query = `SELECT id, document_id, full_name, email, phone, registered_at
        FROM persons WHERE id = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, id); err != nil {
		return nil, err
	}
	return &person, nil
}

// FindByDocumentID fetches a person by institutional document number.
func (r *PersonRepository) FindByDocumentID(ctx context.Context, documentID string) (*models.Person, error) {
	const query = `SELECT id, document_id, full_name, email, phone, registered_at
        FROM persons WHERE document_id = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, documentID); err != nil {
		return nil, err
	}
	return &person, nil
}

// Create inserts a new person record.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	if person.RegisteredAt.IsZero() {
		person.RegisteredAt = time.Now().UTC()
	}
	const query = `INSERT INTO persons (id, document_id, full_name, email, phone, registered_at)
        VALUES (:id, :document_id, :full_name, :email, :phone, :registered_at)`
	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}
