package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unigrado/grado-api/internal/models"
)

// CatalogRepository reads the read-mostly reference catalogs: lifecycle
// statuses, action types, faculties, programs and degree options. Catalogs
// are seeded data; nothing here mutates them at request time.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListStatuses returns the status catalog ordered by its lifecycle index.
func (r *CatalogRepository) ListStatuses(ctx context.Context) ([]models.Status, error) {
	const query = `SELECT id, name, order_index, terminal FROM statuses ORDER BY order_index ASC`
	var statuses []models.Status
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// FindStatus fetches one status catalog entry.
func (r *CatalogRepository) FindStatus(ctx context.Context, id models.StatusID) (*models.Status, error) {
	const query = `SELECT id, name, order_index, terminal FROM statuses WHERE id = $1`
	var status models.Status
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		return nil, err
	}
	return &status, nil
}

// FindStatusByName fetches a status by display name, used by the bulk import
// pipeline to resolve the Status column.
func (r *CatalogRepository) FindStatusByName(ctx context.Context, name string) (*models.Status, error) {
	const query = `SELECT id, name, order_index, terminal FROM statuses WHERE LOWER(name) = LOWER($1)`
	var status models.Status
	if err := r.db.GetContext(ctx, &status, query, name); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListActionTypes returns the workflow action catalog.
func (r *CatalogRepository) ListActionTypes(ctx context.Context) ([]models.ActionType, error) {
	const query = `SELECT id, name, description FROM action_types ORDER BY id ASC`
	var actions []models.ActionType
	if err := r.db.SelectContext(ctx, &actions, query); err != nil {
		return nil, fmt.Errorf("list action types: %w", err)
	}
	return actions, nil
}

// ListPrograms returns all academic programs.
func (r *CatalogRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, name, faculty_id FROM programs ORDER BY name ASC`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindProgramByName fetches a program by display name.
func (r *CatalogRepository) FindProgramByName(ctx context.Context, name string) (*models.Program, error) {
	const query = `SELECT id, name, faculty_id FROM programs WHERE LOWER(name) = LOWER($1)`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, name); err != nil {
		return nil, err
	}
	return &program, nil
}

// ListDegreeOptions returns the degree options offered by a program.
func (r *CatalogRepository) ListDegreeOptions(ctx context.Context, programID string) ([]models.DegreeOption, error) {
	const query = `SELECT id, name, program_id FROM degree_options WHERE program_id = $1 ORDER BY name ASC`
	var options []models.DegreeOption
	if err := r.db.SelectContext(ctx, &options, query, programID); err != nil {
		return nil, fmt.Errorf("list degree options: %w", err)
	}
	return options, nil
}

// FindDegreeOptionByName fetches a degree option by name scoped to a program.
func (r *CatalogRepository) FindDegreeOptionByName(ctx context.Context, programID, name string) (*models.DegreeOption, error) {
	const query = `SELECT id, name, program_id FROM degree_options
        WHERE program_id = $1 AND LOWER(name) = LOWER($2)`
	var option models.DegreeOption
	if err := r.db.GetContext(ctx, &option, query, programID, name); err != nil {
		return nil, err
	}
	return &option, nil
}
