package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unigrado/grado-api/internal/models"
)

// ErrStaleStatus signals that the project's current status changed between
// the caller's read and the transactional write. The workflow engine maps it
// to a retryable conflict.
var ErrStaleStatus = errors.New("project status changed since last read")

// ProjectRepository manages persistence for degree projects, including the
// transactional writes of the workflow engine.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns projects matching the provided filters.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.ProjectDetail, int, error) {
	base := `FROM projects p
        JOIN statuses st ON st.id = p.current_status_id
        JOIN programs pr ON pr.id = p.program_id
        JOIN degree_options dg ON dg.id = p.degree_option_id`
	var args []interface{}
	conditions := []string{"1=1"}

	if filter.StatusID != "" {
		conditions = append(conditions, fmt.Sprintf("p.current_status_id = $%d", len(args)+1))
		args = append(args, filter.StatusID)
	}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("p.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(p.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"title":      "p.title",
		"start_date": "p.start_date",
		"created_at": "p.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "p.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.title, p.summary, p.objectives, p.company, p.start_date, p.end_date,
        p.current_status_id, p.degree_option_id, p.program_id, p.created_at, p.updated_at,
        st.name AS status_name, pr.name AS program_name, dg.name AS degree_option_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var projects []models.ProjectDetail
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(p.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// FindByID fetches a project by ID.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	const query = `SELECT id, title, summary, objectives, company, start_date, end_date,
        current_status_id, degree_option_id, program_id, created_at, updated_at
        FROM projects WHERE id = $1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// FindDetailByID fetches a project joined with its catalog names.
func (r *ProjectRepository) FindDetailByID(ctx context.Context, id string) (*models.ProjectDetail, error) {
	const query = `SELECT p.id, p.title, p.summary, p.objectives, p.company, p.start_date, p.end_date,
        p.current_status_id, p.degree_option_id, p.program_id, p.created_at, p.updated_at,
        st.name AS status_name, pr.name AS program_name, dg.name AS degree_option_name
        FROM projects p
        JOIN statuses st ON st.id = p.current_status_id
        JOIN programs pr ON pr.id = p.program_id
        JOIN degree_options dg ON dg.id = p.degree_option_id
        WHERE p.id = $1`
	var detail models.ProjectDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateWithGraph creates a project together with its actor roster and the
// initial audit entry in a single transaction. Used by both single creation
// and each bulk-import row, so a failed row rolls back as a unit.
func (r *ProjectRepository) CreateWithGraph(ctx context.Context, project *models.Project, actors []models.Actor, entry *models.AuditEntry) error {
	now := time.Now().UTC()
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project: %w", err)
	}

	const projectQuery = `INSERT INTO projects (id, title, summary, objectives, company, start_date, end_date,
        current_status_id, degree_option_id, program_id, created_at, updated_at)
        VALUES (:id, :title, :summary, :objectives, :company, :start_date, :end_date,
        :current_status_id, :degree_option_id, :program_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, projectQuery, project); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create project: %w", err)
	}

	const actorQuery = `INSERT INTO actors (id, project_id, person_id, role, assigned_at, active)
        VALUES (:id, :project_id, :person_id, :role, :assigned_at, :active)`
	for i := range actors {
		if actors[i].ID == "" {
			actors[i].ID = uuid.NewString()
		}
		actors[i].ProjectID = project.ID
		if actors[i].AssignedAt.IsZero() {
			actors[i].AssignedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, actorQuery, actors[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create actor: %w", err)
		}
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.ProjectID = project.ID
	entry.CreatedAt = now
	if _, err := tx.NamedExecContext(ctx, insertAuditEntryQuery, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create initial audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create project: %w", err)
	}
	return nil
}

// ApplyTransition appends the audit entry and moves the project to the
// entry's new status in one transaction. The status update is guarded by the
// expected current status; if another reviewer already moved the project the
// update matches no row and the transaction is rolled back with ErrStaleStatus.
func (r *ProjectRepository) ApplyTransition(ctx context.Context, entry *models.AuditEntry, expected models.StatusID) error {
	if entry.NewStatusID == nil {
		return fmt.Errorf("apply transition: entry has no target status")
	}
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}

	const updateQuery = `UPDATE projects SET current_status_id = $1, updated_at = $2
        WHERE id = $3 AND current_status_id = $4`
	result, err := tx.ExecContext(ctx, updateQuery, *entry.NewStatusID, now, entry.ProjectID, expected)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update project status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return ErrStaleStatus
	}

	if _, err := tx.NamedExecContext(ctx, insertAuditEntryQuery, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("append audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// ExistsByTitle checks whether a project with the given title already exists.
func (r *ProjectRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	const query = `SELECT 1 FROM projects WHERE LOWER(title) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, title); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check project title: %w", err)
	}
	return true, nil
}
