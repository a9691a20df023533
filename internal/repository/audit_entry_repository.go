package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unigrado/grado-api/internal/models"
)

// insertAuditEntryQuery is shared with the project repository so that
// transactional writes append entries with identical column semantics.
const insertAuditEntryQuery = `INSERT INTO audit_entries (id, project_id, actor_id, action_type,
    previous_status_id, new_status_id, description, file_ref, grade, created_at)
    VALUES (:id, :project_id, :actor_id, :action_type,
    :previous_status_id, :new_status_id, :description, :file_ref, :grade, :created_at)`

// AuditEntryRepository persists the append-only project audit trail. Entries
// are inserted and read, never updated or deleted.
type AuditEntryRepository struct {
	db *sqlx.DB
}

// NewAuditEntryRepository constructs an AuditEntryRepository.
func NewAuditEntryRepository(db *sqlx.DB) *AuditEntryRepository {
	return &AuditEntryRepository{db: db}
}

// insertAuditEntryGuardedQuery appends an entry only while the project still
// holds the expected status, so a submission racing a concurrent review can
// never record a stale new-status value.
const insertAuditEntryGuardedQuery = `INSERT INTO audit_entries (id, project_id, actor_id, action_type,
    previous_status_id, new_status_id, description, file_ref, grade, created_at)
    SELECT :id, :project_id, :actor_id, :action_type,
    :previous_status_id, :new_status_id, :description, :file_ref, :grade, :created_at
    WHERE EXISTS (SELECT 1 FROM projects WHERE id = :project_id AND current_status_id = :expected_status)`

// InsertGuarded appends an audit entry that does not change project status,
// such as an iteration submission. The insert matches no row when the project
// moved off the expected status, in which case ErrStaleStatus is returned and
// nothing is written.
func (r *AuditEntryRepository) InsertGuarded(ctx context.Context, entry *models.AuditEntry, expected models.StatusID) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	arg := struct {
		*models.AuditEntry
		ExpectedStatus models.StatusID `db:"expected_status"`
	}{AuditEntry: entry, ExpectedStatus: expected}

	result, err := r.db.NamedExecContext(ctx, insertAuditEntryGuardedQuery, arg)
	if err != nil {
		return fmt.Errorf("insert guarded audit entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("guarded insert rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// ListByProject returns a project's audit trail in chronological order.
func (r *AuditEntryRepository) ListByProject(ctx context.Context, projectID string) ([]models.AuditEntry, error) {
	const query = `SELECT id, project_id, actor_id, action_type, previous_status_id, new_status_id,
        description, file_ref, grade, created_at
        FROM audit_entries WHERE project_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, projectID); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// CountByProject returns how many entries a project has accumulated.
func (r *AuditEntryRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	const query = `SELECT COUNT(id) FROM audit_entries WHERE project_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, projectID); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return total, nil
}
