package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unigrado/grado-api/internal/models"
)

func TestAuditEntryRepositoryInsertGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditEntryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("WHERE EXISTS (SELECT 1 FROM projects")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	status := models.StatusEnRevision
	entry := &models.AuditEntry{
		ProjectID:        "prj-1",
		ActionType:       models.ActionSubmitIteration,
		PreviousStatusID: &status,
		NewStatusID:      &status,
		Description:      "avance",
	}

	require.NoError(t, repo.InsertGuarded(context.Background(), entry, status))
	assert.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditEntryRepositoryInsertGuardedStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditEntryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	status := models.StatusEnRevision
	entry := &models.AuditEntry{
		ProjectID:   "prj-1",
		ActionType:  models.ActionSubmitIteration,
		Description: "avance tardío",
	}

	err := repo.InsertGuarded(context.Background(), entry, status)
	require.ErrorIs(t, err, ErrStaleStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditEntryRepositoryListByProject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditEntryRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "project_id", "actor_id", "action_type", "previous_status_id",
		"new_status_id", "description", "file_ref", "grade", "created_at",
	}).
		AddRow("1", "prj-1", nil, "CREATE", nil, "PROPUESTA", "registro", nil, nil, now).
		AddRow("2", "prj-1", "act-1", "APPROVE", "PROPUESTA", "EN_REVISION", "aprobado", nil, nil, now.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, actor_id")).
		WithArgs("prj-1").
		WillReturnRows(rows)

	entries, err := repo.ListByProject(context.Background(), "prj-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionCreate, entries[0].ActionType)
	assert.Equal(t, models.StatusEnRevision, *entries[1].NewStatusID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditEntryRepositoryCountByProject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditEntryRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(id) FROM audit_entries")).
		WithArgs("prj-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountByProject(context.Background(), "prj-1")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
