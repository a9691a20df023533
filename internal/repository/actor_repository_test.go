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

func TestActorRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewActorRepository(db)
	rows := sqlmock.NewRows([]string{"id", "project_id", "person_id", "role", "assigned_at", "active"}).
		AddRow("act-1", "prj-1", "per-1", "JURADO", time.Now(), true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, person_id, role")).
		WithArgs("prj-1", "per-1").
		WillReturnRows(rows)

	actor, err := repo.FindActive(context.Background(), "prj-1", "per-1")
	require.NoError(t, err)
	assert.Equal(t, models.ActorEvaluator, actor.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActorRepositoryHasActiveStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewActorRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM actors")).
		WithArgs("prj-1", models.ActorStudent).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	ok, err := repo.HasActiveStudent(context.Background(), "prj-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM actors")).
		WithArgs("prj-2", models.ActorStudent).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	ok, err = repo.HasActiveStudent(context.Background(), "prj-2")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActorRepositoryListByProject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewActorRepository(db)
	rows := sqlmock.NewRows([]string{"id", "project_id", "person_id", "role", "assigned_at", "active", "full_name", "document_id", "email"}).
		AddRow("act-1", "prj-1", "per-1", "ESTUDIANTE", time.Now(), true, "Laura Gómez", "100", "laura@uni.edu").
		AddRow("act-2", "prj-1", "per-2", "DIRECTOR", time.Now(), true, "Jorge Díaz", "200", "jorge@uni.edu")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.id, a.project_id")).
		WithArgs("prj-1").
		WillReturnRows(rows)

	actors, err := repo.ListByProject(context.Background(), "prj-1")
	require.NoError(t, err)
	require.Len(t, actors, 2)
	assert.Equal(t, "Laura Gómez", actors[0].FullName)
	assert.Equal(t, models.ActorAdvisor, actors[1].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActorRepositoryCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewActorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actors")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	actor := &models.Actor{ProjectID: "prj-1", PersonID: "per-3", Role: models.ActorEvaluator, Active: true}
	require.NoError(t, repo.Create(context.Background(), actor))
	assert.NotEmpty(t, actor.ID)
	assert.False(t, actor.AssignedAt.IsZero())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE actors SET active = false")).
		WithArgs(actor.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Deactivate(context.Background(), actor.ID))
	require.NoError(t, mock.ExpectationsWereMet())
}
