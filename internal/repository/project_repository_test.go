package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unigrado/grado-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func projectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "summary", "objectives", "company", "start_date", "end_date",
		"current_status_id", "degree_option_id", "program_id", "created_at", "updated_at",
	})
}

func TestProjectRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	now := time.Now()
	rows := projectRows().AddRow("prj-1", "Proyecto", "res", "obj", nil, now, nil,
		"PROPUESTA", "opt-1", "prog-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, summary")).
		WithArgs("prj-1").
		WillReturnRows(rows)

	project, err := repo.FindByID(context.Background(), "prj-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPropuesta, project.CurrentStatusID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateWithGraph(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO projects")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actors")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actors")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	initial := models.StatusPropuesta
	project := &models.Project{Title: "Proyecto", CurrentStatusID: initial, DegreeOptionID: "opt-1", ProgramID: "prog-1", StartDate: time.Now()}
	actors := []models.Actor{
		{PersonID: "per-1", Role: models.ActorStudent, Active: true},
		{PersonID: "per-2", Role: models.ActorAdvisor, Active: true},
	}
	entry := &models.AuditEntry{ActionType: models.ActionCreate, NewStatusID: &initial, Description: "registro"}

	require.NoError(t, repo.CreateWithGraph(context.Background(), project, actors, entry))
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, project.ID, entry.ProjectID)
	assert.Equal(t, project.ID, actors[0].ProjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateWithGraphRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO projects")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actors")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	initial := models.StatusPropuesta
	err := repo.CreateWithGraph(context.Background(),
		&models.Project{Title: "Proyecto", CurrentStatusID: initial},
		[]models.Actor{{PersonID: "per-1", Role: models.ActorStudent, Active: true}},
		&models.AuditEntry{ActionType: models.ActionCreate, NewStatusID: &initial})

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryApplyTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET current_status_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	previous := models.StatusPropuesta
	target := models.StatusEnRevision
	entry := &models.AuditEntry{
		ProjectID:        "prj-1",
		ActionType:       models.ActionApprove,
		PreviousStatusID: &previous,
		NewStatusID:      &target,
		Description:      "aprobado",
	}

	require.NoError(t, repo.ApplyTransition(context.Background(), entry, previous))
	assert.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryApplyTransitionStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET current_status_id")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	previous := models.StatusPropuesta
	target := models.StatusEnRevision
	entry := &models.AuditEntry{
		ProjectID:        "prj-1",
		ActionType:       models.ActionApprove,
		PreviousStatusID: &previous,
		NewStatusID:      &target,
	}

	err := repo.ApplyTransition(context.Background(), entry, previous)
	require.ErrorIs(t, err, ErrStaleStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "title", "summary", "objectives", "company", "start_date", "end_date",
		"current_status_id", "degree_option_id", "program_id", "created_at", "updated_at",
		"status_name", "program_name", "degree_option_name",
	}).AddRow("prj-1", "Proyecto", "res", "obj", nil, now, nil,
		"EN_REVISION", "opt-1", "prog-1", now, now, "En Revisión", "Sistemas", "Investigación")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id, p.title")).
		WithArgs("EN_REVISION").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(p.id)")).
		WithArgs("EN_REVISION").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	projects, total, err := repo.List(context.Background(), models.ProjectFilter{StatusID: models.StatusEnRevision})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, projects, 1)
	assert.Equal(t, "En Revisión", projects[0].StatusName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryExistsByTitle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProjectRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM projects")).
		WithArgs("Proyecto").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByTitle(context.Background(), "Proyecto")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM projects")).
		WithArgs("Otro").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err = repo.ExistsByTitle(context.Background(), "Otro")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
