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

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "person_id", "email", "password_hash", "full_name", "role",
		"active", "last_login", "created_at", "updated_at",
	}).AddRow("usr-1", "per-1", "laura@uni.edu", "hash", "Laura Gómez", "COORDINADOR", true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, person_id, email")).
		WithArgs("laura@uni.edu").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "laura@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, "per-1", user.PersonID)
	assert.Equal(t, models.RoleCoordinator, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{
		UserID:    "usr-1",
		Token:     "tok-abc",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	assert.NotEmpty(t, token.ID)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at"}).
		AddRow(token.ID, "usr-1", "tok-abc", token.ExpiresAt, token.CreatedAt, false, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token")).
		WithArgs("tok-abc").
		WillReturnRows(rows)

	stored, err := repo.FindRefreshToken(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", stored.UserID)
	assert.False(t, stored.Revoked)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = true")).
		WithArgs(token.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), token.ID, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateLastLogin(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	ts := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login")).
		WithArgs("usr-1", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), "usr-1", ts))
	require.NoError(t, mock.ExpectationsWereMet())
}
