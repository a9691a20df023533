package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/pkg/config"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

type stubUserRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	lastLogin     string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id string, _ time.Time) error {
	r.lastLogin = id
	return nil
}

func (r *stubUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = "rt-" + token.Token[:8]
	}
	r.refreshTokens[token.Token] = token
	return nil
}

func (r *stubUserRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := r.refreshTokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	r.revoked = append(r.revoked, id)
	for _, stored := range r.refreshTokens {
		if stored.ID == id {
			stored.Revoked = true
			stored.RevokedAt = &revokedAt
		}
	}
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        15 * time.Minute,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "grado-api",
	}
}

func seedUser(t *testing.T, repo *stubUserRepo, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3creta"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "usr-1",
		PersonID:     "per-1",
		Email:        "laura@uni.edu",
		PasswordHash: string(hash),
		FullName:     "Laura Gómez",
		Role:         models.RoleCoordinator,
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newStubUserRepo()
	user := seedUser(t, repo, true)
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "laura@uni.edu", Password: "s3creta"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.PersonID, resp.User.PersonID)
	assert.Equal(t, user.ID, repo.lastLogin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.PersonID, claims.PersonID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, true)
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "laura@uni.edu", Password: "wrong"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nadie@uni.edu", Password: "s3creta"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, false)
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "laura@uni.edu", Password: "s3creta"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, true)
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "laura@uni.edu", Password: "s3creta"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.Len(t, repo.revoked, 1)

	// The rotated-out token is no longer accepted.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	repo := newStubUserRepo()
	user := seedUser(t, repo, true)
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-stale",
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	_, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, true)

	issuer := NewAuthService(repo, testJWTConfig(), nil, nil)
	login, err := issuer.Login(context.Background(), models.LoginRequest{Email: "laura@uni.edu", Password: "s3creta"})
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Secret = "another-secret"
	verifier := NewAuthService(repo, otherCfg, nil, nil)

	_, err = verifier.ValidateToken(login.AccessToken)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
