package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unigrado/grado-api/internal/models"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

type stubGateActorRepo struct {
	actor *models.Actor
	err   error
}

func (s *stubGateActorRepo) FindActive(_ context.Context, _, _ string) (*models.Actor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.actor, nil
}

func TestAuthorizeResolvesActor(t *testing.T) {
	repo := &stubGateActorRepo{actor: &models.Actor{ID: "act-1", Role: models.ActorEvaluator}}
	gate := NewAuthorizationGate(repo, NewTransitionTable())

	actor, err := gate.Authorize(context.Background(), "prj-1", "per-1", models.ActionApprove)

	require.NoError(t, err)
	assert.Equal(t, "act-1", actor.ID)
}

func TestAuthorizeUnknownPerson(t *testing.T) {
	gate := NewAuthorizationGate(&stubGateActorRepo{err: sql.ErrNoRows}, NewTransitionTable())

	_, err := gate.Authorize(context.Background(), "prj-1", "per-x", models.ActionApprove)

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotAnActor))
}

func TestAuthorizeWrongRole(t *testing.T) {
	repo := &stubGateActorRepo{actor: &models.Actor{ID: "act-1", Role: models.ActorStudent}}
	gate := NewAuthorizationGate(repo, NewTransitionTable())

	_, err := gate.Authorize(context.Background(), "prj-1", "per-1", models.ActionApprove)

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestAuthorizeRepoFailure(t *testing.T) {
	gate := NewAuthorizationGate(&stubGateActorRepo{err: errors.New("boom")}, NewTransitionTable())

	_, err := gate.Authorize(context.Background(), "prj-1", "per-1", models.ActionApprove)

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestAuthorizeGlobal(t *testing.T) {
	gate := NewAuthorizationGate(&stubGateActorRepo{}, NewTransitionTable())

	assert.NoError(t, gate.AuthorizeGlobal(&models.JWTClaims{Role: models.RoleAdmin}))
	assert.NoError(t, gate.AuthorizeGlobal(&models.JWTClaims{Role: models.RoleCoordinator}))

	err := gate.AuthorizeGlobal(&models.JWTClaims{Role: models.RoleUser})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	err = gate.AuthorizeGlobal(nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
