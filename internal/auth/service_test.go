package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/testutil"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := testutil.NewStore(t)
	return NewService(store, NewTokenIssuer(testSecret, time.Hour)), store
}

func TestAuthenticate_Success(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	testutil.CreateUser(t, store, "janah", "s3nha", models.RoleOperator, "Contagem")

	actor, err := svc.Authenticate(ctx, "janah", "s3nha")
	require.NoError(t, err)
	require.Equal(t, "janah", actor.Login)
	require.Equal(t, models.RoleOperator, actor.Role)
	require.Equal(t, "Contagem", actor.UnitName())

	u, err := store.Users().GetByLogin(ctx, "janah")
	require.NoError(t, err)
	require.NotNil(t, u.LastLoginAt)
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	testutil.CreateUser(t, store, "janah", "s3nha", models.RoleOperator, "Contagem")
	testutil.CreateUser(t, store, "inativo", "s3nha", models.RoleOperator, "Contagem")
	require.NoError(t, store.Users().Update(ctx, "inativo", map[string]any{"ativo": false}))

	attempts := []struct{ login, password string }{
		{"ghost", "s3nha"},
		{"janah", "errada"},
		{"Janah", "s3nha"},
		{"janah", ""},
		{"inativo", "s3nha"},
	}

	var messages []string
	for _, a := range attempts {
		_, err := svc.Authenticate(ctx, a.login, a.password)
		require.True(t, errors.Is(err, apperr.ErrInvalidCredentials), "%s: %v", a.login, err)
		require.Same(t, apperr.ErrInvalidCredentials, err)
		messages = append(messages, apperr.PublicMessage(err))
	}
	for _, m := range messages {
		require.Equal(t, messages[0], m)
	}
}

func TestLoginAndResolve(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	testutil.CreateUser(t, store, "admin", "20e10", models.RoleAdmin, "")

	session, err := svc.Login(ctx, "admin", "20e10")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.True(t, session.Actor.IsAdmin())

	actor, claims, err := svc.Resolve(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, "admin", actor.Login)
	require.NotEmpty(t, claims.ID)
}

func TestResolve_ReloadsUser(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	testutil.CreateUser(t, store, "janah", "s3nha", models.RoleOperator, "Contagem")

	session, err := svc.Login(ctx, "janah", "s3nha")
	require.NoError(t, err)

	require.NoError(t, store.Users().Update(ctx, "janah", map[string]any{"unidade": "Belo Horizonte"}))
	actor, _, err := svc.Resolve(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, "Belo Horizonte", actor.UnitName())

	require.NoError(t, store.Users().Update(ctx, "janah", map[string]any{"ativo": false}))
	_, _, err = svc.Resolve(ctx, session.Token)
	require.True(t, errors.Is(err, apperr.ErrInvalidCredentials))
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	testutil.CreateUser(t, store, "admin", "20e10", models.RoleAdmin, "")

	session, err := svc.Login(ctx, "admin", "20e10")
	require.NoError(t, err)
	_, claims, err := svc.Resolve(ctx, session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	require.NoError(t, svc.Logout(ctx, claims))

	_, _, err = svc.Resolve(ctx, session.Token)
	require.True(t, errors.Is(err, apperr.ErrInvalidCredentials))
}

func TestResolve_RejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	testutil.CreateUser(t, store, "admin", "20e10", models.RoleAdmin, "")
	actor := models.Actor{Login: "admin", Role: models.RoleAdmin}

	other := NewTokenIssuer("another-secret-another-secret-xx", time.Hour)
	forged, _, err := other.Issue(actor)
	require.NoError(t, err)
	_, _, err = svc.Resolve(ctx, forged)
	require.True(t, errors.Is(err, apperr.ErrInvalidCredentials))

	svc.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := svc.tokens.Issue(actor)
	require.NoError(t, err)
	svc.tokens.now = time.Now
	_, _, err = svc.Resolve(ctx, old)
	require.True(t, errors.Is(err, apperr.ErrInvalidCredentials))

	_, _, err = svc.Resolve(ctx, "not-a-token")
	require.True(t, errors.Is(err, apperr.ErrInvalidCredentials))
}
