package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/listenupapp/circulation/internal/ratelimit"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg, err := env.svc.Register(ctx, "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Registered ada.", msg)

	msg, err = env.svc.Register(ctx, "ada", "other")
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	assert.Equal(t, "Username already exists.", msg)

	_, err = env.svc.Register(ctx, " ", "secret")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
	_, err = env.svc.Register(ctx, "bob", "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.Register(ctx, "ada", "secret")
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, ok := env.svc.CurrentUser()
	assert.False(t, ok)

	_, err = env.svc.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	user, err := env.svc.Login(ctx, "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, "usr-ada", user.ID)
	assert.True(t, user.IsAdmin)

	current, ok := env.svc.CurrentUser()
	require.True(t, ok)
	assert.Same(t, user, current)

	session, ok := env.svc.Session()
	require.True(t, ok)
	assert.NotEmpty(t, session.ID)
	assert.Same(t, user, session.User)
}

func TestLogin_ReplacesSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ada")
	first, _ := env.svc.Session()

	env.login(t, "bob")
	second, _ := env.svc.Session()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "usr-bob", second.User.ID)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Logout()

	env.login(t, "ada")
	env.svc.Logout()

	_, ok := env.svc.CurrentUser()
	assert.False(t, ok)
	_, ok = env.svc.Session()
	assert.False(t, ok)
	assert.Contains(t, env.logs.String(), "user logged out")
}

func TestSetCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := &domain.User{ID: "ext-1", Name: "external"}

	env.svc.SetCurrentUser(ctx, user)
	current, ok := env.svc.CurrentUser()
	require.True(t, ok)
	assert.Same(t, user, current)

	env.svc.SetCurrentUser(ctx, nil)
	_, ok = env.svc.CurrentUser()
	assert.False(t, ok)
}

func TestServices_DoNotShareSessions(t *testing.T) {
	a := newTestEnv(t)
	b := newTestEnv(t)

	a.login(t, "ada")

	_, ok := b.svc.CurrentUser()
	assert.False(t, ok)
}

func TestRegister_WithoutCredentialStore(t *testing.T) {
	svc := NewLibraryService(Options{})

	_, err := svc.Register(context.Background(), "ada", "secret")
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
	_, err = svc.Login(context.Background(), "ada", "secret")
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
}

func TestLogin_ThrottlesRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.svc.logins = ratelimit.New(0, 2)
	_, err := env.svc.Register(ctx, "ada", "secret")
	require.NoError(t, err)

	for range 2 {
		_, err = env.svc.Login(ctx, "ada", "wrong")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}

	_, err = env.svc.Login(ctx, " ADA ", "secret")
	require.ErrorIs(t, err, domainerrors.ErrRateLimited)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.IsType(t, domainerrors.RetryDetails{}, domainErr.Details)
	assert.Contains(t, env.logs.String(), "login throttled")

	_, err = env.svc.Login(ctx, "bob", "whatever")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials, "other usernames keep their own budget")
}

func TestLogin_SuccessRefillsBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.svc.logins = ratelimit.New(0, 2)
	_, err := env.svc.Register(ctx, "ada", "secret")
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "ada", "secret")
	require.NoError(t, err)

	for range 2 {
		_, err = env.svc.Login(ctx, "ada", "wrong")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}
}
