package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
)

func newTestAuthService(repo *fakeAccounts, limiter *AttemptLimiter) (*AuthService, *Session) {
	session := NewSession()
	return NewAuthService(repo, testHasher(), session, limiter, testAudit(), zap.NewNop()), session
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccounts()
	seedAccount(t, repo, models.Account{Name: "Alice", Email: "a@x.com", PhoneNumber: "11111111"}, "rightpass")
	seedAccount(t, repo, models.Account{Name: "Bob", Email: "blocked@x.com", PhoneNumber: "22222222", IsBlocked: true, IsVerified: true}, "rightpass")

	svc, session := newTestAuthService(repo, nil)

	t.Run("unknown email", func(t *testing.T) {
		acct, err := svc.Login(ctx, "nobody@x.com", "rightpass")
		assert.Nil(t, acct)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password is indistinguishable from unknown email", func(t *testing.T) {
		_, errUnknown := svc.Login(ctx, "nobody@x.com", "rightpass")
		_, errWrong := svc.Login(ctx, "a@x.com", "wrongpass")
		assert.Equal(t, errUnknown, errWrong)
		assert.Nil(t, session.Current())
	})

	t.Run("blocked account with wrong password looks invalid", func(t *testing.T) {
		_, err := svc.Login(ctx, "blocked@x.com", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("blocked account with right password", func(t *testing.T) {
		acct, err := svc.Login(ctx, "blocked@x.com", "rightpass")
		assert.Nil(t, acct)
		assert.ErrorIs(t, err, ErrAccountBlocked)
		assert.Nil(t, session.Current())
	})

	t.Run("success installs session", func(t *testing.T) {
		acct, err := svc.Login(ctx, " a@x.com ", "rightpass")
		require.NoError(t, err)
		assert.False(t, acct.IsVerified)
		require.NotNil(t, session.Current())
		assert.Equal(t, acct.ID, session.Current().ID)
		assert.Equal(t, acct.ID, svc.CurrentAccount().ID)
	})

	t.Run("logout clears session", func(t *testing.T) {
		svc.Logout()
		assert.Nil(t, svc.CurrentAccount())
	})

	t.Run("storage failure is a third kind", func(t *testing.T) {
		broken := newFakeAccounts()
		broken.findErr = errors.New("connection refused")
		bsvc, _ := newTestAuthService(broken, nil)

		_, err := bsvc.Login(ctx, "a@x.com", "rightpass")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.NotErrorIs(t, err, ErrAccountBlocked)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccounts()
	svc, _ := newTestAuthService(repo, nil)

	t.Run("creates unverified default-role account", func(t *testing.T) {
		acct, err := svc.Register(ctx, validRegister())
		require.NoError(t, err)
		assert.NotZero(t, acct.ID)

		stored := repo.get(acct.ID)
		assert.Equal(t, models.Roles{models.RoleUser}, stored.Roles)
		assert.False(t, stored.IsVerified)
		assert.False(t, stored.IsBlocked)
		assert.False(t, stored.CreatedAt.IsZero())
		assert.NotEqual(t, "password123", stored.Password)
		assert.True(t, testHasher().Verify("password123", stored.Password))
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := validRegister()
		req.PhoneNumber = "87654321"
		_, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		req := validRegister()
		req.Email = "other@example.com"
		_, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrPhoneTaken)
	})

	t.Run("validation errors never reach storage", func(t *testing.T) {
		broken := newFakeAccounts()
		broken.createErr = errors.New("must not be called")
		bsvc, _ := newTestAuthService(broken, nil)

		req := validRegister()
		req.Email = "bad"
		_, err := bsvc.Register(ctx, req)
		assert.True(t, IsValidationError(err))
	})

	t.Run("insert race reports conflict", func(t *testing.T) {
		racy := newFakeAccounts()
		racy.createErr = store.ErrDuplicate
		rsvc, _ := newTestAuthService(racy, nil)

		_, err := rsvc.Register(ctx, validRegister())
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("exists helpers", func(t *testing.T) {
		ok, err := svc.EmailExists(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.PhoneExists(ctx, "00000000")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccounts()
	svc, _ := newTestAuthService(repo, nil)

	req := validRegister()
	req.Email = "a@x.com"
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	acct, err := svc.Login(ctx, "a@x.com", "wrongpass")
	assert.Nil(t, acct)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	acct, err = svc.Login(ctx, "a@x.com", "password123")
	require.NoError(t, err)
	assert.False(t, acct.IsVerified)
	assert.Equal(t, LandingEnrollment, NewRoleService(repo, nil, testAudit(), zap.NewNop()).Landing(acct))
}
