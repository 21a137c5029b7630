package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userhub/backend/internal/models"
	"go.uber.org/zap"
)

func TestRoleService_Predicates(t *testing.T) {
	svc := NewRoleService(newFakeAccounts(), nil, testAudit(), zap.NewNop())

	user := &models.Account{Roles: models.Roles{models.RoleUser}}
	admin := &models.Account{Roles: models.Roles{models.RoleUser, models.RoleAdmin}}
	super := &models.Account{Roles: models.Roles{models.RoleSuperAdmin, models.RoleAdmin}}
	none := &models.Account{Roles: models.Roles{"ROLE_GUEST"}}

	assert.True(t, svc.IsUser(user))
	assert.False(t, svc.IsAdmin(user))
	assert.True(t, svc.IsAdmin(admin))
	assert.True(t, svc.IsAdmin(super))
	assert.True(t, svc.IsSuperAdmin(super))
	assert.False(t, svc.IsSuperAdmin(admin))
	assert.False(t, svc.HasRole(nil, models.RoleUser))

	assert.Equal(t, models.RoleUser, svc.GetUserType(user))
	assert.Equal(t, models.RoleAdmin, svc.GetUserType(admin))
	assert.Equal(t, models.RoleSuperAdmin, svc.GetUserType(super))
	assert.Equal(t, "", svc.GetUserType(none))
}

func TestRoleService_Landing(t *testing.T) {
	svc := NewRoleService(newFakeAccounts(), nil, testAudit(), zap.NewNop())

	assert.Equal(t, LandingEnrollment, svc.Landing(&models.Account{Roles: models.Roles{models.RoleAdmin}}))
	assert.Equal(t, LandingAdminDashboard, svc.Landing(&models.Account{IsVerified: true, Roles: models.Roles{models.RoleAdmin}}))
	assert.Equal(t, LandingAdminDashboard, svc.Landing(&models.Account{IsVerified: true, Roles: models.Roles{models.RoleSuperAdmin}}))
	assert.Equal(t, LandingUserDashboard, svc.Landing(&models.Account{IsVerified: true, Roles: models.Roles{models.RoleUser}}))
	assert.Equal(t, LandingEnrollment, svc.Landing(nil))
}

func TestRoleService_AddRemove(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccounts()
	svc := NewRoleService(repo, nil, testAudit(), zap.NewNop())

	acct := repo.seed(&models.Account{Name: "Alice", Email: "a@x.com", Roles: models.Roles{models.RoleUser}})
	blocked := repo.seed(&models.Account{Name: "Bob", Email: "b@x.com", IsBlocked: true})

	t.Run("add is idempotent", func(t *testing.T) {
		require.NoError(t, svc.AddRoleToUser(ctx, acct.ID, models.RoleAdmin))
		require.NoError(t, svc.AddRoleToUser(ctx, acct.ID, models.RoleAdmin))

		roles, err := svc.GetUserRoles(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{models.RoleUser, models.RoleAdmin}, roles)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, svc.RemoveRoleFromUser(ctx, acct.ID, models.RoleAdmin))
		require.NoError(t, svc.RemoveRoleFromUser(ctx, acct.ID, models.RoleAdmin))

		roles, err := svc.GetUserRoles(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{models.RoleUser}, roles)
	})

	t.Run("removing the last role restores the default", func(t *testing.T) {
		require.NoError(t, svc.RemoveRoleFromUser(ctx, acct.ID, models.RoleUser))
		assert.Equal(t, models.Roles{models.RoleUser}, repo.get(acct.ID).Roles)
	})

	t.Run("unknown role", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddRoleToUser(ctx, acct.ID, "ROLE_ROOT"), ErrUnknownRole)
	})

	t.Run("blocked accounts cannot be promoted", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddRoleToUser(ctx, blocked.ID, models.RoleAdmin), ErrRoleConflict)
		assert.Equal(t, models.Roles{models.RoleUser}, repo.get(blocked.ID).Roles)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := svc.GetUserRoles(ctx, 999)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestRoleService_RefreshesSignedInAccount(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccounts()
	session := NewSession()
	svc := NewRoleService(repo, session, testAudit(), zap.NewNop())

	me := repo.seed(&models.Account{Name: "Alice", Email: "a@x.com", IsVerified: true})
	other := repo.seed(&models.Account{Name: "Bob", Email: "b@x.com"})
	session.Set(me)

	require.NoError(t, svc.AddRoleToUser(ctx, me.ID, models.RoleAdmin))
	assert.True(t, svc.IsAdmin(session.Current()))

	require.NoError(t, svc.AddRoleToUser(ctx, other.ID, models.RoleAdmin))
	assert.Equal(t, me.ID, session.Current().ID)

	require.NoError(t, svc.RemoveRoleFromUser(ctx, me.ID, models.RoleAdmin))
	assert.False(t, svc.IsAdmin(session.Current()))
	assert.Equal(t, models.Roles{models.RoleUser}, session.Current().Roles)
}
