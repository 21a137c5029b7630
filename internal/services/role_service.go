package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/userhub/backend/internal/audit"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
)

// Landing names the screen a signed-in account is routed to.
type Landing string

const (
	LandingEnrollment     Landing = "enrollment"
	LandingAdminDashboard Landing = "admin-dashboard"
	LandingUserDashboard  Landing = "user-dashboard"
)

// userTypePrecedence is evaluated in order; first match wins.
var userTypePrecedence = []string{models.RoleSuperAdmin, models.RoleAdmin, models.RoleUser}

type RoleService struct {
	accounts AccountRepository
	session  *Session
	audit    *audit.Logger
	logger   *zap.Logger
}

func NewRoleService(accounts AccountRepository, session *Session, auditLog *audit.Logger, logger *zap.Logger) *RoleService {
	return &RoleService{
		accounts: accounts,
		session:  session,
		audit:    auditLog,
		logger:   logger.Named("roles"),
	}
}

func (s *RoleService) GetUserRoles(ctx context.Context, id int) ([]string, error) {
	acct, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return []string(acct.Roles), nil
}

// HasRole checks the roles carried by acct; it does not re-read storage.
func (s *RoleService) HasRole(acct *models.Account, role string) bool {
	return acct != nil && acct.Roles.Contains(role)
}

// IsAdmin is true for admins and super-admins.
func (s *RoleService) IsAdmin(acct *models.Account) bool {
	return s.HasRole(acct, models.RoleAdmin) || s.HasRole(acct, models.RoleSuperAdmin)
}

func (s *RoleService) IsSuperAdmin(acct *models.Account) bool {
	return s.HasRole(acct, models.RoleSuperAdmin)
}

func (s *RoleService) IsUser(acct *models.Account) bool {
	return s.HasRole(acct, models.RoleUser)
}

// GetUserType returns the highest-priority role tag held, or "" when none match.
func (s *RoleService) GetUserType(acct *models.Account) string {
	for _, role := range userTypePrecedence {
		if s.HasRole(acct, role) {
			return role
		}
	}
	return ""
}

// Landing decides where a freshly signed-in account goes.
func (s *RoleService) Landing(acct *models.Account) Landing {
	switch {
	case acct == nil || !acct.IsVerified:
		return LandingEnrollment
	case s.IsAdmin(acct):
		return LandingAdminDashboard
	default:
		return LandingUserDashboard
	}
}

// AddRoleToUser is a no-op when the role is already present.
func (s *RoleService) AddRoleToUser(ctx context.Context, id int, role string) error {
	if !models.IsKnownRole(role) {
		return ErrUnknownRole
	}
	acct, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if acct.Roles.Contains(role) {
		return nil
	}
	if acct.IsBlocked && role != models.RoleUser {
		return ErrRoleConflict
	}
	return s.saveRoles(ctx, acct, acct.Roles.With(role))
}

// RemoveRoleFromUser is a no-op when the role is absent. Removing the last
// role leaves the account with the default role.
func (s *RoleService) RemoveRoleFromUser(ctx context.Context, id int, role string) error {
	if !models.IsKnownRole(role) {
		return ErrUnknownRole
	}
	acct, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !acct.Roles.Contains(role) {
		return nil
	}
	return s.saveRoles(ctx, acct, acct.Roles.Without(role))
}

func (s *RoleService) saveRoles(ctx context.Context, acct *models.Account, roles models.Roles) error {
	roles = roles.Normalize()
	if err := s.accounts.UpdateRoles(ctx, acct.ID, roles); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update roles: %w", err)
	}
	if s.session != nil {
		updated := acct.Clone()
		updated.Roles = roles
		s.session.Refresh(updated)
	}
	s.audit.LogSuccess(audit.EventRoleChanged, 0, acct.ID, map[string]string{"roles": roles.Encode()})
	s.logger.Info("roles updated", zap.Int("account_id", acct.ID), zap.Strings("roles", roles))
	return nil
}

func (s *RoleService) load(ctx context.Context, id int) (*models.Account, error) {
	acct, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acct, nil
}
