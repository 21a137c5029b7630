package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/userhub/backend/internal/audit"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
)

// CreateAccountRequest is the admin variant of registration with an explicit role.
type CreateAccountRequest struct {
	RegisterRequest
	Role string `json:"role" validate:"omitempty,oneof=ROLE_USER ROLE_ADMIN ROLE_SUPER_ADMIN"`
}

// ProfileUpdate represents the editable profile fields
type ProfileUpdate struct {
	Name        string  `json:"name" validate:"required,personname"`
	Email       string  `json:"email" validate:"required,email"`
	PhoneNumber string  `json:"phoneNumber" validate:"required,phone8"`
	Image       *string `json:"image,omitempty" validate:"omitempty,max=255"`
}

// ChangePasswordRequest represents the change password payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// AccountService holds the administrative and self-service account operations.
// Every mutation checks the actor's roles before touching storage.
type AccountService struct {
	accounts  AccountRepository
	roles     *RoleService
	hasher    *PasswordHasher
	session   *Session
	validator *ValidationHelper
	audit     *audit.Logger
	logger    *zap.Logger
}

func NewAccountService(accounts AccountRepository, roles *RoleService, hasher *PasswordHasher, session *Session, auditLog *audit.Logger, logger *zap.Logger) *AccountService {
	return &AccountService{
		accounts:  accounts,
		roles:     roles,
		hasher:    hasher,
		session:   session,
		validator: NewValidationHelper(),
		audit:     auditLog,
		logger:    logger.Named("accounts"),
	}
}

func (s *AccountService) requireAdmin(actor *models.Account, op string) error {
	if s.roles.IsAdmin(actor) {
		return nil
	}
	actorID := 0
	if actor != nil {
		actorID = actor.ID
	}
	s.audit.LogFailure(audit.EventAccessDenied, actorID, op, ErrAccessDenied)
	return ErrAccessDenied
}

// ListAccounts returns every account except the actor and super-admins.
func (s *AccountService) ListAccounts(ctx context.Context, actor *models.Account) ([]*models.Account, error) {
	if err := s.requireAdmin(actor, "list accounts"); err != nil {
		return nil, err
	}
	all, err := s.accounts.List(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]*models.Account, 0, len(all))
	for _, a := range all {
		if a.Roles.Contains(models.RoleSuperAdmin) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// SetBlocked blocks or unblocks an unprivileged account.
func (s *AccountService) SetBlocked(ctx context.Context, actor *models.Account, targetID int, blocked bool) error {
	if err := s.requireAdmin(actor, "block account"); err != nil {
		return err
	}
	target, err := s.loadClient(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdateBlocked(ctx, target.ID, blocked); err != nil {
		return s.writeError("update blocked", err)
	}

	s.audit.LogSuccess(audit.EventBlockChanged, actor.ID, target.ID, map[string]string{"blocked": fmt.Sprint(blocked)})
	s.logger.Info("account block status changed", zap.Int("account_id", target.ID), zap.Bool("blocked", blocked))
	return nil
}

// DeleteAccount removes an unprivileged account.
func (s *AccountService) DeleteAccount(ctx context.Context, actor *models.Account, targetID int) error {
	if err := s.requireAdmin(actor, "delete account"); err != nil {
		return err
	}
	target, err := s.loadClient(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, target.ID); err != nil {
		return s.writeError("delete account", err)
	}

	s.audit.LogSuccess(audit.EventAccountDeleted, actor.ID, target.ID, nil)
	s.logger.Info("account deleted", zap.Int("account_id", target.ID))
	return nil
}

// ToggleAdminRole promotes a user to admin or demotes an admin to user. The
// role set is replaced, not merged. Only super-admins may call it.
func (s *AccountService) ToggleAdminRole(ctx context.Context, actor *models.Account, targetID int) (models.Roles, error) {
	if !s.roles.IsSuperAdmin(actor) {
		actorID := 0
		if actor != nil {
			actorID = actor.ID
		}
		s.audit.LogFailure(audit.EventAccessDenied, actorID, "toggle admin role", ErrAccessDenied)
		return nil, ErrAccessDenied
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if s.roles.IsSuperAdmin(target) {
		return nil, ErrPrivilegedTarget
	}

	next := models.Roles{models.RoleAdmin}
	if target.Roles.Contains(models.RoleAdmin) {
		next = models.Roles{models.RoleUser}
	} else if target.IsBlocked {
		return nil, ErrRoleConflict
	}

	if err := s.accounts.UpdateRoles(ctx, target.ID, next); err != nil {
		return nil, s.writeError("update roles", err)
	}

	s.audit.LogSuccess(audit.EventRoleChanged, actor.ID, target.ID, map[string]string{"roles": next.Encode()})
	s.logger.Info("admin role toggled", zap.Int("account_id", target.ID), zap.Strings("roles", next))
	return next, nil
}

// CreateAccount lets an admin add an account. Nobody may create super-admins
// and only super-admins may create admins.
func (s *AccountService) CreateAccount(ctx context.Context, actor *models.Account, req CreateAccountRequest) (*models.Account, error) {
	if err := s.requireAdmin(actor, "create account"); err != nil {
		return nil, err
	}

	req.normalize()
	req.Role = strings.TrimSpace(req.Role)
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	switch role {
	case models.RoleSuperAdmin:
		return nil, ErrAccessDenied
	case models.RoleAdmin:
		if !s.roles.IsSuperAdmin(actor) {
			return nil, ErrAccessDenied
		}
	}

	acct, err := provisionAccount(ctx, s.accounts, s.hasher, req.RegisterRequest, models.Roles{role})
	if err != nil {
		return nil, err
	}

	s.audit.LogSuccess(audit.EventAccountCreated, actor.ID, acct.ID, map[string]string{"role": role})
	s.logger.Info("account created by admin", zap.Int("account_id", acct.ID), zap.String("role", role))
	return acct, nil
}

// UpdateProfile edits the caller's own profile and refreshes the session copy.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID int, upd ProfileUpdate) (*models.Account, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Email = strings.TrimSpace(upd.Email)
	upd.PhoneNumber = strings.TrimSpace(upd.PhoneNumber)
	if err := s.validator.Validate(&upd); err != nil {
		return nil, err
	}

	acct, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	taken, err := s.accounts.EmailExistsForOther(ctx, upd.Email, accountID)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}
	taken, err = s.accounts.PhoneExistsForOther(ctx, upd.PhoneNumber, accountID)
	if err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if taken {
		return nil, ErrPhoneTaken
	}

	acct.Name = upd.Name
	acct.Email = upd.Email
	acct.PhoneNumber = upd.PhoneNumber
	if upd.Image != nil {
		acct.Image = upd.Image
	}

	if err := s.accounts.UpdateProfile(ctx, acct); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, s.writeError("update profile", err)
	}

	s.session.Refresh(acct)
	s.logger.Info("profile updated", zap.Int("account_id", accountID))
	return acct, nil
}

// ChangePassword requires the current password before storing the new one.
func (s *AccountService) ChangePassword(ctx context.Context, accountID int, req ChangePasswordRequest) error {
	if err := s.validator.Validate(&req); err != nil {
		return err
	}

	acct, err := s.load(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.CurrentPassword, acct.Password) {
		return ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return s.writeError("update password", err)
	}

	s.audit.LogSuccess(audit.EventPasswordChanged, accountID, accountID, nil)
	return nil
}

func (s *AccountService) load(ctx context.Context, id int) (*models.Account, error) {
	acct, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acct, nil
}

// loadClient loads the target and rejects admins and super-admins.
func (s *AccountService) loadClient(ctx context.Context, id int) (*models.Account, error) {
	acct, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct.IsPrivileged() {
		return nil, ErrPrivilegedTarget
	}
	return acct, nil
}

func (s *AccountService) writeError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	s.logger.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
