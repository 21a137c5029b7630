package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/userhub/backend/internal/audit"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,personname"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,phone8"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (r *RegisterRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

type AuthService struct {
	accounts  AccountRepository
	hasher    *PasswordHasher
	session   *Session
	limiter   *AttemptLimiter
	validator *ValidationHelper
	audit     *audit.Logger
	logger    *zap.Logger
}

func NewAuthService(accounts AccountRepository, hasher *PasswordHasher, session *Session, limiter *AttemptLimiter, auditLog *audit.Logger, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		hasher:    hasher,
		session:   session,
		limiter:   limiter,
		validator: NewValidationHelper(),
		audit:     auditLog,
		logger:    logger.Named("auth"),
	}
}

// Login checks credentials and installs the account into the session.
// Unknown email and wrong password both yield ErrInvalidCredentials; the
// blocked flag is only consulted after the password has verified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.TrimSpace(email)

	if err := s.limiter.Check(ctx, email); err != nil {
		if errors.Is(err, ErrTooManyAttempts) {
			s.audit.LogFailure(audit.EventLoginFailed, 0, email, err)
			return nil, err
		}
		s.logger.Warn("attempt limiter unavailable", zap.Error(err))
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.failedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("login lookup failed", zap.Error(err))
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !s.hasher.Verify(password, acct.Password) {
		s.failedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}

	if acct.IsBlocked {
		s.audit.LogFailure(audit.EventLoginBlocked, 0, email, ErrAccountBlocked)
		return nil, ErrAccountBlocked
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	s.session.Set(acct)
	s.audit.LogSuccess(audit.EventLogin, acct.ID, acct.ID, nil)
	s.logger.Info("login succeeded", zap.Int("account_id", acct.ID), zap.Bool("verified", acct.IsVerified))
	return acct.Clone(), nil
}

func (s *AuthService) failedLogin(ctx context.Context, email string) {
	s.audit.LogFailure(audit.EventLoginFailed, 0, email, ErrInvalidCredentials)
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("failed to record login attempt", zap.Error(err))
	}
}

// Register creates an unverified, unblocked account holding only ROLE_USER.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	req.normalize()
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	acct, err := provisionAccount(ctx, s.accounts, s.hasher, req, models.DefaultRoles())
	if err != nil {
		return nil, err
	}

	s.audit.LogSuccess(audit.EventRegister, acct.ID, acct.ID, nil)
	s.logger.Info("account registered", zap.Int("account_id", acct.ID))
	return acct, nil
}

// provisionAccount runs the uniqueness pre-checks, hashes the password and
// inserts the account. req must already be validated.
func provisionAccount(ctx context.Context, accounts AccountRepository, hasher *PasswordHasher, req RegisterRequest, roles models.Roles) (*models.Account, error) {
	if err := checkUnique(ctx, accounts, req.Email, req.PhoneNumber); err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	acct := &models.Account{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    hash,
		IsVerified:  false,
		IsBlocked:   false,
		CreatedAt:   time.Now(),
		Roles:       roles.Normalize(),
	}

	id, err := accounts.Create(ctx, acct)
	if errors.Is(err, store.ErrDuplicate) {
		// lost a race with a concurrent insert; report which field collided
		if uerr := checkUnique(ctx, accounts, req.Email, req.PhoneNumber); uerr != nil {
			return nil, uerr
		}
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	acct.ID = id
	return acct, nil
}

func checkUnique(ctx context.Context, accounts AccountRepository, email, phone string) error {
	taken, err := accounts.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	taken, err = accounts.PhoneExists(ctx, phone)
	if err != nil {
		return fmt.Errorf("check phone: %w", err)
	}
	if taken {
		return ErrPhoneTaken
	}
	return nil
}

func (s *AuthService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.accounts.EmailExists(ctx, strings.TrimSpace(email))
}

func (s *AuthService) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return s.accounts.PhoneExists(ctx, strings.TrimSpace(phone))
}

func (s *AuthService) Logout() {
	if cur := s.session.Current(); cur != nil {
		s.audit.LogSuccess(audit.EventLogout, cur.ID, cur.ID, nil)
	}
	s.session.Clear()
}

// CurrentAccount returns the signed-in account or nil.
func (s *AuthService) CurrentAccount() *models.Account {
	return s.session.Current()
}
