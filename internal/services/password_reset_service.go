package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/userhub/backend/internal/audit"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
)

const DefaultResetTokenTTL = 24 * time.Hour

// ResetRequestResult is delivered once by RequestResetAsync.
type ResetRequestResult struct {
	Sent bool
	Err  error
}

// ResetPasswordRequest represents the password reset payload
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type PasswordResetService struct {
	accounts  AccountRepository
	tokens    ResetTokenRepository
	mailer    Mailer
	hasher    *PasswordHasher
	validator *ValidationHelper
	appName   string
	tokenTTL  time.Duration
	now       func() time.Time
	newToken  func() string
	audit     *audit.Logger
	logger    *zap.Logger
}

func NewPasswordResetService(accounts AccountRepository, tokens ResetTokenRepository, mailer Mailer, hasher *PasswordHasher, appName string, tokenTTL time.Duration, auditLog *audit.Logger, logger *zap.Logger) *PasswordResetService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultResetTokenTTL
	}
	return &PasswordResetService{
		accounts:  accounts,
		tokens:    tokens,
		mailer:    mailer,
		hasher:    hasher,
		validator: NewValidationHelper(),
		appName:   appName,
		tokenTTL:  tokenTTL,
		now:       time.Now,
		newToken:  uuid.NewString,
		audit:     auditLog,
		logger:    logger.Named("reset"),
	}
}

// RequestReset issues a new token for email, replacing earlier ones, and mails it.
// An unknown email reports false with no error and leaves no token behind.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("reset requested for unknown email")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load account: %w", err)
	}

	token := s.newToken()
	expiry := s.now().Add(s.tokenTTL)
	if err := s.tokens.Replace(ctx, acct.Email, token, expiry); err != nil {
		s.logger.Error("failed to store reset token", zap.Int("account_id", acct.ID), zap.Error(err))
		return false, fmt.Errorf("store reset token: %w", err)
	}

	subject := "Password reset - " + s.appName
	if err := s.mailer.Send(ctx, acct.Email, subject, s.resetMailBody(token)); err != nil {
		s.logger.Error("failed to send reset email", zap.Int("account_id", acct.ID), zap.Error(err))
		if derr := s.tokens.DeleteToken(ctx, token); derr != nil {
			s.logger.Warn("failed to discard undelivered reset token", zap.Error(derr))
		}
		s.audit.LogFailure(audit.EventResetRequested, acct.ID, acct.Email, err)
		return false, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	s.audit.LogSuccess(audit.EventResetRequested, acct.ID, acct.ID, nil)
	return true, nil
}

// RequestResetAsync runs RequestReset in the background. The channel yields
// exactly one result and is then closed.
func (s *PasswordResetService) RequestResetAsync(ctx context.Context, email string) <-chan ResetRequestResult {
	out := make(chan ResetRequestResult, 1)
	go func() {
		defer close(out)
		sent, err := s.RequestReset(ctx, email)
		out <- ResetRequestResult{Sent: sent, Err: err}
	}()
	return out
}

func (s *PasswordResetService) resetMailBody(token string) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	fmt.Fprintf(&b, "You asked to reset the password of your %s account.\n\n", s.appName)
	b.WriteString("Here is your reset code:\n\n")
	fmt.Fprintf(&b, "=== %s ===\n\n", token)
	b.WriteString("Copy this code into the application to choose a new password.\n\n")
	fmt.Fprintf(&b, "This code expires in %s.\n\n", humanDuration(s.tokenTTL))
	b.WriteString("If you did not request a reset, you can ignore this email.\n\n")
	fmt.Fprintf(&b, "The %s team", s.appName)
	return b.String()
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}

// EmailFromToken returns the email bound to a live token. Unknown and expired
// tokens both give ErrResetTokenInvalid.
func (s *PasswordResetService) EmailFromToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrResetTokenInvalid
	}
	t, err := s.tokens.FindValid(ctx, token, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrResetTokenInvalid
	}
	if err != nil {
		return "", fmt.Errorf("load reset token: %w", err)
	}
	return t.Email, nil
}

// ResetPassword sets a new password and consumes the token in one
// transaction. If anything fails the token stays usable.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	policy := struct {
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}{NewPassword: newPassword}
	if err := s.validator.Validate(&policy); err != nil {
		return err
	}

	if _, err := s.EmailFromToken(ctx, token); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	email, err := s.tokens.ConsumeWithPassword(ctx, token, hash, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		s.logger.Error("password reset failed", zap.Error(err))
		return fmt.Errorf("reset password: %w", err)
	}

	s.audit.LogSuccess(audit.EventPasswordReset, 0, 0, map[string]string{"email": email})
	s.logger.Info("password reset completed")
	return nil
}

// PurgeExpired removes expired token rows. Lookups already ignore them.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged expired reset tokens", zap.Int64("count", n))
	}
	return n, nil
}
