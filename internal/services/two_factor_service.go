package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/userhub/backend/internal/audit"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
)

const (
	totpPeriod     = 30
	totpSecretSize = 20
	qrImageSize    = 256
)

type EnrollmentState string

const (
	StateUnenrolled   EnrollmentState = "unenrolled"
	StateSecretIssued EnrollmentState = "secret-issued"
	StateVerified     EnrollmentState = "verified"
)

// Enrollment is what the user needs to add the account to an authenticator app.
type Enrollment struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioningUri"`
	QRCode          []byte `json:"-"`
}

type pendingSecret struct {
	email  string
	secret string
}

// TwoFactorService drives TOTP enrollment. Issued secrets live only in memory
// until a valid code proves the user holds them.
type TwoFactorService struct {
	accounts AccountRepository
	qr       QRRenderer
	session  *Session
	limiter  *AttemptLimiter
	issuer   string
	skew     uint
	now      func() time.Time
	audit    *audit.Logger
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[int]pendingSecret
}

func NewTwoFactorService(accounts AccountRepository, qr QRRenderer, session *Session, limiter *AttemptLimiter, issuer string, skew uint, auditLog *audit.Logger, logger *zap.Logger) *TwoFactorService {
	return &TwoFactorService{
		accounts: accounts,
		qr:       qr,
		session:  session,
		limiter:  limiter,
		issuer:   issuer,
		skew:     skew,
		now:      time.Now,
		audit:    auditLog,
		logger:   logger.Named("2fa"),
		pending:  make(map[int]pendingSecret),
	}
}

// ProvisioningURI builds otpauth://totp/<issuer>:<email>?secret=<secret>&issuer=<issuer>.
func ProvisioningURI(issuer, email, secret string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(issuer), url.PathEscape(email), url.QueryEscape(secret), url.QueryEscape(issuer))
}

// BeginEnrollment issues a fresh secret, discarding any earlier unconfirmed one.
func (s *TwoFactorService) BeginEnrollment(ctx context.Context, accountID int) (*Enrollment, error) {
	acct, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if enrolled(acct) {
		return nil, ErrAlreadyEnrolled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: acct.Email,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	secret := key.Secret()
	uri := ProvisioningURI(s.issuer, acct.Email, secret)

	png, err := s.qr.RenderPNG(uri, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}

	s.mu.Lock()
	s.pending[accountID] = pendingSecret{email: acct.Email, secret: secret}
	s.mu.Unlock()

	s.audit.LogSuccess(audit.EventEnrollmentStart, accountID, accountID, nil)
	s.logger.Info("totp secret issued", zap.Int("account_id", accountID))

	return &Enrollment{Secret: secret, ProvisioningURI: uri, QRCode: png}, nil
}

// CompleteEnrollment checks code against the pending secret. On success the
// secret and verified flag are persisted together; on failure nothing is written.
func (s *TwoFactorService) CompleteEnrollment(ctx context.Context, accountID int, code string) error {
	limiterKey := strconv.Itoa(accountID)
	if err := s.limiter.Check(ctx, limiterKey); err != nil {
		if errors.Is(err, ErrTooManyAttempts) {
			return err
		}
		s.logger.Warn("attempt limiter unavailable", zap.Error(err))
	}

	s.mu.Lock()
	p, ok := s.pending[accountID]
	s.mu.Unlock()
	if !ok {
		return ErrNoPendingEnrollment
	}

	valid, err := totp.ValidateCustom(code, p.secret, s.now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      s.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !valid {
		s.audit.LogFailure(audit.EventEnrollmentFailed, accountID, p.email, ErrInvalidTOTPCode)
		if lerr := s.limiter.RecordFailure(ctx, limiterKey); lerr != nil {
			s.logger.Warn("failed to record 2fa attempt", zap.Error(lerr))
		}
		return ErrInvalidTOTPCode
	}

	if err := s.accounts.MarkVerified(ctx, p.email, p.secret); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		s.logger.Error("failed to persist totp enrollment", zap.Int("account_id", accountID), zap.Error(err))
		return fmt.Errorf("mark verified: %w", err)
	}

	s.mu.Lock()
	if cur, ok := s.pending[accountID]; ok && cur.secret == p.secret {
		delete(s.pending, accountID)
	}
	s.mu.Unlock()

	if err := s.limiter.Reset(ctx, limiterKey); err != nil {
		s.logger.Warn("failed to reset 2fa attempts", zap.Error(err))
	}

	if acct, err := s.accounts.FindByID(ctx, accountID); err == nil {
		s.session.Refresh(acct)
	}

	s.audit.LogSuccess(audit.EventEnrollmentDone, accountID, accountID, nil)
	s.logger.Info("two-factor enrollment completed", zap.Int("account_id", accountID))
	return nil
}

func (s *TwoFactorService) State(ctx context.Context, accountID int) (EnrollmentState, error) {
	acct, err := s.load(ctx, accountID)
	if err != nil {
		return "", err
	}
	if enrolled(acct) {
		return StateVerified, nil
	}

	s.mu.Lock()
	_, ok := s.pending[accountID]
	s.mu.Unlock()
	if ok {
		return StateSecretIssued, nil
	}
	return StateUnenrolled, nil
}

// enrolled treats a persisted secret as enrollment even if the verified flag lags.
func enrolled(acct *models.Account) bool {
	return acct.IsVerified || acct.HasTOTPSecret()
}

func (s *TwoFactorService) load(ctx context.Context, id int) (*models.Account, error) {
	acct, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acct, nil
}
