package services

import (
	"context"
	"time"

	"github.com/userhub/backend/internal/models"
)

// AccountRepository is the credential store used by the services. It is
// satisfied by *store.AccountStore.
type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) (int, error)
	FindByID(ctx context.Context, id int) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, excludeID int) ([]*models.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	EmailExistsForOther(ctx context.Context, email string, id int) (bool, error)
	PhoneExistsForOther(ctx context.Context, phone string, id int) (bool, error)
	UpdateProfile(ctx context.Context, a *models.Account) error
	UpdatePassword(ctx context.Context, id int, hash string) error
	UpdateRoles(ctx context.Context, id int, roles models.Roles) error
	UpdateBlocked(ctx context.Context, id int, blocked bool) error
	MarkVerified(ctx context.Context, email, secret string) error
	Delete(ctx context.Context, id int) error
}

// ResetTokenRepository is satisfied by *store.ResetTokenStore.
type ResetTokenRepository interface {
	Replace(ctx context.Context, email, token string, expiry time.Time) error
	FindValid(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error)
	DeleteToken(ctx context.Context, token string) error
	ConsumeWithPassword(ctx context.Context, token, passwordHash string, now time.Time) (string, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Mailer delivers a plaintext message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// QRRenderer encodes text into a PNG image of size x size pixels.
type QRRenderer interface {
	RenderPNG(content string, size int) ([]byte, error)
}
