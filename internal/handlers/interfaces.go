package handlers

import (
	"context"
	"time"

	"github.com/userhub/backend/internal/middleware"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/services"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.Account, error)
	Register(ctx context.Context, req services.RegisterRequest) (*models.Account, error)
	Logout()
	CurrentAccount() *models.Account
}

type RoleResolver interface {
	Landing(acct *models.Account) services.Landing
	GetUserType(acct *models.Account) string
}

type TokenIssuer interface {
	Issue(accountID int) (string, time.Time, error)
	Revoke(ctx context.Context, claims *middleware.Claims) error
}

type TwoFactorEnroller interface {
	BeginEnrollment(ctx context.Context, accountID int) (*services.Enrollment, error)
	CompleteEnrollment(ctx context.Context, accountID int, code string) error
	State(ctx context.Context, accountID int) (services.EnrollmentState, error)
}

type PasswordResetter interface {
	RequestResetAsync(ctx context.Context, email string) <-chan services.ResetRequestResult
	EmailFromToken(ctx context.Context, token string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AccountManager interface {
	ListAccounts(ctx context.Context, actor *models.Account) ([]*models.Account, error)
	SetBlocked(ctx context.Context, actor *models.Account, targetID int, blocked bool) error
	DeleteAccount(ctx context.Context, actor *models.Account, targetID int) error
	ToggleAdminRole(ctx context.Context, actor *models.Account, targetID int) (models.Roles, error)
	CreateAccount(ctx context.Context, actor *models.Account, req services.CreateAccountRequest) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID int, upd services.ProfileUpdate) (*models.Account, error)
	ChangePassword(ctx context.Context, accountID int, req services.ChangePasswordRequest) error
}

// CurrentAccountReader is satisfied by *services.Session.
type CurrentAccountReader interface {
	Current() *models.Account
}
