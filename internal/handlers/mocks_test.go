package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/userhub/backend/internal/middleware"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/services"
)

type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Login(ctx context.Context, email, password string) (*models.Account, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAuth) Register(ctx context.Context, req services.RegisterRequest) (*models.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAuth) Logout() {
	m.Called()
}

func (m *MockAuth) CurrentAccount() *models.Account {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Account)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Issue(accountID int) (string, time.Time, error) {
	args := m.Called(accountID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokens) Revoke(ctx context.Context, claims *middleware.Claims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

type MockTwoFactor struct {
	mock.Mock
}

func (m *MockTwoFactor) BeginEnrollment(ctx context.Context, accountID int) (*services.Enrollment, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Enrollment), args.Error(1)
}

func (m *MockTwoFactor) CompleteEnrollment(ctx context.Context, accountID int, code string) error {
	args := m.Called(ctx, accountID, code)
	return args.Error(0)
}

func (m *MockTwoFactor) State(ctx context.Context, accountID int) (services.EnrollmentState, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(services.EnrollmentState), args.Error(1)
}

type MockResetter struct {
	mock.Mock
}

func (m *MockResetter) RequestResetAsync(ctx context.Context, email string) <-chan services.ResetRequestResult {
	args := m.Called(ctx, email)
	out := make(chan services.ResetRequestResult, 1)
	out <- args.Get(0).(services.ResetRequestResult)
	close(out)
	return out
}

func (m *MockResetter) EmailFromToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockResetter) ResetPassword(ctx context.Context, token, newPassword string) error {
	args := m.Called(ctx, token, newPassword)
	return args.Error(0)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) ListAccounts(ctx context.Context, actor *models.Account) ([]*models.Account, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccounts) SetBlocked(ctx context.Context, actor *models.Account, targetID int, blocked bool) error {
	args := m.Called(ctx, actor, targetID, blocked)
	return args.Error(0)
}

func (m *MockAccounts) DeleteAccount(ctx context.Context, actor *models.Account, targetID int) error {
	args := m.Called(ctx, actor, targetID)
	return args.Error(0)
}

func (m *MockAccounts) ToggleAdminRole(ctx context.Context, actor *models.Account, targetID int) (models.Roles, error) {
	args := m.Called(ctx, actor, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Roles), args.Error(1)
}

func (m *MockAccounts) CreateAccount(ctx context.Context, actor *models.Account, req services.CreateAccountRequest) (*models.Account, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccounts) UpdateProfile(ctx context.Context, accountID int, upd services.ProfileUpdate) (*models.Account, error) {
	args := m.Called(ctx, accountID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccounts) ChangePassword(ctx context.Context, accountID int, req services.ChangePasswordRequest) error {
	args := m.Called(ctx, accountID, req)
	return args.Error(0)
}
