package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/userhub/backend/internal/audit"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fakeAccounts is an in-memory AccountRepository.
type fakeAccounts struct {
	mu     sync.Mutex
	rows   map[int]*models.Account
	nextID int

	findErr   error
	updateErr error
	createErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{rows: make(map[int]*models.Account), nextID: 1}
}

func (f *fakeAccounts) seed(a *models.Account) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == 0 {
		a.ID = f.nextID
	}
	if a.ID >= f.nextID {
		f.nextID = a.ID + 1
	}
	if a.Roles == nil {
		a.Roles = models.DefaultRoles()
	}
	f.rows[a.ID] = a.Clone()
	return a
}

func (f *fakeAccounts) get(id int) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Clone()
}

func (f *fakeAccounts) Create(ctx context.Context, a *models.Account) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	for _, r := range f.rows {
		if r.Email == a.Email || r.PhoneNumber == a.PhoneNumber {
			return 0, store.ErrDuplicate
		}
	}
	c := a.Clone()
	c.ID = f.nextID
	f.nextID++
	f.rows[c.ID] = c
	return c.ID, nil
}

func (f *fakeAccounts) FindByID(ctx context.Context, id int) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a.Clone(), nil
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, a := range f.rows {
		if a.Email == email {
			return a.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeAccounts) List(ctx context.Context, excludeID int) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Account
	for id, a := range f.rows {
		if id != excludeID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeAccounts) matchExists(match func(*models.Account) bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return false, f.findErr
	}
	for _, a := range f.rows {
		if match(a) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccounts) EmailExists(ctx context.Context, email string) (bool, error) {
	return f.matchExists(func(a *models.Account) bool { return a.Email == email })
}

func (f *fakeAccounts) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return f.matchExists(func(a *models.Account) bool { return a.PhoneNumber == phone })
}

func (f *fakeAccounts) EmailExistsForOther(ctx context.Context, email string, id int) (bool, error) {
	return f.matchExists(func(a *models.Account) bool { return a.Email == email && a.ID != id })
}

func (f *fakeAccounts) PhoneExistsForOther(ctx context.Context, phone string, id int) (bool, error) {
	return f.matchExists(func(a *models.Account) bool { return a.PhoneNumber == phone && a.ID != id })
}

func (f *fakeAccounts) update(id int, apply func(*models.Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	apply(a)
	return nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, a *models.Account) error {
	return f.update(a.ID, func(row *models.Account) {
		row.Name, row.Email, row.PhoneNumber, row.Image = a.Name, a.Email, a.PhoneNumber, a.Image
	})
}

func (f *fakeAccounts) UpdatePassword(ctx context.Context, id int, hash string) error {
	return f.update(id, func(row *models.Account) { row.Password = hash })
}

func (f *fakeAccounts) UpdateRoles(ctx context.Context, id int, roles models.Roles) error {
	return f.update(id, func(row *models.Account) { row.Roles = roles.Normalize() })
}

func (f *fakeAccounts) UpdateBlocked(ctx context.Context, id int, blocked bool) error {
	return f.update(id, func(row *models.Account) { row.IsBlocked = blocked })
}

func (f *fakeAccounts) MarkVerified(ctx context.Context, email, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, a := range f.rows {
		if a.Email == email {
			a.IsVerified = true
			a.SecretKey = &secret
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeAccounts) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeAccounts) setPasswordByEmail(email, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, a := range f.rows {
		if a.Email == email {
			a.Password = hash
			return nil
		}
	}
	return store.ErrNotFound
}

// fakeTokens is an in-memory ResetTokenRepository bound to a fakeAccounts.
type fakeTokens struct {
	mu       sync.Mutex
	rows     map[string]*models.PasswordResetToken
	accounts *fakeAccounts

	replaceErr error
}

func newFakeTokens(accounts *fakeAccounts) *fakeTokens {
	return &fakeTokens{rows: make(map[string]*models.PasswordResetToken), accounts: accounts}
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeTokens) Replace(ctx context.Context, email, token string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	for k, t := range f.rows {
		if t.Email == email {
			delete(f.rows, k)
		}
	}
	f.rows[token] = &models.PasswordResetToken{Email: email, Token: token, ExpiryDate: expiry, CreatedAt: time.Now()}
	return nil
}

func (f *fakeTokens) FindValid(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[token]
	if !ok || !t.ExpiryDate.After(now) {
		return nil, store.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeTokens) DeleteToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, token)
	return nil
}

func (f *fakeTokens) ConsumeWithPassword(ctx context.Context, token, hash string, now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[token]
	if !ok || !t.ExpiryDate.After(now) {
		return "", store.ErrNotFound
	}
	if err := f.accounts.setPasswordByEmail(t.Email, hash); err != nil {
		return "", err
	}
	delete(f.rows, token)
	return t.Email, nil
}

func (f *fakeTokens) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, t := range f.rows {
		if !t.ExpiryDate.After(now) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type MockQRRenderer struct {
	mock.Mock
}

func (m *MockQRRenderer) RenderPNG(content string, size int) ([]byte, error) {
	args := m.Called(content, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func testHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

func testAudit() *audit.Logger {
	return audit.NewLogger(zap.NewNop())
}

// seedAccount stores an account whose password is plaintext hashed with testHasher.
func seedAccount(t *testing.T, repo *fakeAccounts, a models.Account, plaintext string) *models.Account {
	t.Helper()
	hash, err := testHasher().Hash(plaintext)
	require.NoError(t, err)
	a.Password = hash
	return repo.seed(&a)
}
