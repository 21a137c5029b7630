package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/userhub/backend/internal/models"
)

const accountColumns = `id, name, email, phone_number, password, is_verified, is_blocked, created_at, roles, image, secret_key`

// AccountStore persists accounts in the users table.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PhoneNumber, &a.Password,
		&a.IsVerified, &a.IsBlocked, &a.CreatedAt, &a.Roles, &a.Image, &a.SecretKey)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts the account and returns its new id.
func (s *AccountStore) Create(ctx context.Context, a *models.Account) (int, error) {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, phone_number, password, is_verified, is_blocked, created_at, roles, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, a.Name, a.Email, a.PhoneNumber, a.Password, a.IsVerified, a.IsBlocked, createdAt, a.Roles, a.Image).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", mapWriteError(err))
	}
	return id, nil
}

func (s *AccountStore) FindByID(ctx context.Context, id int) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return a, nil
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return a, nil
}

// List returns every account except excludeID, ordered by name.
func (s *AccountStore) List(ctx context.Context, excludeID int) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM users WHERE id != $1 ORDER BY name`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *AccountStore) EmailExists(ctx context.Context, email string) (bool, error) {
	ok, err := s.exists(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, email)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return ok, nil
}

func (s *AccountStore) PhoneExists(ctx context.Context, phone string) (bool, error) {
	ok, err := s.exists(ctx, `SELECT COUNT(*) FROM users WHERE phone_number = $1`, phone)
	if err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return ok, nil
}

// EmailExistsForOther ignores the account identified by id.
func (s *AccountStore) EmailExistsForOther(ctx context.Context, email string, id int) (bool, error) {
	ok, err := s.exists(ctx, `SELECT COUNT(*) FROM users WHERE email = $1 AND id != $2`, email, id)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return ok, nil
}

// PhoneExistsForOther ignores the account identified by id.
func (s *AccountStore) PhoneExistsForOther(ctx context.Context, phone string, id int) (bool, error) {
	ok, err := s.exists(ctx, `SELECT COUNT(*) FROM users WHERE phone_number = $1 AND id != $2`, phone, id)
	if err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return ok, nil
}

func (s *AccountStore) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AccountStore) UpdateProfile(ctx context.Context, a *models.Account) error {
	return s.execOne(ctx, "update profile",
		`UPDATE users SET name = $1, email = $2, phone_number = $3, image = $4 WHERE id = $5`,
		a.Name, a.Email, a.PhoneNumber, a.Image, a.ID)
}

func (s *AccountStore) UpdatePassword(ctx context.Context, id int, hash string) error {
	return s.execOne(ctx, "update password", `UPDATE users SET password = $1 WHERE id = $2`, hash, id)
}

func (s *AccountStore) UpdateRoles(ctx context.Context, id int, roles models.Roles) error {
	return s.execOne(ctx, "update roles", `UPDATE users SET roles = $1 WHERE id = $2`, roles, id)
}

func (s *AccountStore) UpdateBlocked(ctx context.Context, id int, blocked bool) error {
	return s.execOne(ctx, "update blocked", `UPDATE users SET is_blocked = $1 WHERE id = $2`, blocked, id)
}

// MarkVerified stores the TOTP secret and flips is_verified in one statement.
func (s *AccountStore) MarkVerified(ctx context.Context, email, secret string) error {
	return s.execOne(ctx, "mark verified",
		`UPDATE users SET secret_key = $1, is_verified = true WHERE email = $2`, secret, email)
}

func (s *AccountStore) Delete(ctx context.Context, id int) error {
	return s.execOne(ctx, "delete account", `DELETE FROM users WHERE id = $1`, id)
}
