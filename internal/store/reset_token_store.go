package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/userhub/backend/internal/models"
)

// ResetTokenStore persists password reset tokens.
type ResetTokenStore struct {
	db *sql.DB
}

func NewResetTokenStore(db *sql.DB) *ResetTokenStore {
	return &ResetTokenStore{db: db}
}

// Replace deletes every token bound to email and stores the new one.
func (s *ResetTokenStore) Replace(ctx context.Context, email, token string, expiry time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete previous tokens: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (email, token, expiry_date, created_at)
		VALUES ($1, $2, $3, $4)
	`, email, token, expiry, time.Now()); err != nil {
		return fmt.Errorf("insert token: %w", mapWriteError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindValid returns the token row only while expiry_date > now.
func (s *ResetTokenStore) FindValid(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, token, expiry_date, created_at
		FROM password_reset_tokens
		WHERE token = $1 AND expiry_date > $2
	`, token, now).Scan(&t.ID, &t.Email, &t.Token, &t.ExpiryDate, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &t, nil
}

func (s *ResetTokenStore) DeleteToken(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// ConsumeWithPassword sets the new password hash for the token's email and
// deletes the token. Nothing changes unless both writes succeed.
func (s *ResetTokenStore) ConsumeWithPassword(ctx context.Context, token, passwordHash string, now time.Time) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var email string
	err = tx.QueryRowContext(ctx, `
		SELECT email FROM password_reset_tokens
		WHERE token = $1 AND expiry_date > $2
		FOR UPDATE
	`, token, now).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET password = $1 WHERE email = $2`, passwordHash, email)
	if err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		if err == nil {
			err = ErrNotFound
		}
		return "", fmt.Errorf("update password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE token = $1`, token); err != nil {
		return "", fmt.Errorf("delete token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return email, nil
}

// PurgeExpired removes rows whose expiry has passed.
func (s *ResetTokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expiry_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return res.RowsAffected()
}
