package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(180) NOT NULL UNIQUE,
		phone_number VARCHAR(20) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		roles JSONB NOT NULL DEFAULT '["ROLE_USER"]',
		image VARCHAR(255),
		secret_key VARCHAR(255)
	)`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id SERIAL PRIMARY KEY,
		email VARCHAR(180) NOT NULL,
		token VARCHAR(255) NOT NULL UNIQUE,
		expiry_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_email ON password_reset_tokens (email)`,
}

// EnsureSchema creates the tables the stores need if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
