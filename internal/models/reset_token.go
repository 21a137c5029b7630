package models

import "time"

// PasswordResetToken is a single-use code mailed to the account owner.
type PasswordResetToken struct {
	ID         int       `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	Token      string    `json:"-" db:"token"`
	ExpiryDate time.Time `json:"expiryDate" db:"expiry_date"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Expired reports whether the token is no longer usable at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !t.ExpiryDate.After(now)
}
