package models

import "time"

// Account is a registered identity. Password holds the bcrypt hash, never plaintext.
type Account struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber string    `json:"phoneNumber" db:"phone_number"`
	Password    string    `json:"-" db:"password"`
	IsVerified  bool      `json:"isVerified" db:"is_verified"`
	IsBlocked   bool      `json:"isBlocked" db:"is_blocked"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	Roles       Roles     `json:"roles" db:"roles"`
	Image       *string   `json:"image,omitempty" db:"image"`
	SecretKey   *string   `json:"-" db:"secret_key"`
}

// HasTOTPSecret reports whether two-factor enrollment has been persisted.
func (a *Account) HasTOTPSecret() bool {
	return a.SecretKey != nil && *a.SecretKey != ""
}

// IsPrivileged reports whether the account holds an admin or super-admin role.
func (a *Account) IsPrivileged() bool {
	return a.Roles.Contains(RoleAdmin) || a.Roles.Contains(RoleSuperAdmin)
}

// Clone returns a deep copy so callers can't mutate shared session state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Roles = append(Roles(nil), a.Roles...)
	if a.Image != nil {
		img := *a.Image
		c.Image = &img
	}
	if a.SecretKey != nil {
		sk := *a.SecretKey
		c.SecretKey = &sk
	}
	return &c
}
