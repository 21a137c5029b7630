package services

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 13

	prefix2y = "$2y$"
	prefix2a = "$2a$"
)

// PasswordHasher produces bcrypt hashes tagged $2y$ so PHP consumers sharing
// the users table can verify them.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, or DefaultBcryptCost when
// cost is outside bcrypt's accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	hash := string(b)
	if strings.HasPrefix(hash, prefix2a) {
		hash = prefix2y + hash[len(prefix2a):]
	}
	return hash, nil
}

// Verify accepts $2y$ and $2a$ hashes. It never fails loudly: any malformed
// input simply does not verify.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, prefix2y) {
		hash = prefix2a + hash[len(prefix2y):]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
