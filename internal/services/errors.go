package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountBlocked      = errors.New("account is blocked")
	ErrAccessDenied        = errors.New("access denied")
	ErrAccountNotFound     = errors.New("account not found")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrPhoneTaken          = errors.New("phone number is already registered")
	ErrInvalidTOTPCode     = errors.New("invalid verification code")
	ErrTooManyAttempts     = errors.New("too many failed attempts, try again later")
	ErrNoPendingEnrollment = errors.New("no two-factor enrollment in progress")
	ErrAlreadyEnrolled     = errors.New("two-factor authentication is already enabled")
	ErrResetTokenInvalid   = errors.New("reset code is invalid or has expired")
	ErrMailDelivery        = errors.New("failed to deliver email")
	ErrUnknownRole         = errors.New("unknown role")
	ErrRoleConflict        = errors.New("blocked accounts cannot hold privileged roles")
	ErrPrivilegedTarget    = errors.New("operation not allowed on privileged accounts")
	ErrIncorrectPassword   = errors.New("current password is incorrect")
)

// ValidationError carries user-facing messages keyed by request field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
