package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"
	RoleAdmin      = "ROLE_ADMIN"
	RoleUser       = "ROLE_USER"
)

// KnownRoles lists every role tag the system understands.
var KnownRoles = []string{RoleSuperAdmin, RoleAdmin, RoleUser}

// IsKnownRole reports whether role is one of KnownRoles.
func IsKnownRole(role string) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Roles is the ordered role list of an account, stored as a JSON array of strings.
type Roles []string

// DefaultRoles is the role set given to new and malformed accounts.
func DefaultRoles() Roles {
	return Roles{RoleUser}
}

// Contains reports whether role is present.
func (r Roles) Contains(role string) bool {
	for _, v := range r {
		if v == role {
			return true
		}
	}
	return false
}

// With returns a copy of r with role appended, unless already present.
func (r Roles) With(role string) Roles {
	out := append(Roles(nil), r...)
	if r.Contains(role) {
		return out
	}
	return append(out, role)
}

// Without returns a copy of r with every occurrence of role removed.
func (r Roles) Without(role string) Roles {
	out := make(Roles, 0, len(r))
	for _, v := range r {
		if v != role {
			out = append(out, v)
		}
	}
	return out
}

// Normalize trims entries, drops empty and duplicate tags and falls back to
// DefaultRoles when nothing is left.
func (r Roles) Normalize() Roles {
	out := make(Roles, 0, len(r))
	for _, v := range r {
		v = strings.TrimSpace(v)
		if v == "" || out.Contains(v) {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return DefaultRoles()
	}
	return out
}

// ParseRoles decodes the storage encoding. Empty or malformed input yields DefaultRoles.
func ParseRoles(raw []byte) Roles {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return DefaultRoles()
	}
	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return DefaultRoles()
	}
	return Roles(decoded).Normalize()
}

// Encode returns the JSON array encoding used in the roles column.
func (r Roles) Encode() string {
	b, err := json.Marshal([]string(r.Normalize()))
	if err != nil {
		return `["` + RoleUser + `"]`
	}
	return string(b)
}

// Value implements driver.Valuer for Roles
func (r Roles) Value() (driver.Value, error) {
	return r.Encode(), nil
}

// Scan implements sql.Scanner for Roles
func (r *Roles) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*r = DefaultRoles()
	case []byte:
		*r = ParseRoles(v)
	case string:
		*r = ParseRoles([]byte(v))
	default:
		return fmt.Errorf("unsupported roles column type %T", value)
	}
	return nil
}
