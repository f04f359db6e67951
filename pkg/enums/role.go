package enums

import (
	"fmt"
	"strings"
)

// Role is the account-level permissions role.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

var validRoles = []Role{
	RoleAdmin,
	RoleUser,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. Matching ignores case so "admin"
// and "Admin" resolve to the same value.
func ParseRole(value string) (Role, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range validRoles {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
