package entity

import "strings"

// Role decides what a caller may see and change.
// Librarians and admins manage the catalog and see every loan; readers only their own.
type Role string

const (
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
	RoleReader    Role = "READER"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleLibrarian, RoleAdmin, RoleReader:
		return r, true
	}
	return "", false
}

// IsLibrarian is true for roles with full catalog and loan visibility.
func (r Role) IsLibrarian() bool {
	return r == RoleLibrarian || r == RoleAdmin
}
