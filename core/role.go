package core

import "fmt"

// Role is the closed set of identities the platform knows about. Parsing is
// the only way a string becomes a Role, so a typo in a stored role fails
// loudly instead of silently denying (or granting) access.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleMentor:
		return RoleMentor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// AuthorizeRole decides whether the identity's role is in the allowed set.
// It never fails for a well-formed identity; an identity carrying a role
// outside the enumeration is rejected like any other mismatch.
func AuthorizeRole(id Identity, allowed ...Role) error {
	if !id.Role.Valid() {
		return ErrForbidden
	}
	for _, role := range allowed {
		if id.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
