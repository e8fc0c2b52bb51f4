package domain

import dErrors "caseledger/pkg/domain-errors"

// Role is the coarse capability level carried by an authenticated identity.
// The set is closed; anything outside it is unrecognized and denied
// everywhere. Never add a fallthrough branch that grants access.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAttorney Role = "ATTORNEY"
	RoleSystem   Role = "SYSTEM"
)

// ParseRole validates a role string. Unknown values are an error so callers
// are forced to handle unrecognized roles explicitly rather than letting them
// drift through as a zero value.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleAttorney, RoleSystem:
		return Role(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unrecognized role %q", raw)
	}
}

// Recognized reports whether the role is one of the closed set. A zero or
// tampered Role fails this check and must be treated as deny.
func (r Role) Recognized() bool {
	switch r {
	case RoleAdmin, RoleAttorney, RoleSystem:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// AppUser is the identity object the core consumes. It is supplied per
// request by the identity collaborator; the core never creates or mutates it.
type AppUser struct {
	ID    UserID
	Email string
	Role  Role
}
