package testutil

import (
	"net/http"

	id "caseledger/pkg/domain"
	"caseledger/pkg/requestcontext"
)

// WithUser adds an authenticated identity to the request context, simulating
// what the auth middleware does for authenticated requests.
func WithUser(req *http.Request, user id.AppUser) *http.Request {
	ctx := requestcontext.WithUser(req.Context(), user)
	return req.WithContext(ctx)
}

// AdminUser returns a fresh ADMIN identity for tests.
func AdminUser() id.AppUser {
	return id.AppUser{ID: id.NewUserID(), Email: "admin@example.com", Role: id.RoleAdmin}
}

// AttorneyUser returns a fresh ATTORNEY identity for tests.
func AttorneyUser() id.AppUser {
	return id.AppUser{ID: id.NewUserID(), Email: "attorney@example.com", Role: id.RoleAttorney}
}

// SystemUser returns a fresh SYSTEM identity for tests.
func SystemUser() id.AppUser {
	return id.AppUser{ID: id.NewUserID(), Email: "system@example.com", Role: id.RoleSystem}
}
