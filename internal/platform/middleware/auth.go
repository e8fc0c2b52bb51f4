package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "caseledger/pkg/domain"
	"caseledger/pkg/requestcontext"
)

// IdentityClaims is the shape of the identity token the external identity
// collaborator issues: who the caller is, their email, and their coarse role.
type IdentityClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Validator validates a bearer token and returns the identity it asserts.
type Validator interface {
	ValidateToken(tokenString string) (id.AppUser, error)
}

// HMACValidator validates HS256 tokens signed by the identity collaborator.
type HMACValidator struct {
	signingKey []byte
}

// NewHMACValidator builds a Validator around a shared signing key.
func NewHMACValidator(signingKey string) *HMACValidator {
	return &HMACValidator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies the token, then maps its claims onto an
// AppUser. Unknown roles are rejected here, at the trust boundary, so nothing
// downstream ever sees an unrecognized role on an authenticated identity.
func (v *HMACValidator) ValidateToken(tokenString string) (id.AppUser, error) {
	var claims IdentityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.signingKey, nil
	})
	if err != nil {
		return id.AppUser{}, err
	}
	if !token.Valid {
		return id.AppUser{}, jwt.ErrTokenUnverifiable
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return id.AppUser{}, err
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return id.AppUser{}, err
	}
	return id.AppUser{ID: userID, Email: claims.Email, Role: role}, nil
}

// RequireAuth rejects requests without a valid bearer token and injects the
// authenticated AppUser into the request context.
func RequireAuth(validator Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			user, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUser(ctx, user)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
