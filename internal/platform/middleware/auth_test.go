package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "caseledger/pkg/domain"
	"caseledger/pkg/requestcontext"
)

const testSigningKey = "unit-test-signing-key"

func signToken(t *testing.T, subject, email, role string) string {
	t.Helper()
	claims := IdentityClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func TestHMACValidator(t *testing.T) {
	validator := NewHMACValidator(testSigningKey)
	userID := id.NewUserID()

	t.Run("valid token yields AppUser", func(t *testing.T) {
		token := signToken(t, userID.String(), "a@example.com", "ATTORNEY")
		user, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, id.RoleAttorney, user.Role)
		assert.Equal(t, "a@example.com", user.Email)
	})

	t.Run("unrecognized role rejected at the boundary", func(t *testing.T) {
		token := signToken(t, userID.String(), "a@example.com", "SUPERUSER")
		_, err := validator.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("wrong signing key rejected", func(t *testing.T) {
		other := NewHMACValidator("some-other-key")
		token := signToken(t, userID.String(), "a@example.com", "ADMIN")
		_, err := other.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("malformed subject rejected", func(t *testing.T) {
		token := signToken(t, "not-a-uuid", "a@example.com", "ADMIN")
		_, err := validator.ValidateToken(token)
		require.Error(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	validator := NewHMACValidator(testSigningKey)
	userID := id.NewUserID()

	var captured id.AppUser
	handler := RequireAuth(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.User(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header is 401", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/registries", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/registries", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token passes identity through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/registries", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID.String(), "s@example.com", "SYSTEM"))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, userID, captured.ID)
		assert.Equal(t, id.RoleSystem, captured.Role)
	})
}
