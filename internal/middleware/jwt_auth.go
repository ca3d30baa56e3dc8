package middleware

import (
	"net/http"
	"strings"

	"github.com/watchtowerx/wtx-backend/internal/tokens"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*tokens.Claims, error)
}

// JWTAuth guards destructive routes (bulk delete, export) when a signing
// key is configured. With a nil validator the middleware is a passthrough
// so open deployments keep working.
type JWTAuth struct {
	tokens TokenValidator
}

func NewJWTAuth(t TokenValidator) *JWTAuth {
	return &JWTAuth{tokens: t}
}

func (m *JWTAuth) Middleware(next http.Handler) http.Handler {
	if m.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := m.tokens.ValidateToken(parts[1]); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
