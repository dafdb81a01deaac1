// Package auth verifies bearer tokens and enforces role-based access.
// Tokens are HMAC-signed JWTs carrying {user_id, role}; user and session
// management (issuing tokens, registration, password flows) live outside
// this server.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// User is the authenticated identity extracted from a bearer token.
type User struct {
	ID   string
	Role string
}

type contextKey string

// userContextKey is unexported so only this package can attach the identity.
const userContextKey contextKey = "auth.user"

// UserFromContext returns the identity stored by Authenticate.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey).(User)
	return u, ok
}

// ContextWithUser attaches an identity; exported for handler tests.
func ContextWithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// Authenticate rejects requests without a valid bearer token and stores the
// token's identity in the request context. Missing tokens get 401, invalid
// ones 403 (matching the API's established envelope).
func Authenticate(secret string) func(http.Handler) http.Handler {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeEnvelope(w, http.StatusUnauthorized, "unauthorized: no token provided")
				return
			}

			token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), keyFunc)
			if err != nil || !token.Valid {
				writeEnvelope(w, http.StatusForbidden, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeEnvelope(w, http.StatusForbidden, "invalid token")
				return
			}

			user := User{
				ID:   stringClaim(claims, "user_id"),
				Role: stringClaim(claims, "role"),
			}
			if user.ID == "" || user.Role == "" {
				writeEnvelope(w, http.StatusForbidden, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// Authorize allows only the listed roles past. Must run after Authenticate.
func Authorize(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !allowed[user.Role] {
				writeEnvelope(w, http.StatusForbidden, "forbidden: you don't have access to this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeEnvelope emits the API's {code, message} envelope; auth failures use
// code 0 (handled, not a server fault).
func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    0,
		"message": message,
	})
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
