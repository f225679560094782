// ABOUTME: HTTP middleware for session authentication on API endpoints
// ABOUTME: Reads the session cookie (or a Bearer header) and adds the Identity to context

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Authenticator verifies session tokens.
type Authenticator interface {
	Authenticate(token string) (*Identity, error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns an empty string when the header is missing or malformed.
func extractBearerToken(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// ExtractToken returns the session token from the named cookie, falling back to
// the Authorization header for non-browser clients.
func ExtractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return extractBearerToken(r.Header.Get("Authorization"))
}

// HTTPAuthMiddleware creates an HTTP middleware that rejects requests without a
// valid session token and adds the caller's Identity to the request context.
func HTTPAuthMiddleware(authn Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)
			if token == "" {
				writeUnauthorized(w, "Token is missing")
				return
			}

			id, err := authn.Authenticate(token)
			if err != nil {
				msg := "Token is invalid"
				switch {
				case errors.Is(err, ErrExpiredToken):
					msg = "Token has expired"
				case errors.Is(err, ErrRevokedToken):
					msg = "Token has been revoked"
				}
				writeUnauthorized(w, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
