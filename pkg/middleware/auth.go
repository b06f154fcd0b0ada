package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// UserIDHeader is set by the gateway on requests it has already authenticated.
const UserIDHeader = "X-User-ID"

// Claims is the identity extracted from a bearer token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// IdentityConfig controls how Identity resolves the caller.
type IdentityConfig struct {
	// Validate verifies bearer tokens. Nil disables bearer authentication.
	Validate TokenValidator
	// TrustUserHeader accepts UserIDHeader when no bearer token is present.
	TrustUserHeader bool
}

// Identity resolves the calling user and stores its id in the request context.
// A bearer token, when present, always wins over the gateway header; an
// invalid token is rejected even if the header is set.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string

			if authHeader := r.Header.Get("Authorization"); authHeader != "" && cfg.Validate != nil {
				scheme, token, ok := strings.Cut(authHeader, " ")
				if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
					writeAuthError(w, "invalid authorization header format")
					return
				}
				claims, err := cfg.Validate(token)
				if err != nil {
					writeAuthError(w, "invalid or expired token")
					return
				}
				userID = claims.UserID
			} else if cfg.TrustUserHeader {
				userID = strings.TrimSpace(r.Header.Get(UserIDHeader))
			}

			if userID == "" {
				writeAuthError(w, "missing user identity")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
