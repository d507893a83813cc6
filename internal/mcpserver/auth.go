package mcpserver

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

var (
	errMissingKey = errors.New("missing API key")
	errInvalidKey = errors.New("invalid API key")
)

// authContextKey is the context key for auth results.
type authContextKey struct{}

// AuthResult holds the result of API key validation.
type AuthResult struct {
	Authenticated bool
	KeyID         string // hash prefix for logging
}

// WithAuthResult stores the auth result in context.
func WithAuthResult(ctx context.Context, result AuthResult) context.Context {
	return context.WithValue(ctx, authContextKey{}, result)
}

// AuthFromContext retrieves the auth result from context.
func AuthFromContext(ctx context.Context) AuthResult {
	result, ok := ctx.Value(authContextKey{}).(AuthResult)
	if !ok {
		return AuthResult{Authenticated: false}
	}
	return result
}

// APIKeyAuth checks bearer tokens against one configured key. Only the
// SHA-256 of the key is kept.
type APIKeyAuth struct {
	hash [sha256.Size]byte
}

// NewAPIKeyAuth returns nil for an empty key, which disables auth.
func NewAPIKeyAuth(key string) *APIKeyAuth {
	if key == "" {
		return nil
	}
	return &APIKeyAuth{hash: sha256.Sum256([]byte(key))}
}

// Validate checks an Authorization header value.
func (a *APIKeyAuth) Validate(header string) (AuthResult, error) {
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return AuthResult{}, errMissingKey
	}
	hash := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(hash[:], a.hash[:]) != 1 {
		return AuthResult{}, errInvalidKey
	}
	return AuthResult{Authenticated: true, KeyID: hex.EncodeToString(hash[:4])}, nil
}

// Middleware rejects requests without a valid bearer token. A nil
// APIKeyAuth passes every request through.
func (a *APIKeyAuth) Middleware(next http.Handler, logger *slog.Logger) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := a.Validate(r.Header.Get("Authorization"))
		if err != nil {
			logger.WarnContext(r.Context(), "Rejected MCP request", "remote", r.RemoteAddr, "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="creatorpilot"`)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), result)))
	})
}
