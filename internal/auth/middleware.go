package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const credentialKey contextKey = "credential"

// CaptureCredential copies the raw bearer credential from the Authorization
// header into the request context.
//
// It never rejects a request: validation belongs to the note service, which
// runs the session check itself so REST and GraphQL behave identically. A
// missing header yields an empty credential, which the service treats as an
// invalid token.
func CaptureCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), token)))
	})
}

// WithCredential returns a copy of ctx carrying token.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey, token)
}

// CredentialFromContext returns the raw credential, or "" if none was sent.
func CredentialFromContext(ctx context.Context) string {
	token, _ := ctx.Value(credentialKey).(string)
	return token
}

// BearerToken extracts the token from an Authorization header value.
// Both "Bearer <token>" and a bare "<token>" are accepted.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
