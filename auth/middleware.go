// Package auth, HTTP middleware. The token travels in the x-auth-token header
// (not the Authorization header), matching the wire contract this service
// implements.
package auth

import (
	"context"
	"net/http"
)

// TokenHeader is the request header carrying the session token.
const TokenHeader = "x-auth-token"

// ContextKey is a type used for context keys to avoid collisions.
type ContextKey string

// UserIDKey is the key under which the authenticated user's id is stored in
// the request context.
const UserIDKey ContextKey = "userID"

// Middleware authenticates the x-auth-token header on every request and adds
// the resolved user id to the context. Requests with missing, malformed,
// expired, or revoked tokens are rejected with 401 before reaching a handler.
func Middleware(service *Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := service.Authenticate(r.Context(), r.Header.Get(TokenHeader))
			if err != nil {
				WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext retrieves the authenticated user id set by Middleware.
// Returns 0 and false if no user id is present.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}
