// internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "user_id"

// RequireUser resolves the acting user from the X-User-Id header. It stands
// in for session authentication, which lives in front of this service.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-Id")
		if raw == "" {
			http.Error(w, "missing X-User-Id header", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid X-User-Id header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user set by RequireUser.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}
