package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kozaktomas/photo-diary/internal/constants"
)

type contextKey string

const ownerContextKey contextKey = "owner"

// WithOwner is middleware that puts the diary owner into the request context.
// The owner comes from the X-Diary-Owner header and falls back to defaultOwner.
func WithOwner(defaultOwner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := strings.TrimSpace(r.Header.Get(constants.OwnerHeader))
			if owner == "" {
				owner = defaultOwner
			}
			next.ServeHTTP(w, r.WithContext(SetOwnerInContext(r.Context(), owner)))
		})
	}
}

// SetOwnerInContext stores the owner in ctx. Used by the middleware and in tests.
func SetOwnerInContext(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerContextKey, owner)
}

// GetOwner retrieves the owner from the request context, "" if none was set.
func GetOwner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerContextKey).(string)
	return owner
}
