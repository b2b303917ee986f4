package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/oggyb/swipe-server/internal/utils/respond"
)

type ctxKey struct{}

// WithUserID stores the authenticated user id on ctx.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user id placed by Middleware.
func UserID(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(ctxKey{}).(uint64)
	return id, ok && id != 0
}

// Middleware rejects requests without a valid bearer token. Paths listed
// in public pass through untouched.
func Middleware(secret []byte, public ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(public))
	for _, p := range public {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				respond.Message(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := GetUserIDFromToken(strings.TrimSpace(raw), secret)
			if err != nil {
				respond.Message(w, http.StatusUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RequireUser returns the caller's id or writes a 401 and reports false.
func RequireUser(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, ok := UserID(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}
