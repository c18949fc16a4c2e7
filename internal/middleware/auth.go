package middleware

import (
	"net/http"

	"versify/internal/httputil"
)

// AuthStub is a simple auth stub that injects a fixed test user ID.
// In Phase 2, this will be replaced with real Supabase auth (JWT validation).
func AuthStub(testUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = httputil.WithUserID(r, testUserID)
			next.ServeHTTP(w, r)
		})
	}
}
