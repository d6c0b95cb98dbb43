// Package api implements the DocFlow REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/docflowapp/docflow/internal/identity"
)

// AuthMiddleware returns middleware that validates the session bearer
// token against the currently signed-in identity. Requests without a
// matching "Authorization: Bearer <token>" header are rejected.
func AuthMiddleware(ids *identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || !ids.ValidToken(strings.TrimPrefix(auth, "Bearer ")) {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware restricts a route group to the configured administrator.
// It must run inside AuthMiddleware.
func AdminMiddleware(ids *identity.Provider, isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := ids.Current()
			if u == nil || !isAdmin(u.Email) {
				writeJSON(w, http.StatusForbidden, errorBody("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
