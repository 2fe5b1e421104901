package server

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const adminUser = "admin"

// adminAuthMiddleware guards catalog edits with HTTP basic auth against a
// bcrypt hash. An empty hash disables the admin API.
func adminAuthMiddleware(passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if passwordHash == "" {
				writeError(w, http.StatusForbidden, "admin API disabled")
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(adminUser)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="brainlab admin"`)
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
