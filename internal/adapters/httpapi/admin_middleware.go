package httpapi

import (
	"net/http"
	"strings"

	"github.com/minnehack/registration-api/internal/platform/adminsession"
)

// DenyFunc writes the response for a request that failed the admin gate.
type DenyFunc func(w http.ResponseWriter, r *http.Request)

func denyJSON(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "admin session required", nil)
}

// denyScanner keeps the response shape the check-in scanner app expects.
func denyScanner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusUnauthorized, scannerResponse{Success: false, Error: "Not authorized"})
}

// RequireAdmin admits requests carrying a valid session in the admin_session cookie or an
// Authorization: Bearer header.
func RequireAdmin(sessions *adminsession.Manager, deny DenyFunc) func(http.Handler) http.Handler {
	if deny == nil {
		deny = denyJSON
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := sessionToken(r)
			if raw == "" || sessions.Verify(raw) != nil {
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context())))
		})
	}
}

func sessionToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(authz, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(authz, prefix))
		}
		return ""
	}
	if c, err := r.Cookie(adminsession.CookieName); err == nil {
		return c.Value
	}
	return ""
}
