package http

import (
	"net/http"
	"strings"
)

// SecurityHeaders adds security-related headers to all responses.
// Files under the uploads prefix may be embedded by frontends on other origins.
func SecurityHeaders(uploadsPrefix string) func(http.Handler) http.Handler {
	uploadsPath := "/" + uploadsPrefix + "/"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'none'")

			if strings.HasPrefix(r.URL.Path, uploadsPath) {
				w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
			} else {
				w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
			}

			next.ServeHTTP(w, r)
		})
	}
}
