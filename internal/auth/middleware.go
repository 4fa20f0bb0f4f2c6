package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware resolves the user once per request and stores it in the
// request context. Unauthenticated page loads are redirected to loginURL;
// API and HTMX requests get a 401 instead.
func Middleware(res Resolver, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := res.CurrentUser(r)
			if err != nil {
				slog.WarnContext(r.Context(), "Unauthenticated request",
					"component", "auth",
					"path", r.URL.Path,
					"error", err)
				if loginURL != "" && wantsPage(r) {
					http.Redirect(w, r, loginURL, http.StatusSeeOther)
					return
				}
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func wantsPage(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.Header.Get("HX-Request") == "true" || strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
