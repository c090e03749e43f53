package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// RequireAuth redirects unauthenticated requests to the login page, remembering the
// requested path in the next parameter.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := a.SessionFromRequest(r)
		if !s.Authenticated {
			slog.DebugContext(r.Context(), "Unauthenticated request redirected", "path", r.URL.Path)
			target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// SafeNext returns next when it is a local absolute path and "/" otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return next
}
