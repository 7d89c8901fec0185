package auth

import (
	"net/http"
	"strings"
)

// RequireAdmin guards destructive admin routes. It accepts the session
// token either as "Authorization: Bearer <token>" (the dashboard's fetch
// calls) or in an "admin_token" cookie (the plain-link xlsx download,
// where the browser can't attach a header).
//
// Missing or invalid tokens end the request with 401; the handler chain
// never runs.
func RequireAdmin(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := tokens.Validate(extractToken(r)); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"admin authorization required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := r.Cookie("admin_token"); err == nil {
		return cookie.Value
	}
	return ""
}
