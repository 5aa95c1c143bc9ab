package router

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// middlewareBearerToken guards every non public route with a static token.
// An empty token disables the check.
func middlewareBearerToken(token string, publicEndpoints map[string]map[string]struct{}) Middleware {
	if token == "" {
		slog.Warn("app.server.auth_token is empty, api authentication is disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, public := publicEndpoints[r.Method][matchedRoutePath(r)]; public {
				next.ServeHTTP(w, r)
				return
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(p[1]), want) != 1 {
				writeJSON(w, errorResponse{Message: "Invalid token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
