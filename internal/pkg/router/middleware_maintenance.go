package router

import (
	"net/http"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the route patterns listed under
// app.maintenance.endpoints, e.g. "/api/v1/authenticator/accounts/scan".
func middlewareMaintenance(cfg config.Config) Middleware {
	endpoints := make(map[string]struct{})
	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			endpoints[endpoint] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(endpoints) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, blocked := endpoints[matchedRoutePath(r)]; blocked {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
