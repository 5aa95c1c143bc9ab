package app

import (
	"net/http"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (h healthResponse) Message() string { return "service is " + h.Status }

func (h healthResponse) StatusCode() int {
	if h.Status != "ready" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// health reports ready only between a successful Start and Stop.
func (a *App) health(*router.Request) (any, error) {
	if !a.ready.Load() {
		return healthResponse{Status: "unavailable"}, nil
	}
	return healthResponse{Status: "ready"}, nil
}
