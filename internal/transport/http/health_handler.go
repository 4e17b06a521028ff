package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// HealthHandler handles health-related HTTP requests.
type HealthHandler struct {
	service DashboardService
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service DashboardService, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version}
}

// HealthCheck handles GET /health. A dataset that cannot be loaded answers 503;
// stale data is still healthy.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health(r.Context())
	if status.Status == "error" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, map[string]interface{}{
		"version": h.version,
		"dataset": status,
		"status":  status.Status,
	})
}

// LivenessCheck handles GET /health/live.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "alive"})
}
