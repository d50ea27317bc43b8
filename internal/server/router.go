package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracewire-systems/wsrecorder/internal/handlers"
	"github.com/tracewire-systems/wsrecorder/internal/middleware"
)

// NewRouter constructs a ServeMux with the control API routes registered.
// relay, when non-nil, mounts the websocket proxy endpoint.
func NewRouter(h *handlers.ControlHandler, relay http.Handler) http.Handler {
	mux := http.NewServeMux()

	// Control API
	mux.HandleFunc("/api/v1/options", h.HandleOptions)
	mux.HandleFunc("/api/v1/output", h.HandleOutput)
	mux.HandleFunc("/api/v1/status", h.HandleStatus)
	mux.HandleFunc("/api/v1/errors", h.HandleErrors)

	// Websocket relay
	if relay != nil {
		mux.Handle("/relay", relay)
	}

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
