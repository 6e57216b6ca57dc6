// Package router provides HTTP routing configuration for the notify-api.
// It sets up routes and applies CORS and metrics middleware.
package router

import (
	"net/http"

	"github.com/afikmenashe/roadcrew/internal/handlers"
	"github.com/afikmenashe/roadcrew/internal/metrics"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux      *http.ServeMux
	handlers *handlers.Handlers
	metrics  metrics.Recorder
}

// NewRouter creates a new router with all routes configured.
// A nil recorder disables request metrics.
func NewRouter(h *handlers.Handlers, rec metrics.Recorder) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		metrics:  metrics.OrNoOp(rec),
	}
	r.setupRoutes()
	return r
}

// Handler returns the mux wrapped in middleware.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(metricsMiddleware(r.metrics)(r.mux))
}
