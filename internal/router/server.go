package router

import (
	"net/http"
	"time"

	"github.com/afikmenashe/roadcrew/internal/handlers"
	"github.com/afikmenashe/roadcrew/internal/metrics"
)

// NewServer creates a new HTTP server with the router configured.
// The alert stream clears its own write deadline.
func NewServer(port string, h *handlers.Handlers, rec metrics.Recorder) *http.Server {
	router := NewRouter(h, rec)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
