package handlers

import (
	"log/slog"
	"net/http"

	"github.com/afikmenashe/roadcrew/pkg/metrics"
)

// ServiceMetricsResponse wraps service metrics with the known service list.
type ServiceMetricsResponse struct {
	Services      map[string]*metrics.ServiceMetrics `json:"services"`
	KnownServices []string                           `json:"known_services"`
}

// GetServiceMetrics returns the counters each binary reports to Redis.
// GET /api/v1/services/metrics
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metricsReader == nil {
		http.Error(w, "Metrics not available", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()

	if name := r.URL.Query().Get("service"); name != "" {
		m, err := h.metricsReader.GetServiceMetrics(ctx, name)
		if err != nil {
			slog.Debug("Service metrics not found", "service", name, "error", err)
			http.Error(w, "Service metrics not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, m)
		return
	}

	writeJSON(w, http.StatusOK, ServiceMetricsResponse{
		Services:      h.metricsReader.GetAllServiceMetrics(ctx),
		KnownServices: metrics.ServiceNames,
	})
}

// StreamAlerts serves the caller's live alerts.
// GET /api/v1/alerts/stream
func (h *Handlers) StreamAlerts(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		http.Error(w, "Live alerts not available", http.StatusServiceUnavailable)
		return
	}
	h.stream.ServeHTTP(w, r)
}
