// Package handlers provides HTTP handlers for the notify-api.
package handlers

import (
	"net/http"
	"strings"
)

// UserIDHeader carries the authenticated caller. Authentication itself happens
// upstream of this service.
const UserIDHeader = "X-User-ID"

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	authoring     Authoring
	fanout        FanoutRunner
	db            Repository
	metricsReader MetricsReader
	stream        http.Handler
}

// Option is a functional option for configuring Handlers.
type Option func(*Handlers)

// WithMetricsReader enables the service metrics endpoint.
func WithMetricsReader(r MetricsReader) Option {
	return func(h *Handlers) { h.metricsReader = r }
}

// WithAlertStream sets the handler serving live alerts.
func WithAlertStream(s http.Handler) Option {
	return func(h *Handlers) { h.stream = s }
}

// NewHandlers creates a new handlers instance.
func NewHandlers(authoring Authoring, fanout FanoutRunner, db Repository, opts ...Option) *Handlers {
	h := &Handlers{
		authoring: authoring,
		fanout:    fanout,
		db:        db,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// UserID returns the caller named by the X-User-ID header.
func UserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserIDHeader))
}

// requireUser writes 401 and returns false when the caller is anonymous.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := UserID(r)
	if userID == "" {
		http.Error(w, UserIDHeader+" header is required", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// requireQuery writes 400 and returns false when the query parameter is missing.
func requireQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		http.Error(w, name+" query parameter is required", http.StatusBadRequest)
		return "", false
	}
	return v, true
}
