package router

import (
	"net/http"
)

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	// Changes
	r.mux.HandleFunc("/api/v1/changes", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateChange(w, req)
		case http.MethodGet:
			r.handlers.ListChanges(w, req)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/tours/fanout", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.TriggerFanout(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Preferences
	r.mux.HandleFunc("/api/v1/preferences", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			r.handlers.GetPreference(w, req)
		case http.MethodPut:
			r.handlers.UpdatePreference(w, req)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Reminders and scheduled SMS
	r.mux.HandleFunc("/api/v1/reminders", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.SaveReminder(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/scheduled-messages", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.ScheduleMessage(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/scheduled-messages/delete", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodDelete {
			r.handlers.CancelScheduledMessage(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Inbox and live alerts
	r.mux.HandleFunc("/api/v1/messages", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.ListMessages(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/alerts/stream", r.handlers.StreamAlerts)

	// Service metrics (from Redis)
	r.mux.HandleFunc("/api/v1/services/metrics", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.GetServiceMetrics(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
