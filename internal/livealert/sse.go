package livealert

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HeartbeatInterval keeps idle streams open through proxies.
const HeartbeatInterval = 25 * time.Second

// StreamHandler serves a user's live alerts as Server-Sent Events.
type StreamHandler struct {
	hub       *Hub
	userID    func(r *http.Request) string
	heartbeat time.Duration
}

// NewStreamHandler creates the SSE handler. userID extracts the caller from
// the request.
func NewStreamHandler(hub *Hub, userID func(r *http.Request) string) *StreamHandler {
	return &StreamHandler{hub: hub, userID: userID, heartbeat: HeartbeatInterval}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "X-User-ID header is required", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("Cannot clear write deadline", "user_id", userID, "error", err)
	}

	ctx := r.Context()
	session, err := h.hub.Attach(ctx, userID)
	if err != nil {
		slog.Error("Failed to attach live session", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer session.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case alert := <-session.Alerts():
			data, err := json.Marshal(alert)
			if err != nil {
				slog.Error("Failed to marshal alert", "user_id", userID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: alert\nid: %s\ndata: %s\n\n", alert.ChangeID, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
