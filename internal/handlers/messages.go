package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/afikmenashe/roadcrew/internal/authoring"
	"github.com/afikmenashe/roadcrew/internal/database"
)

// SaveReminder creates or replaces the caller's reminder for a schedule event.
// POST /api/v1/reminders
func (h *Handlers) SaveReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in authoring.ReminderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.authoring.SaveReminder(r.Context(), userID, in)
	if err != nil {
		writeError(w, err, "save reminder")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ScheduleMessage stores a one-shot SMS for later delivery.
// POST /api/v1/scheduled-messages
func (h *Handlers) ScheduleMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in authoring.ScheduleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	m, err := h.authoring.ScheduleMessage(r.Context(), userID, in)
	if err != nil {
		writeError(w, err, "schedule message")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// CancelScheduledMessage deletes one of the caller's unsent messages.
// DELETE /api/v1/scheduled-messages/delete?message_id=
func (h *Handlers) CancelScheduledMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	messageID, ok := requireQuery(w, r, "message_id")
	if !ok {
		return
	}

	if err := h.authoring.CancelScheduledMessage(r.Context(), userID, messageID); err != nil {
		writeError(w, err, "cancel scheduled message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages returns the caller's in-app inbox for a tour.
// GET /api/v1/messages?tour_id=
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tourID, ok := requireQuery(w, r, "tour_id")
	if !ok {
		return
	}
	limit, ok := parseLimit(r)
	if !ok {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	msgs, err := h.db.ListMessages(r.Context(), userID, tourID, limit)
	if err != nil {
		writeError(w, err, "list messages")
		return
	}
	if msgs == nil {
		msgs = []*database.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}
