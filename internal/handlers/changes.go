package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/afikmenashe/roadcrew/internal/apperr"
	"github.com/afikmenashe/roadcrew/internal/authoring"
	"github.com/afikmenashe/roadcrew/internal/events"
)

// CreateChange records a change and fans it out when the author may.
// POST /api/v1/changes
func (h *Handlers) CreateChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in authoring.ChangeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.authoring.RecordChange(r.Context(), userID, in)
	if err != nil {
		writeError(w, err, "record change")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListChanges returns a tour's recent changes, newest first.
// GET /api/v1/changes?tour_id=
func (h *Handlers) ListChanges(w http.ResponseWriter, r *http.Request) {
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

	ctx := r.Context()
	if _, err := h.db.GetMember(ctx, tourID, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = fmt.Errorf("%w: not a member of tour %s", apperr.ErrPermission, tourID)
		}
		writeError(w, err, "list changes")
		return
	}

	changes, err := h.db.ListChanges(ctx, tourID, limit)
	if err != nil {
		writeError(w, err, "list changes")
		return
	}
	if changes == nil {
		changes = []*events.ChangeEvent{}
	}
	writeJSON(w, http.StatusOK, changes)
}

// TriggerFanout delivers the tour's unprocessed changes.
// POST /api/v1/tours/fanout?tour_id=
func (h *Handlers) TriggerFanout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tourID, ok := requireQuery(w, r, "tour_id")
	if !ok {
		return
	}

	res, err := h.fanout.Fanout(r.Context(), userID, tourID)
	if err != nil {
		writeError(w, err, "fan out changes")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
