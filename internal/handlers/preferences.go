package handlers

import (
	"encoding/json"
	"net/http"
)

// GetPreference returns the caller's effective preference for a tour.
// GET /api/v1/preferences?tour_id=
func (h *Handlers) GetPreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tourID, ok := requireQuery(w, r, "tour_id")
	if !ok {
		return
	}

	p, err := h.authoring.GetPreference(r.Context(), tourID, userID)
	if err != nil {
		writeError(w, err, "get preference")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePreference replaces the caller's preference for a tour.
// PUT /api/v1/preferences?tour_id=
func (h *Handlers) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tourID, ok := requireQuery(w, r, "tour_id")
	if !ok {
		return
	}

	// Omitted fields keep the caller's current effective values.
	p, err := h.authoring.GetPreference(r.Context(), tourID, userID)
	if err != nil {
		writeError(w, err, "save preference")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.authoring.SavePreference(r.Context(), tourID, userID, p)
	if err != nil {
		writeError(w, err, "save preference")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
