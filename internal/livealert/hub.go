package livealert

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/preferences"
)

// PreferenceLoader resolves a user's preference for every tour they belong to.
type PreferenceLoader interface {
	ResolveUserPreferences(ctx context.Context, userID string) (map[string]preferences.Preference, error)
}

// Hub fans the change stream out to live sessions, grouped by user.
// Publish never blocks; a session whose queue is full misses the change.
type Hub struct {
	loader PreferenceLoader
	loc    *time.Location

	mu       sync.RWMutex
	sessions map[string]map[int64]*Session
	nextID   int64
}

// NewHub creates a hub. loc is the calendar location for day-window checks.
func NewHub(loader PreferenceLoader, loc *time.Location) *Hub {
	return &Hub{
		loader:   loader,
		loc:      loc,
		sessions: make(map[string]map[int64]*Session),
	}
}

// Attach opens a subscribed session for userID. The session runs until ctx
// is done, then it is closed and removed from the hub.
func (h *Hub) Attach(ctx context.Context, userID string) (*Session, error) {
	prefs, err := h.loader.ResolveUserPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	s, err := NewSession(Config{
		UserID:      userID,
		Tours:       tourIDs(prefs),
		Preferences: prefs,
		Location:    h.loc,
	})
	if err != nil {
		return nil, err
	}
	s.Subscribe()
	h.register(s)

	go s.Run(ctx)
	go func() {
		select {
		case <-ctx.Done():
		case <-s.Done():
		}
		s.Close()
		h.unregister(s)
	}()

	slog.Info("Live session attached", "user_id", userID, "tours", len(prefs))
	return s, nil
}

// Publish offers the change to every session watching its tour and returns
// how many accepted it.
func (h *Hub) Publish(e *events.ChangeEvent) int {
	h.mu.RLock()
	var targets []*Session
	for _, byID := range h.sessions {
		for _, s := range byID {
			if s.Watches(e.TourID) {
				targets = append(targets, s)
			}
		}
	}
	h.mu.RUnlock()

	queued := 0
	for _, s := range targets {
		if s.Offer(e) {
			queued++
		}
	}
	return queued
}

// Refresh reloads a user's tours and preferences into all their sessions.
func (h *Hub) Refresh(ctx context.Context, userID string) error {
	h.mu.RLock()
	n := len(h.sessions[userID])
	h.mu.RUnlock()
	if n == 0 {
		return nil
	}

	prefs, err := h.loader.ResolveUserPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}
	tours := tourIDs(prefs)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions[userID] {
		s.ToursChanged(tours, prefs)
	}
	return nil
}

// SessionCount returns the number of attached sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, byID := range h.sessions {
		n += len(byID)
	}
	return n
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	s.id = h.nextID
	if _, ok := h.sessions[s.userID]; !ok {
		h.sessions[s.userID] = make(map[int64]*Session)
	}
	h.sessions[s.userID][s.id] = s
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byID := h.sessions[s.userID]
	if byID == nil {
		return
	}
	delete(byID, s.id)
	if len(byID) == 0 {
		delete(h.sessions, s.userID)
	}
}

func tourIDs(prefs map[string]preferences.Preference) []string {
	ids := make([]string, 0, len(prefs))
	for id := range prefs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
