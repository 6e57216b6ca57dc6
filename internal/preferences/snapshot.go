package preferences

import "sync"

// Snapshot holds one user's resolved preferences for each of their tours.
// Readers see either the old or the new set in full; Replace swaps atomically.
type Snapshot struct {
	mu    sync.RWMutex
	prefs map[string]Preference
}

// NewSnapshot creates a snapshot from resolved per-tour preferences.
// The keys are also the user's tour set.
func NewSnapshot(prefs map[string]Preference) *Snapshot {
	return &Snapshot{prefs: copyPrefs(prefs)}
}

// Lookup returns the preference for a tour. Tours missing from the snapshot
// report false.
func (s *Snapshot) Lookup(tourID string) (Preference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[tourID]
	return p, ok
}

// Contains reports whether the user belongs to the tour.
func (s *Snapshot) Contains(tourID string) bool {
	_, ok := s.Lookup(tourID)
	return ok
}

// Replace swaps in a new set of tours and preferences.
func (s *Snapshot) Replace(prefs map[string]Preference) {
	next := copyPrefs(prefs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = next
}

// TourCount returns the number of tours in the snapshot.
func (s *Snapshot) TourCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prefs)
}

func copyPrefs(in map[string]Preference) map[string]Preference {
	out := make(map[string]Preference, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
