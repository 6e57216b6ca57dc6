package livealert

import (
	"context"
	"sync"

	"github.com/afikmenashe/roadcrew/internal/preferences"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
)

type fakeLoader struct {
	mu    sync.Mutex
	prefs map[string]map[string]preferences.Preference
	err   error
}

func (f *fakeLoader) ResolveUserPreferences(_ context.Context, userID string) (map[string]preferences.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.prefs[userID], nil
}

func (f *fakeLoader) set(userID string, prefs map[string]preferences.Preference) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[userID] = prefs
}

type recordingChannel struct {
	mu       sync.Mutex
	messages []strategy.Message
}

func (r *recordingChannel) Channel() string { return strategy.ChannelVisual }
func (r *recordingChannel) Deliver(_ context.Context, _ string, msg strategy.Message) strategy.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return strategy.OK()
}

func (r *recordingChannel) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}
