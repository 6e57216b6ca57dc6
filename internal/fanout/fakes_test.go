package fanout

import (
	"context"
	"sync"

	"github.com/afikmenashe/roadcrew/internal/apperr"
	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/preferences"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
)

type fakeStore struct {
	mu sync.Mutex

	members     []*database.Member
	changes     []*events.ChangeEvent
	userPrefs   map[string]*preferences.Preference
	tourDefault *preferences.Preference
	claims      map[string]bool

	listMembersErr error
	claimErr       error
	markCalls      map[string]int
}

func newFakeStore(members []*database.Member, changes ...*events.ChangeEvent) *fakeStore {
	return &fakeStore{
		members:   members,
		changes:   changes,
		userPrefs: map[string]*preferences.Preference{},
		claims:    map[string]bool{},
		markCalls: map[string]int{},
	}
}

func (f *fakeStore) GetMember(_ context.Context, tourID, userID string) (*database.Member, error) {
	for _, m := range f.members {
		if m.TourID == tourID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, apperr.NotFound("member", userID)
}

func (f *fakeStore) ListUnprocessedChanges(_ context.Context, tourID string) ([]*events.ChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*events.ChangeEvent
	for _, e := range f.changes {
		if e.TourID == tourID && !e.Processed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListMembers(context.Context, string) ([]*database.Member, error) {
	if f.listMembersErr != nil {
		return nil, f.listMembersErr
	}
	return f.members, nil
}

func (f *fakeStore) ListTourPreferences(context.Context, string) (map[string]*preferences.Preference, error) {
	return f.userPrefs, nil
}

func (f *fakeStore) GetTourDefaultPreference(context.Context, string) (*preferences.Preference, error) {
	return f.tourDefault, nil
}

func claimKey(refID, recipient, kind string) string {
	return refID + "|" + recipient + "|" + kind
}

func (f *fakeStore) ClaimDelivery(_ context.Context, refID, recipient, kind string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	key := claimKey(refID, recipient, kind)
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeStore) ReleaseDelivery(_ context.Context, refID, recipient, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, claimKey(refID, recipient, kind))
	return nil
}

func (f *fakeStore) MarkChangeProcessed(_ context.Context, changeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls[changeID]++
	for _, e := range f.changes {
		if e.ID == changeID && !e.Processed {
			e.Processed = true
			return true, nil
		}
	}
	return false, nil
}

type delivery struct {
	channel     string
	destination string
	msg         strategy.Message
}

type fakeDeliverer struct {
	mu         sync.Mutex
	channels   map[string]bool
	failFor    map[string]bool
	deliveries []delivery
}

func newFakeDeliverer(channels ...string) *fakeDeliverer {
	d := &fakeDeliverer{channels: map[string]bool{}, failFor: map[string]bool{}}
	for _, c := range channels {
		d.channels[c] = true
	}
	return d
}

func (d *fakeDeliverer) Has(channel string) bool { return d.channels[channel] }

func (d *fakeDeliverer) Deliver(_ context.Context, channel, destination string, msg strategy.Message) strategy.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[destination] {
		return strategy.Fail("storage unavailable")
	}
	d.deliveries = append(d.deliveries, delivery{channel: channel, destination: destination, msg: msg})
	return strategy.OK()
}

func (d *fakeDeliverer) to(channel string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, del := range d.deliveries {
		if del.channel == channel {
			out = append(out, del.destination)
		}
	}
	return out
}
