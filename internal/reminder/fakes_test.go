package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
)

type fakeStore struct {
	mu sync.Mutex

	candidates  []*database.ReminderCandidate
	scheduled   []*database.ScheduledMessage
	log         map[string]bool
	outbound    []string
	sweptBefore time.Time

	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{log: map[string]bool{}}
}

func logKey(refID, recipient, kind string) string {
	return refID + "|" + recipient + "|" + kind
}

func (f *fakeStore) ListReminderCandidates(context.Context) ([]*database.ReminderCandidate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.candidates, nil
}

func (f *fakeStore) ClaimDelivery(_ context.Context, refID, recipient, kind string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := logKey(refID, recipient, kind)
	if f.log[key] {
		return false, nil
	}
	f.log[key] = true
	return true, nil
}

func (f *fakeStore) ReleaseDelivery(_ context.Context, refID, recipient, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.log, logKey(refID, recipient, kind))
	return nil
}

func (f *fakeStore) RecordOutbound(_ context.Context, refID, kind, phone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbound = append(f.outbound, refID+"|"+kind+"|"+phone)
	return nil
}

func (f *fakeStore) ListDueScheduledMessages(_ context.Context, cutoff time.Time) ([]*database.ScheduledMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*database.ScheduledMessage
	for _, m := range f.scheduled {
		if !m.Sent && !m.SendAt.After(cutoff) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkScheduledMessageSent(_ context.Context, messageID string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.scheduled {
		if m.MessageID == messageID {
			m.Sent = true
			m.SentAt = &sentAt
		}
	}
	return nil
}

func (f *fakeStore) DeleteSentScheduledMessagesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweptBefore = cutoff
	var kept []*database.ScheduledMessage
	var n int64
	for _, m := range f.scheduled {
		if m.Sent && m.SentAt != nil && m.SentAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.scheduled = kept
	return n, nil
}

type sms struct {
	phone string
	body  string
}

type fakeDeliverer struct {
	mu   sync.Mutex
	fail bool
	sent []sms
}

func (d *fakeDeliverer) Deliver(_ context.Context, channel, destination string, msg strategy.Message) strategy.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel != strategy.ChannelSMS {
		return strategy.Fail("unexpected channel " + channel)
	}
	if d.fail {
		return strategy.Fail("gateway returned status 502")
	}
	d.sent = append(d.sent, sms{phone: destination, body: msg.Body})
	return strategy.OK()
}

// heldDeliverer blocks its first call until hold is closed, so a second tick
// can run while the first is mid-send.
type heldDeliverer struct {
	fakeDeliverer
	once    sync.Once
	entered chan struct{}
	hold    chan struct{}
}

func newHeldDeliverer() *heldDeliverer {
	return &heldDeliverer{entered: make(chan struct{}), hold: make(chan struct{})}
}

func (d *heldDeliverer) Deliver(ctx context.Context, channel, destination string, msg strategy.Message) strategy.Result {
	first := false
	d.once.Do(func() { first = true })
	if first {
		close(d.entered)
		<-d.hold
	}
	return d.fakeDeliverer.Deliver(ctx, channel, destination, msg)
}
