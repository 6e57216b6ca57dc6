// Package fanout delivers a tour's unprocessed changes to every member's inbox.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/roadcrew/internal/apperr"
	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/metrics"
	"github.com/afikmenashe/roadcrew/internal/preferences"
	"github.com/afikmenashe/roadcrew/internal/severity"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
)

// Store is the persistence the fanout needs.
type Store interface {
	GetMember(ctx context.Context, tourID, userID string) (*database.Member, error)
	ListUnprocessedChanges(ctx context.Context, tourID string) ([]*events.ChangeEvent, error)
	ListMembers(ctx context.Context, tourID string) ([]*database.Member, error)
	ListTourPreferences(ctx context.Context, tourID string) (map[string]*preferences.Preference, error)
	GetTourDefaultPreference(ctx context.Context, tourID string) (*preferences.Preference, error)
	ClaimDelivery(ctx context.Context, refID, recipient, kind string) (bool, error)
	ReleaseDelivery(ctx context.Context, refID, recipient, kind string) error
	MarkChangeProcessed(ctx context.Context, changeID string) (bool, error)
}

// Deliverer routes a message to a channel.
type Deliverer interface {
	Deliver(ctx context.Context, channel, destination string, msg strategy.Message) strategy.Result
	Has(channel string) bool
}

// Result counts what one fanout run did.
type Result struct {
	Sent      int `json:"sent"`
	Processed int `json:"processed"`
}

// Fanout delivers recorded changes to tour members.
type Fanout struct {
	store     Store
	deliverer Deliverer
	metrics   metrics.Recorder
	loc       *time.Location
	now       func() time.Time
}

// Option configures a Fanout.
type Option func(*Fanout)

// WithLocation sets the location used for the recipients' calendar date.
func WithLocation(loc *time.Location) Option {
	return func(f *Fanout) { f.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fanout) { f.now = now }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(f *Fanout) { f.metrics = metrics.OrNoOp(rec) }
}

// New creates a Fanout.
func New(store Store, deliverer Deliverer, opts ...Option) *Fanout {
	f := &Fanout{
		store:     store,
		deliverer: deliverer,
		metrics:   metrics.NoOp{},
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fanout delivers every unprocessed change of tourID to the tour's members,
// oldest first. The caller must be an admin or manager of the tour.
// Each change is marked processed once all members were evaluated; a change
// whose members or preferences could not be loaded stays unprocessed.
func (f *Fanout) Fanout(ctx context.Context, callerID, tourID string) (Result, error) {
	var res Result

	caller, err := f.store.GetMember(ctx, tourID, callerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return res, fmt.Errorf("%w: %s is not a member of tour %s", apperr.ErrPermission, callerID, tourID)
	}
	if err != nil {
		return res, err
	}
	if !caller.CanTriggerFanout() {
		return res, fmt.Errorf("%w: role %s cannot fan out tour %s", apperr.ErrPermission, caller.Role, tourID)
	}

	changes, err := f.store.ListUnprocessedChanges(ctx, tourID)
	if err != nil {
		return res, err
	}
	if len(changes) == 0 {
		return res, nil
	}

	today := preferences.Today(f.now(), f.loc)
	for _, e := range changes {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		start := time.Now()
		f.metrics.RecordReceived()

		sent, err := f.deliverChange(ctx, e, today)
		res.Sent += sent
		if err != nil {
			f.metrics.RecordError()
			slog.Error("Failed to fan out change, leaving it unprocessed",
				"change_id", e.ID,
				"tour_id", tourID,
				"error", err,
			)
			continue
		}

		marked, err := f.store.MarkChangeProcessed(ctx, e.ID)
		if err != nil {
			f.metrics.RecordError()
			slog.Error("Failed to mark change processed", "change_id", e.ID, "error", err)
			continue
		}
		if marked {
			res.Processed++
		}
		f.metrics.RecordProcessed(time.Since(start))
	}

	slog.Info("Fanout complete",
		"tour_id", tourID,
		"caller_id", callerID,
		"changes", len(changes),
		"sent", res.Sent,
		"processed", res.Processed,
	)
	return res, nil
}

// deliverChange evaluates every member for one change and returns how many
// inbox messages were written. An error means the change must stay unprocessed.
func (f *Fanout) deliverChange(ctx context.Context, e *events.ChangeEvent, today time.Time) (int, error) {
	members, err := f.store.ListMembers(ctx, e.TourID)
	if err != nil {
		return 0, err
	}
	userPrefs, err := f.store.ListTourPreferences(ctx, e.TourID)
	if err != nil {
		return 0, err
	}
	tourDefault, err := f.store.GetTourDefaultPreference(ctx, e.TourID)
	if err != nil {
		return 0, err
	}

	msg := strategy.Message{
		TourID:   e.TourID,
		RefID:    e.ID,
		Severity: e.ResolvedSeverity(),
		Subject:  Subject(e),
		Body:     Compose(e, today),
		Tags:     e.ImpactTags(),
	}

	sent := 0
	for _, m := range members {
		if m.UserID == e.AuthorID {
			continue
		}
		pref := preferences.Resolve(userPrefs[m.UserID], tourDefault)
		if !preferences.ShouldNotify(e, pref, today) {
			continue
		}
		if f.deliverMember(ctx, e, m, msg) {
			sent++
		}
	}
	return sent, nil
}

// deliverMember claims the (change, member) delivery, writes the inbox
// message and releases the claim if the write failed.
func (f *Fanout) deliverMember(ctx context.Context, e *events.ChangeEvent, m *database.Member, msg strategy.Message) bool {
	claimed, err := f.store.ClaimDelivery(ctx, e.ID, m.UserID, database.KindChange)
	if err != nil {
		slog.Error("Failed to claim delivery", "change_id", e.ID, "user_id", m.UserID, "error", err)
		return false
	}
	if !claimed {
		slog.Debug("Change already delivered to member", "change_id", e.ID, "user_id", m.UserID)
		return false
	}

	res := f.deliverer.Deliver(ctx, strategy.ChannelInApp, m.UserID, msg)
	if !res.OK {
		if err := f.store.ReleaseDelivery(ctx, e.ID, m.UserID, database.KindChange); err != nil {
			slog.Error("Failed to release delivery claim", "change_id", e.ID, "user_id", m.UserID, "error", err)
		}
		return false
	}

	if msg.Severity == severity.Critical && m.Email != "" && f.deliverer.Has(strategy.ChannelEmail) {
		f.deliverer.Deliver(ctx, strategy.ChannelEmail, m.Email, msg)
	}
	return true
}
