// Package reminder sends SMS reminders ahead of schedule events and delivers
// scheduled one-shot messages on a fixed interval.
package reminder

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/metrics"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
	"github.com/afikmenashe/roadcrew/internal/sender/validation"
)

const (
	// DefaultInterval is how often a tick runs.
	DefaultInterval = 5 * time.Minute
	// DefaultTolerance is how far from its lead time a reminder may fire.
	// It is half the interval so each reminder lands in exactly one tick.
	DefaultTolerance = 7*time.Minute + 30*time.Second
	// DefaultLookahead pulls scheduled messages due shortly after the tick.
	DefaultLookahead = 2 * time.Minute
	// DefaultRetention is how long sent scheduled messages are kept.
	DefaultRetention = 7 * 24 * time.Hour
)

// Store is the persistence the dispatcher needs.
type Store interface {
	ListReminderCandidates(ctx context.Context) ([]*database.ReminderCandidate, error)
	ClaimDelivery(ctx context.Context, refID, recipient, kind string) (bool, error)
	ReleaseDelivery(ctx context.Context, refID, recipient, kind string) error
	RecordOutbound(ctx context.Context, refID, kind, phone, body string) error
	ListDueScheduledMessages(ctx context.Context, cutoff time.Time) ([]*database.ScheduledMessage, error)
	MarkScheduledMessageSent(ctx context.Context, messageID string, sentAt time.Time) error
	DeleteSentScheduledMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Deliverer routes a message to a channel.
type Deliverer interface {
	Deliver(ctx context.Context, channel, destination string, msg strategy.Message) strategy.Result
}

// Config tunes the dispatcher. Zero values take the defaults.
type Config struct {
	Interval           time.Duration
	Tolerance          time.Duration
	Lookahead          time.Duration
	Retention          time.Duration
	Location           *time.Location
	DefaultCountryCode string
}

// Counts summarises one kind of work in a tick.
type Counts struct {
	Considered int `json:"considered"`
	Sent       int `json:"sent"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// TickResult is what one tick did.
type TickResult struct {
	Reminders Counts `json:"reminders"`
	Scheduled Counts `json:"scheduled"`
	Swept     int64  `json:"swept"`
}

// Dispatcher runs reminder ticks.
type Dispatcher struct {
	store     Store
	deliverer Deliverer
	metrics   metrics.Recorder
	cfg       Config
}

// NewDispatcher creates a dispatcher. rec may be nil.
func NewDispatcher(store Store, deliverer Deliverer, rec metrics.Recorder, cfg Config) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Dispatcher{
		store:     store,
		deliverer: deliverer,
		metrics:   metrics.OrNoOp(rec),
		cfg:       cfg,
	}
}

// Run ticks immediately and then every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("Starting reminder dispatcher", "interval", d.cfg.Interval)

	d.logTick(d.Tick(ctx, time.Now()))

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Reminder dispatcher stopped")
			return nil
		case now := <-ticker.C:
			d.logTick(d.Tick(ctx, now))
		}
	}
}

// RunOnce runs a single logged tick, for deployments driven by an external scheduler.
func (d *Dispatcher) RunOnce(ctx context.Context) TickResult {
	res := d.Tick(ctx, time.Now())
	d.logTick(res)
	return res
}

// Tick runs one pass: event reminders, due scheduled messages, then the sweep.
// Store errors end that part of the tick and are logged; the next tick retries.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) TickResult {
	var res TickResult
	res.Reminders = d.sendReminders(ctx, now)
	res.Scheduled = d.sendScheduled(ctx, now)

	swept, err := d.store.DeleteSentScheduledMessagesBefore(ctx, now.Add(-d.cfg.Retention))
	if err != nil {
		d.metrics.RecordError()
		slog.Error("Failed to sweep sent scheduled messages", "error", err)
	}
	res.Swept = swept
	return res
}

func (d *Dispatcher) sendReminders(ctx context.Context, now time.Time) Counts {
	var c Counts

	candidates, err := d.store.ListReminderCandidates(ctx)
	if err != nil {
		d.metrics.RecordError()
		slog.Error("Failed to list reminder candidates", "error", err)
		return c
	}

	for _, cand := range candidates {
		sub := cand.Subscription
		target := cand.Event.Target(sub.RemindType)
		if target == nil || !d.due(*target, now, sub.LeadMinutes) {
			continue
		}
		c.Considered++
		d.metrics.RecordReceived()
		start := time.Now()

		phone, err := validation.NormalizePhone(sub.Phone, d.cfg.DefaultCountryCode)
		if err != nil {
			c.Failed++
			slog.Warn("Skipping reminder with invalid phone",
				"reminder_id", sub.ReminderID,
				"user_id", sub.UserID,
				"error", err,
			)
			continue
		}

		claimed, err := d.store.ClaimDelivery(ctx, sub.EventID, phone, sub.RemindType)
		if err != nil {
			c.Failed++
			d.metrics.RecordError()
			slog.Error("Failed to claim reminder delivery", "event_id", sub.EventID, "error", err)
			continue
		}
		if !claimed {
			c.Skipped++
			continue
		}

		body := reminderBody(&cand.Event, sub.RemindType, *target, now, d.cfg.Location)
		res := d.deliverer.Deliver(ctx, strategy.ChannelSMS, phone, strategy.Message{
			TourID: cand.Event.TourID,
			RefID:  sub.EventID,
			Body:   body,
		})
		if !res.OK {
			c.Failed++
			d.release(ctx, sub.EventID, phone, sub.RemindType)
			continue
		}

		if err := d.store.RecordOutbound(ctx, sub.EventID, sub.RemindType, phone, body); err != nil {
			slog.Error("Failed to record outbound reminder", "event_id", sub.EventID, "error", err)
		}

		c.Sent++
		d.metrics.RecordProcessed(time.Since(start))
	}
	return c
}

// due reports whether target is within tolerance of lead minutes from now.
func (d *Dispatcher) due(target, now time.Time, leadMinutes int) bool {
	diff := target.Sub(now).Minutes()
	return math.Abs(diff-float64(leadMinutes)) <= d.cfg.Tolerance.Minutes()
}

func (d *Dispatcher) sendScheduled(ctx context.Context, now time.Time) Counts {
	var c Counts

	due, err := d.store.ListDueScheduledMessages(ctx, now.Add(d.cfg.Lookahead))
	if err != nil {
		d.metrics.RecordError()
		slog.Error("Failed to list due scheduled messages", "error", err)
		return c
	}

	for _, m := range due {
		c.Considered++
		d.metrics.RecordReceived()
		start := time.Now()

		phone, err := validation.NormalizePhone(m.Phone, d.cfg.DefaultCountryCode)
		if err != nil {
			c.Failed++
			slog.Warn("Skipping scheduled message with invalid phone", "message_id", m.MessageID, "error", err)
			continue
		}

		claimed, err := d.store.ClaimDelivery(ctx, m.MessageID, phone, database.KindScheduled)
		if err != nil {
			c.Failed++
			d.metrics.RecordError()
			slog.Error("Failed to claim scheduled delivery", "message_id", m.MessageID, "error", err)
			continue
		}
		if !claimed {
			// Sent by an earlier or concurrent tick.
			c.Skipped++
			d.markSent(ctx, m.MessageID, now)
			continue
		}

		res := d.deliverer.Deliver(ctx, strategy.ChannelSMS, phone, strategy.Message{
			RefID: m.MessageID,
			Body:  m.Body,
		})
		if !res.OK {
			c.Failed++
			d.release(ctx, m.MessageID, phone, database.KindScheduled)
			continue
		}

		d.markSent(ctx, m.MessageID, now)
		if err := d.store.RecordOutbound(ctx, m.MessageID, database.KindScheduled, phone, m.Body); err != nil {
			slog.Error("Failed to record outbound message", "message_id", m.MessageID, "error", err)
		}

		c.Sent++
		d.metrics.RecordProcessed(time.Since(start))
	}
	return c
}

// release drops a claim whose send failed so a later tick retries it.
func (d *Dispatcher) release(ctx context.Context, refID, phone, kind string) {
	if err := d.store.ReleaseDelivery(ctx, refID, phone, kind); err != nil {
		d.metrics.RecordError()
		slog.Error("Failed to release delivery claim", "ref_id", refID, "kind", kind, "error", err)
	}
}

func (d *Dispatcher) markSent(ctx context.Context, messageID string, now time.Time) {
	if err := d.store.MarkScheduledMessageSent(ctx, messageID, now); err != nil {
		d.metrics.RecordError()
		slog.Error("Failed to mark scheduled message sent", "message_id", messageID, "error", err)
	}
}

func (d *Dispatcher) logTick(res TickResult) {
	slog.Info("Reminder tick complete",
		"reminders_considered", res.Reminders.Considered,
		"reminders_sent", res.Reminders.Sent,
		"reminders_skipped", res.Reminders.Skipped,
		"reminders_failed", res.Reminders.Failed,
		"scheduled_considered", res.Scheduled.Considered,
		"scheduled_sent", res.Scheduled.Sent,
		"scheduled_skipped", res.Scheduled.Skipped,
		"scheduled_failed", res.Scheduled.Failed,
		"swept", res.Swept,
	)
}
