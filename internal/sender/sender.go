// Package sender routes messages to channel senders and records the outcome.
package sender

import (
	"context"
	"log/slog"

	"github.com/afikmenashe/roadcrew/internal/metrics"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
)

// Dispatcher delivers messages through the registered channels.
// Failures are logged with recipient, channel and reason and returned to the
// caller, which decides whether to continue.
type Dispatcher struct {
	registry *strategy.Registry
	metrics  metrics.Recorder
}

// NewDispatcher creates a dispatcher over registry. rec may be nil.
func NewDispatcher(registry *strategy.Registry, rec metrics.Recorder) *Dispatcher {
	return &Dispatcher{registry: registry, metrics: metrics.OrNoOp(rec)}
}

// Has reports whether a sender is registered for channel.
func (d *Dispatcher) Has(channel string) bool {
	_, ok := d.registry.Get(channel)
	return ok
}

// Deliver sends msg to destination on channel.
func (d *Dispatcher) Deliver(ctx context.Context, channel, destination string, msg strategy.Message) strategy.Result {
	s, ok := d.registry.Get(channel)
	if !ok {
		res := strategy.Fail("no sender registered for channel " + channel)
		d.fail(channel, destination, msg, res)
		return res
	}

	res := s.Deliver(ctx, destination, msg)
	if !res.OK {
		d.fail(channel, destination, msg, res)
		return res
	}

	d.metrics.RecordDelivered()
	d.metrics.IncrementCustom(channel + "_sent")
	return res
}

func (d *Dispatcher) fail(channel, destination string, msg strategy.Message, res strategy.Result) {
	d.metrics.IncrementCustom(channel + "_failed")
	slog.Warn("Delivery failed",
		"channel", channel,
		"recipient", destination,
		"tour_id", msg.TourID,
		"ref_id", msg.RefID,
		"reason", res.Reason,
	)
}
