// Package metrics provides the metrics recording interface used by the pipelines.
// A no-op implementation avoids nil checks throughout the codebase.
package metrics

import "time"

// Recorder records pipeline metrics.
type Recorder interface {
	// RecordReceived counts an inbound item (change, reminder candidate, request).
	RecordReceived()

	// RecordProcessed records a fully handled item with its latency.
	RecordProcessed(latency time.Duration)

	// RecordDelivered counts a successful channel delivery.
	RecordDelivered()

	// RecordError counts a failed item.
	RecordError()

	// IncrementCustom increments a named counter, e.g. "sms_failed".
	IncrementCustom(name string)
}

// NoOp discards all metrics.
type NoOp struct{}

func (NoOp) RecordReceived()                 {}
func (NoOp) RecordProcessed(_ time.Duration) {}
func (NoOp) RecordDelivered()                {}
func (NoOp) RecordError()                    {}
func (NoOp) IncrementCustom(_ string)        {}

var _ Recorder = NoOp{}

// OrNoOp returns r, or NoOp when r is nil.
func OrNoOp(r Recorder) Recorder {
	if r == nil {
		return NoOp{}
	}
	return r
}
