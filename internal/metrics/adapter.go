package metrics

import (
	"time"

	pkgmetrics "github.com/afikmenashe/roadcrew/pkg/metrics"
)

// CollectorAdapter adapts pkg/metrics.Collector to Recorder.
type CollectorAdapter struct {
	collector *pkgmetrics.Collector
}

// NewCollectorAdapter wraps a collector. A nil collector yields NoOp.
func NewCollectorAdapter(collector *pkgmetrics.Collector) Recorder {
	if collector == nil {
		return NoOp{}
	}
	return &CollectorAdapter{collector: collector}
}

func (a *CollectorAdapter) RecordReceived()                 { a.collector.RecordReceived() }
func (a *CollectorAdapter) RecordProcessed(d time.Duration) { a.collector.RecordProcessed(d) }
func (a *CollectorAdapter) RecordDelivered()                { a.collector.RecordDelivered() }
func (a *CollectorAdapter) RecordError()                    { a.collector.RecordError() }
func (a *CollectorAdapter) IncrementCustom(name string)     { a.collector.IncrementCustom(name) }

var _ Recorder = (*CollectorAdapter)(nil)
