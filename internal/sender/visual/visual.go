// Package visual delivers on-screen alerts to connected live sessions.
package visual

import (
	"context"

	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

// Alert is what a client renders for an accepted live change.
type Alert struct {
	TourID     string            `json:"tour_id"`
	ChangeID   string            `json:"change_id"`
	Severity   severity.Severity `json:"severity"`
	Summary    string            `json:"summary"`
	Tags       []string          `json:"tags,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// Sink receives alerts for a user. Push must not block.
type Sink interface {
	Push(userID string, alert Alert)
}

// Sender implements the visual channel on top of a Sink.
type Sender struct {
	sink Sink
}

// NewSender creates a visual sender writing to sink.
func NewSender(sink Sink) *Sender {
	return &Sender{sink: sink}
}

// Channel returns the channel this sender handles.
func (s *Sender) Channel() string {
	return strategy.ChannelVisual
}

// Deliver pushes an alert for the user. The visual channel cannot fail.
func (s *Sender) Deliver(_ context.Context, userID string, msg strategy.Message) strategy.Result {
	s.sink.Push(userID, Alert{
		TourID:     msg.TourID,
		ChangeID:   msg.RefID,
		Severity:   msg.Severity,
		Summary:    msg.Body,
		Tags:       msg.Tags,
		DurationMs: msg.Severity.AlertDuration().Milliseconds(),
	})
	return strategy.OK()
}
