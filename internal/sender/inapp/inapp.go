// Package inapp delivers durable messages to a member's inbox.
package inapp

import (
	"context"
	"fmt"

	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
)

// Store persists inbox messages.
type Store interface {
	InsertMessage(ctx context.Context, m *database.Message) error
}

// Sender implements the in-app channel.
type Sender struct {
	store Store
}

// NewSender creates an in-app sender writing to store.
func NewSender(store Store) *Sender {
	return &Sender{store: store}
}

// Channel returns the channel this sender handles.
func (s *Sender) Channel() string {
	return strategy.ChannelInApp
}

// Deliver writes the message to the user's inbox. A storage error is a
// failed delivery.
func (s *Sender) Deliver(ctx context.Context, userID string, msg strategy.Message) strategy.Result {
	if userID == "" {
		return strategy.Fail("recipient user id is required")
	}

	err := s.store.InsertMessage(ctx, &database.Message{
		TourID:   msg.TourID,
		UserID:   userID,
		ChangeID: msg.RefID,
		Severity: msg.Severity,
		Body:     msg.Body,
	})
	if err != nil {
		return strategy.Fail(fmt.Sprintf("failed to store message: %v", err))
	}
	return strategy.OK()
}
