// Package email delivers e-mail copies of messages through the provider registry.
package email

import (
	"context"
	"fmt"

	"github.com/afikmenashe/roadcrew/internal/sender/email/provider"
	"github.com/afikmenashe/roadcrew/internal/sender/payload"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
	"github.com/afikmenashe/roadcrew/internal/sender/validation"
)

// Sender implements the e-mail channel.
type Sender struct {
	providers *provider.Registry
	from      string
}

// NewSender creates an e-mail sender that sends as from.
func NewSender(providers *provider.Registry, from string) *Sender {
	return &Sender{providers: providers, from: from}
}

// Channel returns the channel this sender handles.
func (s *Sender) Channel() string {
	return strategy.ChannelEmail
}

// IsConfigured reports whether any provider can send.
func (s *Sender) IsConfigured() bool {
	return s.providers != nil && s.providers.Available()
}

// Deliver e-mails msg to address.
func (s *Sender) Deliver(ctx context.Context, address string, msg strategy.Message) strategy.Result {
	if !validation.IsEmail(address) {
		return strategy.Fail(fmt.Sprintf("invalid email address: %q", address))
	}
	if !s.IsConfigured() {
		return strategy.Fail("no configured email provider available")
	}

	p := payload.BuildEmail(msg)
	err := s.providers.Send(ctx, &provider.EmailRequest{
		From:    s.from,
		To:      []string{address},
		Subject: p.Subject,
		Body:    p.Body,
	})
	if err != nil {
		return strategy.Fail(err.Error())
	}
	return strategy.OK()
}
