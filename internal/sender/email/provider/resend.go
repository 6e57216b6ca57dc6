package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendProvider sends e-mail through the Resend API.
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider creates a Resend provider. An empty key leaves it unconfigured.
func NewResendProvider(apiKey string) *ResendProvider {
	if apiKey == "" {
		return &ResendProvider{}
	}
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

// Name returns the provider name.
func (p *ResendProvider) Name() string { return "resend" }

// IsConfigured reports whether an API key was supplied.
func (p *ResendProvider) IsConfigured() bool { return p.client != nil }

// Send sends req via Resend.
func (p *ResendProvider) Send(ctx context.Context, req *EmailRequest) error {
	if p.client == nil {
		return fmt.Errorf("resend client not initialized")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	params := &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
	}
	if req.HTML != "" {
		params.Html = req.HTML
	} else {
		params.Text = req.Body
	}

	sent, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("Email sent via Resend", "email_id", sent.Id, "to", req.To)
	return nil
}
