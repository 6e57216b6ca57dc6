// Package sms sends text messages through an HTTP SMS gateway.
package sms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/afikmenashe/roadcrew/internal/sender/payload"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
	"github.com/afikmenashe/roadcrew/internal/sender/validation"
)

// DefaultTimeout bounds a single gateway call.
const DefaultTimeout = 10 * time.Second

// Config holds SMS gateway settings.
type Config struct {
	GatewayURL         string
	Token              string
	Signature          string
	DefaultCountryCode string
	Timeout            time.Duration
	// RatePerSecond limits gateway calls. Zero means unlimited.
	RatePerSecond float64
	Burst         int
}

// Sender implements the SMS channel.
type Sender struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSender creates an SMS sender for the configured gateway.
func NewSender(cfg Config) *Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Sender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}
}

// Channel returns the channel this sender handles.
func (s *Sender) Channel() string {
	return strategy.ChannelSMS
}

// IsConfigured reports whether a gateway URL is set.
func (s *Sender) IsConfigured() bool {
	return s.cfg.GatewayURL != ""
}

// Deliver sends msg.Body to phone. The number is normalized to E.164 first
// and the configured signature is appended.
func (s *Sender) Deliver(ctx context.Context, phone string, msg strategy.Message) strategy.Result {
	if !s.IsConfigured() {
		return strategy.Fail("sms gateway not configured")
	}

	to, err := validation.NormalizePhone(phone, s.cfg.DefaultCountryCode)
	if err != nil {
		return strategy.Fail(err.Error())
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return strategy.Fail(fmt.Sprintf("rate limiter: %v", err))
	}

	body := payload.SMSBody(msg.Body, s.cfg.Signature, payload.MaxSMSLength)
	form := url.Values{}
	form.Set("to", to)
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return strategy.Fail(fmt.Sprintf("failed to create HTTP request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to call SMS gateway",
			"error", err,
			"to", to,
			"ref_id", msg.RefID,
		)
		return strategy.Fail(fmt.Sprintf("gateway request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("SMS gateway returned error status",
			"status_code", resp.StatusCode,
			"body", string(respBody),
			"to", to,
			"ref_id", msg.RefID,
		)
		return strategy.Fail(fmt.Sprintf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	slog.Info("Sent SMS", "to", to, "ref_id", msg.RefID)
	return strategy.OK()
}
