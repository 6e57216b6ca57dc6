// Package retry provides retry with exponential backoff for transient failures
// of infrastructure calls such as stream publishing. Channel senders never retry.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/afikmenashe/roadcrew/internal/apperr"
)

// Config defines retry behavior.
type Config struct {
	MaxRetries     int           // 0 = no retries
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

// temporary is implemented by kafka-go protocol errors and some net errors.
type temporary interface {
	Temporary() bool
}

// IsRetryable reports whether err looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperr.ErrValidation) || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var tmp temporary
	if errors.As(err, &tmp) && tmp.Temporary() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, s := range []string{"invalid", "malformed", "unknown topic"} {
		if strings.Contains(errStr, s) {
			return false
		}
	}
	for _, s := range []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"leader not available",
		"not leader",
		"503",
		"502",
		"504",
		"try again",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// WithRetry runs fn until it succeeds, fails permanently, or runs out of retries.
func WithRetry(ctx context.Context, cfg Config, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				slog.Info("Operation succeeded after retry",
					"operation", operation,
					"attempt", attempt+1,
				)
			}
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			slog.Debug("Error is not retryable, failing immediately",
				"operation", operation,
				"error", err,
			)
			return err
		}
		if attempt >= cfg.MaxRetries {
			slog.Warn("Max retries exceeded",
				"operation", operation,
				"attempts", attempt+1,
				"error", err,
			)
			return err
		}

		backoff := calculateBackoff(cfg, attempt)
		slog.Warn("Operation failed, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"max_attempts", cfg.MaxRetries+1,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return lastErr
}

// calculateBackoff returns initial * factor^attempt capped at MaxBackoff, with ±25% jitter.
func calculateBackoff(cfg Config, attempt int) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(backoff + jitter)
}
