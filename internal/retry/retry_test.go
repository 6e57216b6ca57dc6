package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/roadcrew/internal/apperr"
)

func fastConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout text", errors.New("write tcp: i/o timeout"), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:9092: connection refused"), true},
		{"kafka temporary", kafka.LeaderNotAvailable, true},
		{"kafka permanent", kafka.MessageSizeTooLarge, false},
		{"validation kind", fmt.Errorf("publish: %w", apperr.ErrValidation), false},
		{"cancelled", context.Canceled, false},
		{"unknown", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "publish", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_PermanentFailsFast(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "publish", func() error {
		calls++
		return errors.New("invalid payload")
	})
	if err == nil {
		t.Fatal("WithRetry() error = nil, want error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "publish", func() error {
		calls++
		return errors.New("503 unavailable")
	})
	if err == nil {
		t.Fatal("WithRetry() error = nil, want error")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	calls := 0
	err := WithRetry(ctx, cfg, "publish", func() error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 200 * time.Millisecond, BackoffFactor: 10}
	for i := 0; i < 20; i++ {
		if got := calculateBackoff(cfg, 3); got > 250*time.Millisecond {
			t.Fatalf("calculateBackoff() = %v, exceeds cap plus jitter", got)
		}
	}
}
