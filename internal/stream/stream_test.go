package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/retry"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

func fastRetry() retry.Config {
	return retry.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}
}

func sampleChange() *events.ChangeEvent {
	return &events.ChangeEvent{
		ID:            "chg-1",
		TourID:        "tour-1",
		AuthorID:      "user-tm",
		EntityType:    events.EntitySchedule,
		Action:        events.ActionUpdate,
		Summary:       "Doors moved to 19:30",
		Reason:        "Venue curfew changed",
		AffectsTime:   true,
		Severity:      severity.Important,
		CreatedAt:     time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, DefaultTopic, fastRetry())

	if err := p.Publish(context.Background(), sampleChange()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.messages))
	}

	msg := w.messages[0]
	if string(msg.Key) != "tour-1" {
		t.Errorf("Key = %q, want tour-1", msg.Key)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["schema_version"] != "1" || headers["action"] != "UPDATE" || headers["change_id"] != "chg-1" {
		t.Errorf("headers = %v", headers)
	}

	var decoded events.ChangeEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not a change event: %v", err)
	}
	if decoded.Summary != "Doors moved to 19:30" || decoded.Severity != severity.Important {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestProducer_Publish_RetriesTransientErrors(t *testing.T) {
	w := &fakeWriter{errs: []error{kafka.LeaderNotAvailable, nil}}
	p := newProducer(w, DefaultTopic, fastRetry())

	if err := p.Publish(context.Background(), sampleChange()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if w.calls != 2 {
		t.Errorf("write calls = %d, want 2", w.calls)
	}
}

func TestProducer_Publish_PermanentError(t *testing.T) {
	w := &fakeWriter{errs: []error{kafka.MessageSizeTooLarge}}
	p := newProducer(w, DefaultTopic, fastRetry())

	err := p.Publish(context.Background(), sampleChange())
	if !errors.Is(err, kafka.MessageSizeTooLarge) {
		t.Fatalf("Publish() error = %v, want MessageSizeTooLarge", err)
	}
	if w.calls != 1 {
		t.Errorf("write calls = %d, want 1", w.calls)
	}
}

func TestNewProducer_Validation(t *testing.T) {
	if _, err := NewProducer("", DefaultTopic); err == nil {
		t.Error("NewProducer(empty brokers) error = nil")
	}
	if _, err := NewProducer("localhost:9092", ""); err == nil {
		t.Error("NewProducer(empty topic) error = nil")
	}
}

func TestConsumer_Run(t *testing.T) {
	good, _ := json.Marshal(sampleChange())
	second := sampleChange()
	second.ID = "chg-2"
	good2, _ := json.Marshal(second)

	r := &fakeReader{messages: []kafka.Message{
		{Value: good, Offset: 1},
		{Value: []byte("not json"), Offset: 2},
		{Value: good2, Offset: 3},
	}}
	c := &Consumer{reader: r, topic: DefaultTopic}

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(e *events.ChangeEvent) {
			got = append(got, e.ID)
			if len(got) == 2 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}

	if len(got) != 2 || got[0] != "chg-1" || got[1] != "chg-2" {
		t.Errorf("handled = %v, want [chg-1 chg-2]", got)
	}
	if err := c.Close(); err != nil || !r.closed {
		t.Errorf("Close() error = %v, closed = %v", err, r.closed)
	}
}

func TestNewConsumer_Validation(t *testing.T) {
	if _, err := NewConsumer("localhost:9092", DefaultTopic, ""); err == nil {
		t.Error("NewConsumer(empty group) error = nil")
	}
}
