package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/roadcrew/internal/events"
	kafkautil "github.com/afikmenashe/roadcrew/pkg/kafka"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads change events from the stream.
type Consumer struct {
	reader messageReader
	topic  string
}

// NewConsumer creates a live consumer. Each process should use its own group
// id so that every instance sees every change.
func NewConsumer(brokers, topic, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	reader := kafka.NewReader(kafkautil.NewReaderConfig(brokerList, topic, groupID, true))
	return &Consumer{reader: reader, topic: topic}, nil
}

// ReadChange reads and decodes the next change.
func (c *Consumer) ReadChange(ctx context.Context) (*events.ChangeEvent, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	var e events.ChangeEvent
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return nil, &DecodeError{Offset: msg.Offset, Err: err}
	}
	return &e, nil
}

// Run reads changes until ctx is done and hands each one to handle in
// stream order. Undecodable messages are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle func(*events.ChangeEvent)) error {
	for {
		e, err := c.ReadChange(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				slog.Warn("Skipping undecodable change", "offset", decodeErr.Offset, "error", decodeErr.Err)
				continue
			}
			return err
		}
		handle(e)
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	return c.reader.Close()
}

// DecodeError reports a message whose value is not a change event.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to unmarshal change at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
