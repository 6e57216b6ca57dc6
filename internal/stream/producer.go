// Package stream publishes recorded changes to the changes.recorded topic and
// reads them back for live sessions.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/retry"
	kafkautil "github.com/afikmenashe/roadcrew/pkg/kafka"
)

// DefaultTopic carries every recorded change, keyed by tour id.
const DefaultTopic = "changes.recorded"

// defaultPartitions is used when the topic has to be created.
const defaultPartitions = 3

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes change events as JSON.
type Producer struct {
	writer messageWriter
	topic  string
	retry  retry.Config
}

// NewProducer creates a producer for topic. The topic is created if missing.
func NewProducer(brokers, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer", "brokers", brokerList, "topic", topic)
	if err := kafkautil.EnsureTopic(brokerList[0], topic, defaultPartitions); err != nil {
		slog.Warn("Continuing without topic check", "topic", topic, "error", err)
	}

	return newProducer(kafkautil.NewWriter(brokerList, topic), topic, retry.DefaultConfig()), nil
}

func newProducer(w messageWriter, topic string, cfg retry.Config) *Producer {
	return &Producer{writer: w, topic: topic, retry: cfg}
}

// Publish writes the change keyed by tour id so a tour's changes stay ordered
// within one partition. Transient broker errors are retried.
func (p *Producer) Publish(ctx context.Context, e *events.ChangeEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.TourID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "schema_version", Value: []byte(strconv.Itoa(events.SchemaVersion))},
			{Key: "action", Value: []byte(e.Action)},
			{Key: "entity_type", Value: []byte(e.EntityType)},
			{Key: "change_id", Value: []byte(e.ID)},
		},
		Time: e.CreatedAt,
	}

	err = retry.WithRetry(ctx, p.retry, "publish_change_"+e.ID, func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		slog.Error("Failed to write change to Kafka",
			"change_id", e.ID,
			"tour_id", e.TourID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Info("Published change event",
		"change_id", e.ID,
		"tour_id", e.TourID,
		"entity_type", e.EntityType,
		"severity", e.Severity,
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	return p.writer.Close()
}
