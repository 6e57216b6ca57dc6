package kafka

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// topicWaitAttempts bounds how long EnsureTopic waits for a new topic's metadata.
const topicWaitAttempts = 5

// EnsureTopic creates the topic if the broker does not know it yet.
// Failures are logged and returned; callers usually continue anyway because
// the writer will surface a missing topic on first write.
func EnsureTopic(broker, topic string, partitions int) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		slog.Warn("Could not connect to Kafka to check topic",
			"broker", broker,
			"topic", topic,
			"error", err,
		)
		return fmt.Errorf("failed to dial kafka broker %s: %w", broker, err)
	}
	defer conn.Close()

	if existing, err := conn.ReadPartitions(topic); err == nil && len(existing) > 0 {
		slog.Debug("Topic already exists", "topic", topic, "partitions", len(existing))
		return nil
	}

	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}); err != nil {
		slog.Warn("Could not create topic (may need to be created manually)",
			"topic", topic,
			"partitions", partitions,
			"error", err,
		)
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}

	// Topic creation is asynchronous on the broker side.
	for attempt := 1; attempt <= topicWaitAttempts; attempt++ {
		time.Sleep(time.Second)
		if created, err := conn.ReadPartitions(topic); err == nil && len(created) > 0 {
			slog.Info("Created topic", "topic", topic, "partitions", len(created))
			return nil
		}
	}

	slog.Warn("Topic created but not yet visible", "topic", topic)
	return nil
}
