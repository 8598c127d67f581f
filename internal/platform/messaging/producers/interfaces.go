package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher writes encoded household events to the primary topic
type EventPublisher interface {
	// Publish blocks until the broker acknowledged the write
	Publish(ctx context.Context, key string, eventType string, value []byte) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventTypeHeader carries the event type so consumers can route without decoding the payload
const EventTypeHeader = "event-type"
