package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/household-daily-budget/internal/config"
	"github.com/segmentio/kafka-go"
)

// HouseholdEventProducer publishes outbox events keyed by household, so one household's
// events stay ordered on a single partition.
type HouseholdEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewHouseholdEventProducer ensures the household topic exists and opens a synchronous writer
func NewHouseholdEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*HouseholdEventProducer, error) {
	if cfg.HouseholdTopic == "" {
		return nil, fmt.Errorf("kafka household topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for household event producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, topicSpec{
		Name:              cfg.HouseholdTopic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure household topic %s exists: %w", cfg.HouseholdTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.HouseholdTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false, // The outbox marks a row processed only after the ack
		WriteTimeout: cfg.MaxWait,
	}

	return &HouseholdEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.HouseholdTopic,
	}, nil
}

func (p *HouseholdEventProducer) Publish(ctx context.Context, key string, eventType string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish household event",
			"topic", p.topic,
			"key", key,
			"event_type", eventType,
			"error", err,
		)
		return fmt.Errorf("failed to publish %s event to %s: %w", eventType, p.topic, err)
	}

	p.logger.Debug("Published household event",
		"topic", p.topic,
		"key", key,
		"event_type", eventType,
	)
	return nil
}

func (p *HouseholdEventProducer) Close() error {
	p.logger.Info("Closing household event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
