package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

type topicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
}

// topicConfig fills in single-broker defaults for unset partition and replication counts
func (s topicSpec) topicConfig() kafka.TopicConfig {
	cfg := kafka.TopicConfig{
		Topic:             s.Name,
		NumPartitions:     s.NumPartitions,
		ReplicationFactor: s.ReplicationFactor,
	}
	if cfg.NumPartitions <= 0 {
		cfg.NumPartitions = 1
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}
	return cfg
}

// ensureTopic creates the topic when its partitions cannot be read after a few attempts
func ensureTopic(conn *kafka.Conn, spec topicSpec, log *slog.Logger) error {
	var (
		partitions []kafka.Partition
		err        error
	)

	for i := 0; i < topicReadAttempts; i++ {
		partitions, err = conn.ReadPartitions(spec.Name)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "topic", spec.Name, "partitions", len(partitions))
			return nil
		}
		log.Warn("Failed to read partitions, retrying...", "topic", spec.Name, "attempt", i+1, "error", err)
		time.Sleep(topicReadBackoff)
	}

	log.Info("Kafka topic does not exist or is not accessible, attempting to create it", "topic", spec.Name, "last_error_read", err)
	if err := conn.CreateTopics(spec.topicConfig()); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", spec.Name, err)
	}
	log.Info("Successfully created Kafka topic", "topic", spec.Name)
	return nil
}
