package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// HouseholdEventHandler decodes household events from Kafka and hands them to the processor
type HouseholdEventHandler struct {
	processor service.EventProcessor
	producer  producers.DeadLetterPublisher
	attempts  int
	backoff   time.Duration
	logger    *slog.Logger
}

func NewHouseholdEventHandler(
	logger *slog.Logger,
	processor service.EventProcessor,
	producer producers.DeadLetterPublisher,
	attempts int,
	backoff time.Duration,
) *HouseholdEventHandler {
	if attempts < 1 {
		attempts = 1
	}
	return &HouseholdEventHandler{
		processor: processor,
		producer:  producer,
		attempts:  attempts,
		backoff:   backoff,
		logger:    logger,
	}
}

// HandleMessage processes one Kafka message. A nil return commits the offset; that includes
// messages parked on the DLQ after decoding failed or every processing attempt failed.
func (h *HouseholdEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	key := string(msg.Key)

	event, err := events.Unmarshal(msg.Value)
	if err != nil {
		h.logger.Error("Failed to decode household event from Kafka message", "error", err, "message_key", key)
		return h.deadLetter(ctx, msg, fmt.Sprintf("decode failed: %s", err), err)
	}

	logger := h.logger.With(
		"household_id", event.Household().String(),
		"event_type", event.EventType(),
		"offset", msg.Offset,
	)

	for attempt := 1; ; attempt++ {
		err = h.processor.Process(ctx, event)
		if err == nil {
			logger.Debug("Household event processed", "attempt", attempt)
			return nil
		}
		if attempt >= h.attempts || ctx.Err() != nil {
			break
		}

		logger.Warn("Processing household event failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.backoff * time.Duration(attempt)):
		}
	}

	logger.Error("Giving up on household event", "attempts", h.attempts, "error", err)
	return h.deadLetter(ctx, msg, fmt.Sprintf("processing failed after %d attempts: %s", h.attempts, err), err)
}

// deadLetter parks the raw message; the original error is returned when the DLQ is unavailable
func (h *HouseholdEventHandler) deadLetter(ctx context.Context, msg kafka.Message, reason string, cause error) error {
	if h.producer == nil {
		return cause
	}

	if dlqErr := h.producer.PublishToDLQ(ctx, string(msg.Key), msg.Value, reason); dlqErr != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", cause,
			"message_key", string(msg.Key),
		)
		return fmt.Errorf("message %s not handled: %w", string(msg.Key), cause)
	}
	return nil
}
