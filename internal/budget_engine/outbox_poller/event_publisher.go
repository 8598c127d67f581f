package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/outbox"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/platform/messaging/producers"
)

// MessagePublisher moves one outbox message onto the household event stream
type MessagePublisher interface {
	PublishMessage(ctx context.Context, message *outbox.Message) error
}

// EventPublisher implements MessagePublisher on top of a Kafka producer
type EventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.EventPublisher
	logger     *slog.Logger
}

func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.EventPublisher,
	logger *slog.Logger,
) MessagePublisher {
	return &EventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishMessage checks the payload still decodes, publishes it keyed by household and marks
// the row processed. A payload that no longer decodes is parked as failed straight away.
func (p *EventPublisher) PublishMessage(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With(
		"outbox_id", message.ID,
		"household_id", message.HouseholdID.String(),
		"event_type", message.EventType,
	)

	if _, err := events.Unmarshal(message.Payload); err != nil {
		logger.Error("Outbox payload does not decode to a household event", "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH", "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	if err := p.producer.Publish(ctx, message.HouseholdID.String(), string(message.EventType), message.Payload); err != nil {
		return fmt.Errorf("failed to publish outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED", "error", err)
		return fmt.Errorf("event for outbox %d published, but failed to mark it as PROCESSED: %w", message.ID, err)
	}

	logger.Debug("Outbox message published and marked as PROCESSED")
	return nil
}
