package service

import (
	"context"
	"log/slog"

	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/events"
)

type EventProcessorImpl struct {
	coordinator InvalidationCoordinator
	feed        activity.Repository
	recorder    ErrorRecorder
	logger      *slog.Logger
}

func NewEventProcessor(coordinator InvalidationCoordinator, feed activity.Repository, recorder ErrorRecorder, logger *slog.Logger) EventProcessor {
	return &EventProcessorImpl{
		coordinator: coordinator,
		feed:        feed,
		recorder:    recorder,
		logger:      logger,
	}
}

// Process repairs any snapshot the gateway failed to invalidate and appends the event to the
// household activity feed. A returned error asks the consumer to retry the message.
func (p *EventProcessorImpl) Process(ctx context.Context, event events.Event) error {
	householdID := event.Household()
	logger := p.logger.With("household_id", householdID.String(), "event_type", event.EventType())

	if err := p.coordinator.HandleConditional(ctx, event); err != nil {
		logger.Error("Failed to apply event invalidation", "error", err)
		return err
	}

	record, err := activity.NewRecord(event)
	if err != nil {
		logger.Error("Failed to build activity record", "error", err)
		return nil // Not retryable; the invalidation already happened
	}

	if err := p.feed.Create(ctx, record); err != nil {
		return p.recorder.Record(ctx, householdID, "activity.create", err)
	}

	logger.Debug("Household event processed", "activity_id", record.ID.String())
	return nil
}
