package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
)

// InvalidationCoordinatorImpl implements the InvalidationCoordinator interface
type InvalidationCoordinatorImpl struct {
	snapshots snapshot.Repository
	recorder  service.ErrorRecorder
	logger    *slog.Logger
}

// NewInvalidationCoordinator creates a new InvalidationCoordinatorImpl
func NewInvalidationCoordinator(snapshots snapshot.Repository, recorder service.ErrorRecorder, logger *slog.Logger) service.InvalidationCoordinator {
	return &InvalidationCoordinatorImpl{
		snapshots: snapshots,
		recorder:  recorder,
		logger:    logger,
	}
}

// Handle invalidates every snapshot the event affects. The mutation has already been
// accepted, so failures only leave a stale snapshot for the repair path.
func (c *InvalidationCoordinatorImpl) Handle(ctx context.Context, event events.Event) {
	scope := events.InvalidationScope(event)
	if scope.Empty() {
		return
	}
	householdID := event.Household()
	logger := c.logger.With("household_id", householdID.String(), "event_type", event.EventType())

	if scope.All {
		count, err := c.snapshots.InvalidateAll(ctx, householdID)
		if err != nil {
			_ = c.recorder.Record(ctx, householdID, "snapshot.invalidate_all", err)
			logger.Warn("Failed to invalidate household snapshots", "error", err)
			return
		}
		logger.Info("Invalidated household snapshots", "count", count)
		return
	}

	for _, date := range scope.Dates {
		if _, err := c.snapshots.Invalidate(ctx, householdID, shared.NormalizeDate(date)); err != nil {
			_ = c.recorder.Record(ctx, householdID, "snapshot.invalidate", err)
			logger.Warn("Failed to invalidate daily snapshot", "date", shared.FormatDate(date), "error", err)
			continue
		}
		logger.Debug("Invalidated daily snapshot", "date", shared.FormatDate(date))
	}
}

// HandleConditional replays an event's invalidation, skipping snapshots already recalculated after it
func (c *InvalidationCoordinatorImpl) HandleConditional(ctx context.Context, event events.Event) error {
	scope := events.InvalidationScope(event)
	if scope.Empty() {
		return nil
	}
	householdID := event.Household()
	occurredAt := event.OccurredAt()

	if scope.All {
		count, err := c.snapshots.InvalidateAllIfOlder(ctx, householdID, occurredAt)
		if err != nil {
			return c.recorder.Record(ctx, householdID, "snapshot.invalidate_all_if_older", err)
		}
		if count > 0 {
			c.logger.Info("Repaired stale household snapshots",
				"household_id", householdID.String(),
				"event_type", event.EventType(),
				"count", count)
		}
		return nil
	}

	var errs []error
	for _, date := range scope.Dates {
		repaired, err := c.snapshots.InvalidateIfOlder(ctx, householdID, shared.NormalizeDate(date), occurredAt)
		if err != nil {
			errs = append(errs, c.recorder.Record(ctx, householdID, "snapshot.invalidate_if_older", err))
			continue
		}
		if repaired {
			c.logger.Info("Repaired stale daily snapshot",
				"household_id", householdID.String(),
				"event_type", event.EventType(),
				"date", shared.FormatDate(date))
		}
	}
	return errors.Join(errs...)
}

// InvalidateDate invalidates one stored snapshot and reports whether it existed
func (c *InvalidationCoordinatorImpl) InvalidateDate(ctx context.Context, householdID uuid.UUID, date time.Time) (bool, error) {
	existed, err := c.snapshots.Invalidate(ctx, householdID, shared.NormalizeDate(date))
	if err != nil {
		return false, c.recorder.Record(ctx, householdID, "snapshot.invalidate", err)
	}
	return existed, nil
}

// InvalidateAll is the unconditional household-wide invalidation used by maintenance
func (c *InvalidationCoordinatorImpl) InvalidateAll(ctx context.Context, householdID uuid.UUID) (int64, error) {
	count, err := c.snapshots.InvalidateAll(ctx, householdID)
	if err != nil {
		return 0, c.recorder.Record(ctx, householdID, "snapshot.invalidate_all", err)
	}
	c.logger.Info("Invalidated household snapshots", "household_id", householdID.String(), "count", count)
	return count, nil
}
