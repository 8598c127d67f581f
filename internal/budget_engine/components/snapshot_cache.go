package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/calculator"
	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"golang.org/x/sync/singleflight"
)

// SnapshotCacheImpl serves daily snapshots from the snapshot store and repairs invalid or
// missing ones from the ledger, parameters and active categories
type SnapshotCacheImpl struct {
	snapshots  snapshot.Repository
	params     budget.ParametersRepository
	categories budget.CategoryRepository
	entries    ledger.Repository
	recorder   service.ErrorRecorder
	window     time.Duration
	group      singleflight.Group
	now        func() time.Time
	logger     *slog.Logger
}

// NewSnapshotCache creates a snapshot cache. A zero freshnessWindow relies on invalidation only.
func NewSnapshotCache(
	snapshots snapshot.Repository,
	params budget.ParametersRepository,
	categories budget.CategoryRepository,
	entries ledger.Repository,
	recorder service.ErrorRecorder,
	freshnessWindow time.Duration,
	logger *slog.Logger,
) service.SnapshotCache {
	return &SnapshotCacheImpl{
		snapshots:  snapshots,
		params:     params,
		categories: categories,
		entries:    entries,
		recorder:   recorder,
		window:     freshnessWindow,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// Get serves a valid stored snapshot or recomputes it. A failed cache read is treated as a miss.
func (c *SnapshotCacheImpl) Get(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.Result, error) {
	date = shared.NormalizeDate(date)

	cached, err := c.snapshots.Get(ctx, householdID, date)
	if err != nil {
		var notFound snapshot.ErrSnapshotNotFound
		if !errors.As(err, &notFound) {
			_ = c.recorder.Record(ctx, householdID, "snapshot.get", err)
		}
		cached = nil
	}

	if cached != nil && cached.IsFresh(c.now(), c.window) {
		c.logger.Debug("Daily snapshot served from cache",
			"household_id", householdID.String(),
			"date", shared.FormatDate(date))
		return &snapshot.Result{Snapshot: cached, IsCached: true}, nil
	}

	fresh, err := c.refill(ctx, householdID, date)
	if err != nil {
		return nil, err
	}
	return &snapshot.Result{Snapshot: fresh, IsCached: false}, nil
}

// Recalculate recomputes and stores the snapshot from reads made after the call.
// It never joins a computation already in flight; cache misses arriving meanwhile join it.
func (c *SnapshotCacheImpl) Recalculate(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	date = shared.NormalizeDate(date)
	c.group.Forget(shared.DateKey(householdID, date))
	return c.refill(ctx, householdID, date)
}

// refill shares one computation between concurrent callers of a key, detached from the
// first caller's cancellation.
func (c *SnapshotCacheImpl) refill(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	key := shared.DateKey(householdID, date)
	detached := context.WithoutCancel(ctx)

	v, err, coalesced := c.group.Do(key, func() (interface{}, error) {
		return c.compute(detached, householdID, date)
	})
	if err != nil {
		return nil, err
	}
	if coalesced {
		c.logger.Debug("Coalesced snapshot recalculation", "key", key)
	}

	// Callers get their own copy of the coalesced result
	snap := *v.(*snapshot.DailySnapshot)
	return &snap, nil
}

// GetStale returns the stored row whatever its validity
func (c *SnapshotCacheImpl) GetStale(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	return c.snapshots.Get(ctx, householdID, shared.NormalizeDate(date))
}

// compute stamps the snapshot before reading so a write racing the reads is never older than it
func (c *SnapshotCacheImpl) compute(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	calculatedAt := c.now()

	params, err := c.params.Get(ctx, householdID)
	if err != nil {
		var notFound budget.ErrHouseholdNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, c.recorder.Record(ctx, householdID, "parameters.get", err)
	}

	active, err := c.categories.ListActive(ctx, householdID)
	if err != nil {
		return nil, c.recorder.Record(ctx, householdID, "categories.list_active", err)
	}

	entries, err := c.entries.QueryByHouseholdAndDate(ctx, householdID, date)
	if err != nil {
		return nil, c.recorder.Record(ctx, householdID, "ledger.query_by_date", err)
	}

	snap, err := calculator.Compute(params, active, entries, date, calculatedAt)
	if err != nil {
		return nil, err
	}

	if err := c.snapshots.Upsert(ctx, snap); err != nil {
		// The computed figure is still correct; the next read recomputes it
		_ = c.recorder.Record(ctx, householdID, "snapshot.upsert", err)
		c.logger.Warn("Serving uncached daily snapshot",
			"household_id", householdID.String(),
			"date", shared.FormatDate(date))
		return snap, nil
	}

	c.logger.Info("Daily snapshot recalculated",
		"household_id", householdID.String(),
		"date", shared.FormatDate(date),
		"daily_budget", shared.FormatMinor(snap.DailyBudgetAmount),
		"remaining", shared.FormatMinor(snap.RemainingBudgetToday))

	return snap, nil
}
