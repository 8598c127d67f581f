package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/panjf2000/ants/v2"
)

type MaintenanceServiceImpl struct {
	cache       SnapshotCache
	coordinator InvalidationCoordinator
	tracker     CategoryTracker
	versions    VersionTracker
	outbox      OutboxManager
	recorder    ErrorRecorder
	snapshots   snapshot.Repository
	pool        *ants.Pool
	logger      *slog.Logger
}

// MaintenanceDependencies groups what NewMaintenanceService needs
type MaintenanceDependencies struct {
	Cache       SnapshotCache
	Coordinator InvalidationCoordinator
	Tracker     CategoryTracker
	Versions    VersionTracker
	Outbox      OutboxManager
	Recorder    ErrorRecorder
	Snapshots   snapshot.Repository
}

// NewMaintenanceService recomputes snapshots on a worker pool of the given size
func NewMaintenanceService(deps MaintenanceDependencies, poolSize int, logger *slog.Logger) (*MaintenanceServiceImpl, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &MaintenanceServiceImpl{
		cache:       deps.Cache,
		coordinator: deps.Coordinator,
		tracker:     deps.Tracker,
		versions:    deps.Versions,
		outbox:      deps.Outbox,
		recorder:    deps.Recorder,
		snapshots:   deps.Snapshots,
		pool:        pool,
		logger:      logger,
	}, nil
}

func (s *MaintenanceServiceImpl) Run(ctx context.Context, householdID uuid.UUID, action MaintenanceAction, actorID string) (*MaintenanceReport, error) {
	if !action.Valid() {
		return nil, shared.NewValidationError("action", "unknown maintenance action %q", action)
	}

	report := &MaintenanceReport{Action: action, StartedAt: time.Now().UTC()}
	logger := s.logger.With("household_id", householdID.String(), "action", action)
	logger.Info("Running maintenance action")

	var err error
	switch action {
	case ActionResolveSyncConflicts:
		err = s.resolveConflicts(ctx, householdID, actorID, report)
	case ActionRecalculateBudgets:
		err = s.recalculate(ctx, householdID, actorID, report)
	case ActionReconcileCategoryTotals:
		err = s.reconcile(ctx, householdID, actorID, report)
	}
	if err != nil {
		logger.Error("Maintenance action failed", "error", err)
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info("Maintenance action finished",
		"affected", report.Affected,
		"failed", report.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (s *MaintenanceServiceImpl) resolveConflicts(ctx context.Context, householdID uuid.UUID, actorID string, report *MaintenanceReport) error {
	count, err := s.versions.ResolveAll(ctx, householdID, actorID)
	if err != nil {
		return err
	}
	report.Affected = count

	if count > 0 {
		s.publish(ctx, events.ConflictResolved{Meta: events.NewMeta(householdID, actorID), Count: count})
	}
	return nil
}

// recalculate invalidates every snapshot of the household and recomputes each stored date
func (s *MaintenanceServiceImpl) recalculate(ctx context.Context, householdID uuid.UUID, actorID string, report *MaintenanceReport) error {
	dates, err := s.snapshots.ListDates(ctx, householdID)
	if err != nil {
		return s.recorder.Record(ctx, householdID, "snapshot.list_dates", err)
	}

	if _, err := s.coordinator.InvalidateAll(ctx, householdID); err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		affected atomic.Int64
		failed   atomic.Int64
	)
	for _, date := range dates {
		date := date
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if _, err := s.cache.Recalculate(ctx, householdID, date); err != nil {
				failed.Add(1)
				s.logger.Warn("Failed to recalculate daily snapshot",
					"household_id", householdID.String(),
					"date", shared.FormatDate(date),
					"error", err)
				return
			}
			affected.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
			s.logger.Error("Failed to submit recalculation to worker pool", "error", submitErr)
		}
	}
	wg.Wait()

	report.Affected = affected.Load()
	report.Failed = failed.Load()

	s.publish(ctx, events.SnapshotsInvalidated{
		Meta:   events.NewMeta(householdID, actorID),
		Reason: string(ActionRecalculateBudgets),
	})
	return nil
}

func (s *MaintenanceServiceImpl) reconcile(ctx context.Context, householdID uuid.UUID, actorID string, report *MaintenanceReport) error {
	changes, err := s.tracker.Reconcile(ctx, householdID, time.Now().UTC())
	if err != nil {
		return err
	}
	report.Affected = int64(len(changes))

	if len(changes) > 0 {
		s.publish(ctx, SpendChangedEvents(householdID, actorID, string(ActionReconcileCategoryTotals), changes)...)
	}
	return nil
}

func (s *MaintenanceServiceImpl) publish(ctx context.Context, evs ...events.Event) {
	if err := s.outbox.Enqueue(ctx, nil, evs...); err != nil {
		s.logger.Warn("Failed to queue activity event", "error", err)
	}
}

// Shutdown releases the recalculation pool
func (s *MaintenanceServiceImpl) Shutdown() {
	s.logger.Info("Shutting down maintenance pool", "running_workers", s.pool.Running())
	s.pool.Release()
}
