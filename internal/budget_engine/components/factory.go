package components

import (
	"log/slog"

	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/config"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/outbox"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/household-daily-budget/internal/platform/persistence"
)

// Stores are the repositories the engine is built on
type Stores struct {
	Params      budget.ParametersRepository
	Categories  budget.CategoryRepository
	Snapshots   snapshot.Repository
	SyncRecords syncstate.Repository
	Outbox      outbox.Repository
	Ledger      ledger.Repository
	Activity    activity.Repository
	ErrorLogs   activity.ErrorLogRepository
}

// Engine bundles the wired components and the services built from them
type Engine struct {
	Cache       service.SnapshotCache
	Coordinator service.InvalidationCoordinator
	Tracker     service.CategoryTracker
	Versions    service.VersionTracker
	Dedup       service.DedupGuard
	Outbox      service.OutboxManager
	Recorder    service.ErrorRecorder
	Budget      service.BudgetService
	Maintenance *service.MaintenanceServiceImpl
}

// Shutdown releases the engine's worker pools
func (e *Engine) Shutdown() {
	if e.Maintenance != nil {
		e.Maintenance.Shutdown()
	}
}

// CreateEngine wires every engine component from the stores.
func CreateEngine(
	txRunner persistence.TxRunner,
	stores Stores,
	logger *slog.Logger,
	cfg *config.Config,
) (*Engine, error) {
	recorder := NewErrorRecorder(stores.ErrorLogs, logger.With("component", "error_recorder"))
	cache := NewSnapshotCache(
		stores.Snapshots,
		stores.Params,
		stores.Categories,
		stores.Ledger,
		recorder,
		cfg.Cache.FreshnessWindow,
		logger.With("component", "snapshot_cache"),
	)
	coordinator := NewInvalidationCoordinator(stores.Snapshots, recorder, logger.With("component", "invalidation"))
	tracker := NewCategoryTracker(stores.Categories, stores.Ledger, recorder, logger.With("component", "category_tracker"))
	versions := NewVersionTracker(stores.SyncRecords, recorder, logger.With("component", "version_tracker"))
	dedup := NewDedupGuard(stores.Ledger, recorder, cfg.Cache.DedupWindow, logger.With("component", "dedup_guard"))
	outboxManager := NewOutboxManager(stores.Outbox, logger.With("component", "outbox_manager"))

	budgetService := service.NewBudgetService(service.BudgetDependencies{
		TxRunner:    txRunner,
		Cache:       cache,
		Coordinator: coordinator,
		Tracker:     tracker,
		Versions:    versions,
		Outbox:      outboxManager,
		Recorder:    recorder,
		Params:      stores.Params,
		Categories:  stores.Categories,
		Entries:     stores.Ledger,
	}, logger.With("component", "budget_service"))

	maintenance, err := service.NewMaintenanceService(service.MaintenanceDependencies{
		Cache:       cache,
		Coordinator: coordinator,
		Tracker:     tracker,
		Versions:    versions,
		Outbox:      outboxManager,
		Recorder:    recorder,
		Snapshots:   stores.Snapshots,
	}, cfg.WorkerPool.Size, logger.With("component", "maintenance"))
	if err != nil {
		return nil, err
	}

	return &Engine{
		Cache:       cache,
		Coordinator: coordinator,
		Tracker:     tracker,
		Versions:    versions,
		Dedup:       dedup,
		Outbox:      outboxManager,
		Recorder:    recorder,
		Budget:      budgetService,
		Maintenance: maintenance,
	}, nil
}

// CreateEventProcessor creates the consumer-side processor, pooled when possible.
func CreateEventProcessor(
	snapshots snapshot.Repository,
	feed activity.Repository,
	errorLogs activity.ErrorLogRepository,
	logger *slog.Logger,
	cfg *config.Config,
) service.EventProcessor {
	recorder := NewErrorRecorder(errorLogs, logger.With("component", "error_recorder"))
	coordinator := NewInvalidationCoordinator(snapshots, recorder, logger.With("component", "invalidation"))
	baseProcessor := service.NewEventProcessor(coordinator, feed, recorder, logger)

	workerPoolProcessor, err := service.NewWorkerPoolEventProcessor(
		baseProcessor,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool processor, falling back to base processor", "error", err)
		return baseProcessor
	}

	logger.Info("Created worker pool event processor", "pool_size", cfg.WorkerPool.Size)
	return workerPoolProcessor
}
