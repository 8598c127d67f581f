package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/calculator"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/jackc/pgx/v5"
)

// BudgetService is the engine's public contract
type BudgetService interface {
	// GetDailyBudget serves the cached snapshot for the date, recomputing it when stale or missing.
	// Returns a CalculationError when the household has no active categories.
	GetDailyBudget(ctx context.Context, householdID uuid.UUID, date time.Time) (*DailyBudget, error)

	// ForceRecalculate recomputes and stores the snapshot regardless of its state
	ForceRecalculate(ctx context.Context, householdID uuid.UUID, date time.Time) (*DailyBudget, error)

	// Invalidate marks one date, or every date when scope.Date is nil, stale
	Invalidate(ctx context.Context, householdID uuid.UUID, scope InvalidationScope, reason, actorID string) (int64, error)

	// ApplyCategoryDelta adjusts the running total of the household's active category of the given type
	ApplyCategoryDelta(ctx context.Context, householdID uuid.UUID, categoryType shared.CategoryType, delta int64, reason, actorID string) (*CategoryDelta, error)

	RecordMutation(ctx context.Context, m syncstate.Mutation) (*syncstate.Outcome, error)
	GetSyncRecord(ctx context.Context, entryID uuid.UUID) (*syncstate.Record, error)
	ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*syncstate.Record, error)
	ResolveConflict(ctx context.Context, householdID, entryID uuid.UUID, resolvedBy string) error

	// Overview summarizes the month containing asOf
	Overview(ctx context.Context, householdID uuid.UUID, asOf time.Time) (*calculator.MonthlyOverview, error)
}

// MaintenanceService runs household-wide repair actions
type MaintenanceService interface {
	Run(ctx context.Context, householdID uuid.UUID, action MaintenanceAction, actorID string) (*MaintenanceReport, error)
}

// EventProcessor applies one consumed household event
type EventProcessor interface {
	Process(ctx context.Context, event events.Event) error
}

// SnapshotCache serves daily snapshots, recomputing on miss or staleness
type SnapshotCache interface {
	Get(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.Result, error)
	Recalculate(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error)

	// GetStale returns the stored row without checking validity, or ErrSnapshotNotFound
	GetStale(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error)
}

// InvalidationCoordinator turns mutation events into snapshot invalidations
type InvalidationCoordinator interface {
	// Handle invalidates the event's scope; failures are logged and recorded, never returned
	Handle(ctx context.Context, event events.Event)

	// HandleConditional invalidates only snapshots calculated before the event occurred
	HandleConditional(ctx context.Context, event events.Event) error

	InvalidateDate(ctx context.Context, householdID uuid.UUID, date time.Time) (bool, error)
	InvalidateAll(ctx context.Context, householdID uuid.UUID) (int64, error)
}

// CategoryChange is one adjusted category running total
type CategoryChange struct {
	Type   shared.CategoryType
	Result budget.DeltaResult
}

// CategoryTracker maintains category running totals. A nil tx uses the pool.
type CategoryTracker interface {
	ApplyDelta(ctx context.Context, tx pgx.Tx, householdID uuid.UUID, categoryType shared.CategoryType, delta int64) (*CategoryChange, error)

	// ApplyEntryChange moves an entry's contribution from before to after; either may be nil
	ApplyEntryChange(ctx context.Context, tx pgx.Tx, before, after *ledger.Entry) ([]CategoryChange, error)

	// Reconcile recomputes every active category total from the ledger month containing asOf
	Reconcile(ctx context.Context, householdID uuid.UUID, asOf time.Time) ([]CategoryChange, error)
}

// VersionTracker records entry versions and detects stale writers
type VersionTracker interface {
	RecordMutation(ctx context.Context, m syncstate.Mutation) (*syncstate.Outcome, error)
	Get(ctx context.Context, entryID uuid.UUID) (*syncstate.Record, error)
	ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*syncstate.Record, error)
	Resolve(ctx context.Context, entryID uuid.UUID, resolvedBy string) error
	ResolveAll(ctx context.Context, householdID uuid.UUID, resolvedBy string) (int64, error)
}

// DedupGuard collapses repeated entry submissions
type DedupGuard interface {
	// Acquire serializes submissions of the same key within this process
	Acquire(key ledger.DuplicateKey) (release func())

	// FindDuplicate returns the entry an identical submission or the same token already produced
	FindDuplicate(ctx context.Context, key ledger.DuplicateKey, token string) (*ledger.Entry, error)
}

// ErrorRecorder persists failed store operations
type ErrorRecorder interface {
	// Record logs err for operation and returns it wrapped in a TransientStoreError
	Record(ctx context.Context, householdID uuid.UUID, operation string, err error) error
}

// OutboxManager writes events to the transactional outbox. A nil tx uses the pool.
type OutboxManager interface {
	Enqueue(ctx context.Context, tx pgx.Tx, evs ...events.Event) error
}
