// Package service holds the budget engine's contracts and the services composing its components.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/calculator"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/household-daily-budget/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

type BudgetServiceImpl struct {
	txRunner    persistence.TxRunner
	cache       SnapshotCache
	coordinator InvalidationCoordinator
	tracker     CategoryTracker
	versions    VersionTracker
	outbox      OutboxManager
	recorder    ErrorRecorder
	params      budget.ParametersRepository
	categories  budget.CategoryRepository
	entries     ledger.Repository
	logger      *slog.Logger
}

// BudgetDependencies groups what NewBudgetService needs
type BudgetDependencies struct {
	TxRunner    persistence.TxRunner
	Cache       SnapshotCache
	Coordinator InvalidationCoordinator
	Tracker     CategoryTracker
	Versions    VersionTracker
	Outbox      OutboxManager
	Recorder    ErrorRecorder
	Params      budget.ParametersRepository
	Categories  budget.CategoryRepository
	Entries     ledger.Repository
}

func NewBudgetService(deps BudgetDependencies, logger *slog.Logger) BudgetService {
	return &BudgetServiceImpl{
		txRunner:    deps.TxRunner,
		cache:       deps.Cache,
		coordinator: deps.Coordinator,
		tracker:     deps.Tracker,
		versions:    deps.Versions,
		outbox:      deps.Outbox,
		recorder:    deps.Recorder,
		params:      deps.Params,
		categories:  deps.Categories,
		entries:     deps.Entries,
		logger:      logger,
	}
}

func (s *BudgetServiceImpl) GetDailyBudget(ctx context.Context, householdID uuid.UUID, date time.Time) (*DailyBudget, error) {
	if householdID == uuid.Nil {
		return nil, shared.NewValidationError("household_id", "is required")
	}

	result, err := s.cache.Get(ctx, householdID, date)
	if err != nil {
		return nil, err
	}
	return NewDailyBudget(result.Snapshot, result.IsCached), nil
}

// ForceRecalculate ignores the stored snapshot; repeated calls without mutations in between yield the same figures
func (s *BudgetServiceImpl) ForceRecalculate(ctx context.Context, householdID uuid.UUID, date time.Time) (*DailyBudget, error) {
	if householdID == uuid.Nil {
		return nil, shared.NewValidationError("household_id", "is required")
	}

	snap, err := s.cache.Recalculate(ctx, householdID, date)
	if err != nil {
		return nil, err
	}
	return NewDailyBudget(snap, false), nil
}

func (s *BudgetServiceImpl) Invalidate(ctx context.Context, householdID uuid.UUID, scope InvalidationScope, reason, actorID string) (int64, error) {
	var (
		count int64
		err   error
	)

	if scope.Date != nil {
		var existed bool
		existed, err = s.coordinator.InvalidateDate(ctx, householdID, *scope.Date)
		if existed {
			count = 1
		}
	} else {
		count, err = s.coordinator.InvalidateAll(ctx, householdID)
	}
	if err != nil {
		return 0, err
	}

	var date *time.Time
	if scope.Date != nil {
		d := shared.NormalizeDate(*scope.Date)
		date = &d
	}
	s.publish(ctx, events.SnapshotsInvalidated{
		Meta:   events.NewMeta(householdID, actorID),
		Date:   date,
		Reason: reason,
	})

	return count, nil
}

// ApplyCategoryDelta adjusts a category total and queues the activity fact in the same transaction
func (s *BudgetServiceImpl) ApplyCategoryDelta(ctx context.Context, householdID uuid.UUID, categoryType shared.CategoryType, delta int64, reason, actorID string) (*CategoryDelta, error) {
	var change *CategoryChange

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		change, err = s.tracker.ApplyDelta(ctx, tx, householdID, categoryType, delta)
		if err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, spendChanged(householdID, actorID, reason, *change))
	})
	if err != nil {
		if shared.IsValidation(err) || shared.IsTransient(err) {
			return nil, err
		}
		return nil, s.recorder.Record(ctx, householdID, "categories.apply_delta_tx", err)
	}

	s.logger.Info("Category spend adjusted",
		"household_id", householdID.String(),
		"category", categoryType,
		"delta", delta,
		"reason", reason,
		"old", change.Result.Old,
		"new", change.Result.New)

	return &CategoryDelta{
		CategoryID: change.Result.CategoryID,
		Type:       change.Type,
		Old:        change.Result.Old,
		New:        change.Result.New,
		Remaining:  change.Result.Remaining(),
	}, nil
}

func (s *BudgetServiceImpl) RecordMutation(ctx context.Context, m syncstate.Mutation) (*syncstate.Outcome, error) {
	return s.versions.RecordMutation(ctx, m)
}

func (s *BudgetServiceImpl) GetSyncRecord(ctx context.Context, entryID uuid.UUID) (*syncstate.Record, error) {
	return s.versions.Get(ctx, entryID)
}

func (s *BudgetServiceImpl) ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*syncstate.Record, error) {
	return s.versions.ListConflicts(ctx, householdID)
}

func (s *BudgetServiceImpl) ResolveConflict(ctx context.Context, householdID, entryID uuid.UUID, resolvedBy string) error {
	record, err := s.versions.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if record.HouseholdID != householdID {
		return syncstate.ErrRecordNotFound{ResourceID: entryID}
	}

	if err := s.versions.Resolve(ctx, entryID, resolvedBy); err != nil {
		return err
	}

	s.publish(ctx, events.ConflictResolved{
		Meta:    events.NewMeta(householdID, resolvedBy),
		EntryID: &entryID,
		Count:   1,
	})
	return nil
}

func (s *BudgetServiceImpl) Overview(ctx context.Context, householdID uuid.UUID, asOf time.Time) (*calculator.MonthlyOverview, error) {
	params, err := s.params.Get(ctx, householdID)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, s.recorder.Record(ctx, householdID, "categories.list", err)
	}

	from, to := shared.MonthBounds(asOf)
	entries, err := s.entries.QueryByHouseholdAndDateRange(ctx, householdID, from, to)
	if err != nil {
		return nil, s.recorder.Record(ctx, householdID, "ledger.query_by_range", err)
	}

	overview := calculator.Overview(params, categories, entries, asOf)
	return &overview, nil
}

// publish queues an activity fact outside any transaction; a failure only loses the feed item
func (s *BudgetServiceImpl) publish(ctx context.Context, evs ...events.Event) {
	if err := s.outbox.Enqueue(ctx, nil, evs...); err != nil {
		s.logger.Warn("Failed to queue activity event", "error", err)
	}
}

func spendChanged(householdID uuid.UUID, actorID, reason string, change CategoryChange) events.CategorySpendChanged {
	return events.CategorySpendChanged{
		Meta:       events.NewMeta(householdID, actorID),
		CategoryID: change.Result.CategoryID,
		Type:       change.Type,
		Old:        change.Result.Old,
		New:        change.Result.New,
		Remaining:  change.Result.Remaining(),
		Reason:     reason,
	}
}

// SpendChangedEvents builds one activity fact per adjusted category
func SpendChangedEvents(householdID uuid.UUID, actorID, reason string, changes []CategoryChange) []events.Event {
	evs := make([]events.Event, 0, len(changes))
	for _, c := range changes {
		evs = append(evs, spendChanged(householdID, actorID, reason, c))
	}
	return evs
}
