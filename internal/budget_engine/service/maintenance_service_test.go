package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/data/memory"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type maintenanceMocks struct {
	cache       *MockSnapshotCache
	coordinator *MockCoordinator
	tracker     *MockCategoryTracker
	versions    *MockVersionTracker
	outbox      *MockOutboxManager
	recorder    *MockErrorRecorder
	snapshots   *memory.SnapshotRepository
}

func newMaintenanceService(t *testing.T) (*MaintenanceServiceImpl, *maintenanceMocks) {
	t.Helper()
	m := &maintenanceMocks{
		cache:       &MockSnapshotCache{},
		coordinator: &MockCoordinator{},
		tracker:     &MockCategoryTracker{},
		versions:    &MockVersionTracker{},
		outbox:      &MockOutboxManager{},
		recorder:    &MockErrorRecorder{},
		snapshots:   memory.NewSnapshotRepository(),
	}
	svc, err := NewMaintenanceService(MaintenanceDependencies{
		Cache:       m.cache,
		Coordinator: m.coordinator,
		Tracker:     m.tracker,
		Versions:    m.versions,
		Outbox:      m.outbox,
		Recorder:    m.recorder,
		Snapshots:   m.snapshots,
	}, 4, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(svc.Shutdown)
	return svc, m
}

func TestMaintenanceService_UnknownAction(t *testing.T) {
	svc, _ := newMaintenanceService(t)

	_, err := svc.Run(context.Background(), uuid.New(), MaintenanceAction("drop_everything"), "admin")
	assert.True(t, shared.IsValidation(err))
}

func TestMaintenanceService_ResolveSyncConflicts(t *testing.T) {
	svc, m := newMaintenanceService(t)
	householdID := uuid.New()
	m.versions.On("ResolveAll", mock.Anything, householdID, "admin").Return(int64(3), nil).Once()
	m.outbox.On("Enqueue", mock.Anything, mock.Anything, mock.MatchedBy(func(evs []events.Event) bool {
		ev, ok := evs[0].(events.ConflictResolved)
		return ok && ev.EntryID == nil && ev.Count == 3
	})).Return(nil).Once()

	report, err := svc.Run(context.Background(), householdID, ActionResolveSyncConflicts, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Affected)
	assert.Equal(t, ActionResolveSyncConflicts, report.Action)
	m.outbox.AssertExpectations(t)
}

func TestMaintenanceService_RecalculateBudgets(t *testing.T) {
	ctx := context.Background()
	svc, m := newMaintenanceService(t)
	householdID := uuid.New()

	dates := []time.Time{
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		require.NoError(t, m.snapshots.Upsert(ctx, &snapshot.DailySnapshot{HouseholdID: householdID, Date: d, IsValid: true}))
	}

	m.coordinator.On("InvalidateAll", mock.Anything, householdID).Return(int64(3), nil).Once()
	m.cache.On("Recalculate", mock.Anything, householdID, dates[0]).Return(&snapshot.DailySnapshot{}, nil).Once()
	m.cache.On("Recalculate", mock.Anything, householdID, dates[1]).Return(&snapshot.DailySnapshot{}, nil).Once()
	m.cache.On("Recalculate", mock.Anything, householdID, dates[2]).Return(nil, &shared.CalculationError{Reason: "no categories"}).Once()
	m.outbox.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	report, err := svc.Run(ctx, householdID, ActionRecalculateBudgets, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Affected)
	assert.Equal(t, int64(1), report.Failed)
	m.cache.AssertExpectations(t)
	m.coordinator.AssertExpectations(t)
}

func TestMaintenanceService_RecalculateInvalidateFailure(t *testing.T) {
	svc, m := newMaintenanceService(t)
	householdID := uuid.New()
	storeErr := shared.NewTransientStoreError("snapshot.invalidate_all", 0, errors.New("timeout"))
	m.coordinator.On("InvalidateAll", mock.Anything, householdID).Return(int64(0), storeErr).Once()

	_, err := svc.Run(context.Background(), householdID, ActionRecalculateBudgets, "admin")
	assert.True(t, shared.IsTransient(err))
	m.cache.AssertNotCalled(t, "Recalculate", mock.Anything, mock.Anything, mock.Anything)
}

func TestMaintenanceService_ReconcileCategoryTotals(t *testing.T) {
	svc, m := newMaintenanceService(t)
	householdID := uuid.New()
	changes := []CategoryChange{
		{Type: shared.CategoryVariable, Result: budget.DeltaResult{CategoryID: uuid.New(), Old: 99999, New: 2000, BudgetedAmount: 200000}},
	}
	m.tracker.On("Reconcile", mock.Anything, householdID, mock.Anything).Return(changes, nil).Once()
	m.outbox.On("Enqueue", mock.Anything, mock.Anything, mock.MatchedBy(func(evs []events.Event) bool {
		ev, ok := evs[0].(events.CategorySpendChanged)
		return len(evs) == 1 && ok && ev.New == 2000 && ev.Reason == string(ActionReconcileCategoryTotals)
	})).Return(nil).Once()

	report, err := svc.Run(context.Background(), householdID, ActionReconcileCategoryTotals, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Affected)
	m.outbox.AssertExpectations(t)
}
