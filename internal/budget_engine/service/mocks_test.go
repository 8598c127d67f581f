package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) Get(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.Result, error) {
	args := m.Called(ctx, householdID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.Result), args.Error(1)
}

func (m *MockSnapshotCache) Recalculate(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	args := m.Called(ctx, householdID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.DailySnapshot), args.Error(1)
}

func (m *MockSnapshotCache) GetStale(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	args := m.Called(ctx, householdID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.DailySnapshot), args.Error(1)
}

type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) Handle(ctx context.Context, event events.Event) {
	m.Called(ctx, event)
}

func (m *MockCoordinator) HandleConditional(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockCoordinator) InvalidateDate(ctx context.Context, householdID uuid.UUID, date time.Time) (bool, error) {
	args := m.Called(ctx, householdID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockCoordinator) InvalidateAll(ctx context.Context, householdID uuid.UUID) (int64, error) {
	args := m.Called(ctx, householdID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCategoryTracker struct {
	mock.Mock
}

func (m *MockCategoryTracker) ApplyDelta(ctx context.Context, tx pgx.Tx, householdID uuid.UUID, categoryType shared.CategoryType, delta int64) (*CategoryChange, error) {
	args := m.Called(ctx, tx, householdID, categoryType, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CategoryChange), args.Error(1)
}

func (m *MockCategoryTracker) ApplyEntryChange(ctx context.Context, tx pgx.Tx, before, after *ledger.Entry) ([]CategoryChange, error) {
	args := m.Called(ctx, tx, before, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CategoryChange), args.Error(1)
}

func (m *MockCategoryTracker) Reconcile(ctx context.Context, householdID uuid.UUID, asOf time.Time) ([]CategoryChange, error) {
	args := m.Called(ctx, householdID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CategoryChange), args.Error(1)
}

type MockVersionTracker struct {
	mock.Mock
}

func (m *MockVersionTracker) RecordMutation(ctx context.Context, mu syncstate.Mutation) (*syncstate.Outcome, error) {
	args := m.Called(ctx, mu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncstate.Outcome), args.Error(1)
}

func (m *MockVersionTracker) Get(ctx context.Context, entryID uuid.UUID) (*syncstate.Record, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncstate.Record), args.Error(1)
}

func (m *MockVersionTracker) ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*syncstate.Record, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncstate.Record), args.Error(1)
}

func (m *MockVersionTracker) Resolve(ctx context.Context, entryID uuid.UUID, resolvedBy string) error {
	args := m.Called(ctx, entryID, resolvedBy)
	return args.Error(0)
}

func (m *MockVersionTracker) ResolveAll(ctx context.Context, householdID uuid.UUID, resolvedBy string) (int64, error) {
	args := m.Called(ctx, householdID, resolvedBy)
	return args.Get(0).(int64), args.Error(1)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) Enqueue(ctx context.Context, tx pgx.Tx, evs ...events.Event) error {
	args := m.Called(ctx, tx, evs)
	return args.Error(0)
}

type MockErrorRecorder struct {
	mock.Mock
}

func (m *MockErrorRecorder) Record(ctx context.Context, householdID uuid.UUID, operation string, err error) error {
	args := m.Called(ctx, householdID, operation, err)
	return args.Error(0)
}

type MockEventProcessor struct {
	mock.Mock
}

func (m *MockEventProcessor) Process(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
