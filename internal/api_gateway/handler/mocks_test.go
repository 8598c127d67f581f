package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/api_gateway/service"
	"github.com/household-daily-budget/internal/budget_engine/calculator"
	engine "github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/stretchr/testify/mock"
)

type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) CreateEntry(ctx context.Context, cmd service.CreateEntryCommand) (*service.EntryResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EntryResult), args.Error(1)
}

func (m *MockEntryService) UpdateEntry(ctx context.Context, cmd service.UpdateEntryCommand) (*service.EntryResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EntryResult), args.Error(1)
}

func (m *MockEntryService) DeleteEntry(ctx context.Context, cmd service.DeleteEntryCommand) (*service.EntryResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EntryResult), args.Error(1)
}

func (m *MockEntryService) GetEntry(ctx context.Context, householdID, entryID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, householdID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockEntryService) ListByDate(ctx context.Context, householdID uuid.UUID, date time.Time) ([]*ledger.Entry, error) {
	args := m.Called(ctx, householdID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockEntryService) ListByRange(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]*ledger.Entry, error) {
	args := m.Called(ctx, householdID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

type MockHouseholdService struct {
	mock.Mock
}

func (m *MockHouseholdService) GetParameters(ctx context.Context, householdID uuid.UUID) (*budget.Parameters, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Parameters), args.Error(1)
}

func (m *MockHouseholdService) UpdateParameters(ctx context.Context, cmd service.UpdateParametersCommand) (*budget.Parameters, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Parameters), args.Error(1)
}

func (m *MockHouseholdService) ListCategories(ctx context.Context, householdID uuid.UUID) ([]*budget.Category, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*budget.Category), args.Error(1)
}

func (m *MockHouseholdService) CreateCategory(ctx context.Context, cmd service.CreateCategoryCommand) (*budget.Category, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Category), args.Error(1)
}

func (m *MockHouseholdService) UpdateCategory(ctx context.Context, cmd service.UpdateCategoryCommand) (*budget.Category, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Category), args.Error(1)
}

func (m *MockHouseholdService) ListActivity(ctx context.Context, householdID uuid.UUID, page, perPage int) ([]*activity.Record, error) {
	args := m.Called(ctx, householdID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Record), args.Error(1)
}

type MockBudgetService struct {
	mock.Mock
}

func (m *MockBudgetService) GetDailyBudget(ctx context.Context, householdID uuid.UUID, date time.Time) (*engine.DailyBudget, error) {
	args := m.Called(ctx, householdID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.DailyBudget), args.Error(1)
}

func (m *MockBudgetService) ForceRecalculate(ctx context.Context, householdID uuid.UUID, date time.Time) (*engine.DailyBudget, error) {
	args := m.Called(ctx, householdID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.DailyBudget), args.Error(1)
}

func (m *MockBudgetService) Invalidate(ctx context.Context, householdID uuid.UUID, scope engine.InvalidationScope, reason, actorID string) (int64, error) {
	args := m.Called(ctx, householdID, scope, reason, actorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBudgetService) ApplyCategoryDelta(ctx context.Context, householdID uuid.UUID, categoryType shared.CategoryType, delta int64, reason, actorID string) (*engine.CategoryDelta, error) {
	args := m.Called(ctx, householdID, categoryType, delta, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.CategoryDelta), args.Error(1)
}

func (m *MockBudgetService) RecordMutation(ctx context.Context, mut syncstate.Mutation) (*syncstate.Outcome, error) {
	args := m.Called(ctx, mut)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncstate.Outcome), args.Error(1)
}

func (m *MockBudgetService) GetSyncRecord(ctx context.Context, entryID uuid.UUID) (*syncstate.Record, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncstate.Record), args.Error(1)
}

func (m *MockBudgetService) ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*syncstate.Record, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncstate.Record), args.Error(1)
}

func (m *MockBudgetService) ResolveConflict(ctx context.Context, householdID, entryID uuid.UUID, resolvedBy string) error {
	args := m.Called(ctx, householdID, entryID, resolvedBy)
	return args.Error(0)
}

func (m *MockBudgetService) Overview(ctx context.Context, householdID uuid.UUID, asOf time.Time) (*calculator.MonthlyOverview, error) {
	args := m.Called(ctx, householdID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calculator.MonthlyOverview), args.Error(1)
}

type MockMaintenanceService struct {
	mock.Mock
}

func (m *MockMaintenanceService) Run(ctx context.Context, householdID uuid.UUID, action engine.MaintenanceAction, actorID string) (*engine.MaintenanceReport, error) {
	args := m.Called(ctx, householdID, action, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.MaintenanceReport), args.Error(1)
}
