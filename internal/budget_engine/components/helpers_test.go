package components

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/data/memory"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture is a household with parameters 5000.00 / 2500.00 / 500.00 and one category per type
type fixture struct {
	householdID uuid.UUID
	params      *memory.ParametersRepository
	categories  *memory.CategoryRepository
	snapshots   *memory.SnapshotRepository
	syncRecords *memory.SyncRepository
	ledger      *memory.LedgerRepository
	errorLogs   *memory.ErrorLogRepository
	recorder    service.ErrorRecorder
	byType      map[shared.CategoryType]*budget.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		householdID: uuid.New(),
		params:      memory.NewParametersRepository(),
		categories:  memory.NewCategoryRepository(),
		snapshots:   memory.NewSnapshotRepository(),
		syncRecords: memory.NewSyncRepository(),
		ledger:      memory.NewLedgerRepository(),
		errorLogs:   memory.NewErrorLogRepository(),
		byType:      make(map[shared.CategoryType]*budget.Category),
	}
	f.recorder = NewErrorRecorder(f.errorLogs, newTestLogger())

	require.NoError(t, f.params.Update(ctx, &budget.Parameters{
		HouseholdID:   f.householdID,
		Currency:      "EUR",
		MonthlyIncome: 500000,
		FixedExpenses: 250000,
		SavingsGoal:   50000,
	}))

	budgets := map[shared.CategoryType]int64{
		shared.CategoryFixed:    250000,
		shared.CategoryVariable: 200000,
		shared.CategorySavings:  50000,
	}
	for _, ct := range []shared.CategoryType{shared.CategoryFixed, shared.CategoryVariable, shared.CategorySavings} {
		c, err := budget.NewCategory(f.householdID, string(ct), ct, budgets[ct])
		require.NoError(t, err)
		require.NoError(t, f.categories.Create(ctx, c))
		f.byType[ct] = c
	}
	return f
}

func (f *fixture) addExpense(t *testing.T, category shared.CategoryType, amount int64, date time.Time) *ledger.Entry {
	t.Helper()
	e, err := ledger.NewEntry(f.householdID, "user-1", "expense", amount, category, shared.DirectionExpense, date)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Create(context.Background(), e))
	return e
}

func (f *fixture) spent(t *testing.T, category shared.CategoryType) int64 {
	t.Helper()
	c, err := f.categories.GetByID(context.Background(), f.byType[category].ID)
	require.NoError(t, err)
	return c.CurrentSpent
}

func (f *fixture) cache(window time.Duration) *SnapshotCacheImpl {
	return NewSnapshotCache(f.snapshots, f.params, f.categories, f.ledger, f.recorder, window, newTestLogger()).(*SnapshotCacheImpl)
}

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}
