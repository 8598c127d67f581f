package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/components"
	"github.com/household-daily-budget/internal/data/memory"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness is a set-up household behind both gateway services
type harness struct {
	householdID uuid.UUID
	params      *memory.ParametersRepository
	categories  *memory.CategoryRepository
	snapshots   *memory.SnapshotRepository
	syncRecords *memory.SyncRepository
	outbox      *memory.OutboxRepository
	ledger      *memory.LedgerRepository
	feed        *memory.ActivityRepository
	errorLogs   *memory.ErrorLogRepository
	byType      map[shared.CategoryType]*budget.Category

	entries   EntryService
	household HouseholdService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := newTestLogger()

	h := &harness{
		householdID: uuid.New(),
		params:      memory.NewParametersRepository(),
		categories:  memory.NewCategoryRepository(),
		snapshots:   memory.NewSnapshotRepository(),
		syncRecords: memory.NewSyncRepository(),
		outbox:      memory.NewOutboxRepository(),
		ledger:      memory.NewLedgerRepository(),
		feed:        memory.NewActivityRepository(),
		errorLogs:   memory.NewErrorLogRepository(),
		byType:      make(map[shared.CategoryType]*budget.Category),
	}

	recorder := components.NewErrorRecorder(h.errorLogs, logger)
	outboxManager := components.NewOutboxManager(h.outbox, logger)
	coordinator := components.NewInvalidationCoordinator(h.snapshots, recorder, logger)

	h.entries = NewEntryService(logger, EntryDependencies{
		TxRunner:    memory.TxRunner{},
		Ledger:      h.ledger,
		Params:      h.params,
		Dedup:       components.NewDedupGuard(h.ledger, recorder, 5*time.Second, logger),
		Versions:    components.NewVersionTracker(h.syncRecords, recorder, logger),
		Tracker:     components.NewCategoryTracker(h.categories, h.ledger, recorder, logger),
		Outbox:      outboxManager,
		Coordinator: coordinator,
		Recorder:    recorder,
	})
	h.household = NewHouseholdService(logger, HouseholdDependencies{
		TxRunner:    memory.TxRunner{},
		Params:      h.params,
		Categories:  h.categories,
		Feed:        h.feed,
		Outbox:      outboxManager,
		Coordinator: coordinator,
		Recorder:    recorder,
	})

	require.NoError(t, h.params.Update(ctx, &budget.Parameters{
		HouseholdID:   h.householdID,
		Currency:      "EUR",
		MonthlyIncome: 500000,
		FixedExpenses: 250000,
		SavingsGoal:   50000,
	}))
	for _, ct := range []shared.CategoryType{shared.CategoryFixed, shared.CategoryVariable, shared.CategorySavings} {
		c, err := budget.NewCategory(h.householdID, string(ct), ct, 100000)
		require.NoError(t, err)
		require.NoError(t, h.categories.Create(ctx, c))
		h.byType[ct] = c
	}
	return h
}

func (h *harness) spent(t *testing.T, category shared.CategoryType) int64 {
	t.Helper()
	c, err := h.categories.GetByID(context.Background(), h.byType[category].ID)
	require.NoError(t, err)
	return c.CurrentSpent
}

// seedSnapshot stores a valid snapshot for date
func (h *harness) seedSnapshot(t *testing.T, date time.Time) {
	t.Helper()
	require.NoError(t, h.snapshots.Upsert(context.Background(), &snapshot.DailySnapshot{
		HouseholdID:       h.householdID,
		Date:              date,
		DailyBudgetAmount: 6667,
		CalculatedAt:      time.Now().UTC().Add(-time.Minute),
		IsValid:           true,
	}))
}

func (h *harness) snapshotValid(t *testing.T, date time.Time) bool {
	t.Helper()
	s, err := h.snapshots.Get(context.Background(), h.householdID, date)
	require.NoError(t, err)
	return s.IsValid
}

func (h *harness) expense(amount int64, category shared.CategoryType, date time.Time) CreateEntryCommand {
	return CreateEntryCommand{
		HouseholdID: h.householdID,
		AuthorID:    "user-1",
		AuthorName:  "Alex",
		Description: "Groceries",
		Amount:      amount,
		Category:    category,
		Direction:   shared.DirectionExpense,
		Date:        date,
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
