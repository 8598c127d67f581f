package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepository_Get(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SnapshotRepository{querier: mock, logger: newTestLogger()}
	householdID := uuid.New()
	date := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	calculatedAt := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	query := `FROM daily_snapshots\s+WHERE household_id = \$1 AND date = \$2`

	t.Run("found", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{
			"household_id", "date", "daily_budget_amount", "total_spent_today", "remaining_budget_today",
			"fixed_spent", "variable_spent", "savings_contributed", "days_remaining", "variable_income", "calculated_at", "is_valid",
		}).AddRow(householdID, date, int64(6667), int64(2000), int64(4667), int64(0), int64(2000), int64(0), 30, int64(200000), calculatedAt, true)

		mock.ExpectQuery(query).WithArgs(householdID, date).WillReturnRows(rows)

		s, err := repo.Get(ctx, householdID, date)
		require.NoError(t, err)
		assert.Equal(t, int64(6667), s.DailyBudgetAmount)
		assert.Equal(t, int64(2000), s.Breakdown.VariableSpent)
		assert.Equal(t, 30, s.DaysRemaining)
		assert.True(t, s.IsValid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(householdID, date).WillReturnError(pgx.ErrNoRows)

		_, err := repo.Get(ctx, householdID, date)
		assert.ErrorAs(t, err, &snapshot.ErrSnapshotNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSnapshotRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SnapshotRepository{querier: mock, logger: newTestLogger()}
	s := &snapshot.DailySnapshot{
		HouseholdID:          uuid.New(),
		Date:                 time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		DailyBudgetAmount:    6667,
		TotalSpentToday:      2000,
		RemainingBudgetToday: 4667,
		Breakdown:            snapshot.Breakdown{VariableSpent: 2000},
		DaysRemaining:        30,
		VariableIncome:       200000,
		CalculatedAt:         time.Now().UTC(),
		IsValid:              true,
	}
	args := []interface{}{
		s.HouseholdID, s.Date, s.DailyBudgetAmount, s.TotalSpentToday, s.RemainingBudgetToday,
		s.Breakdown.FixedSpent, s.Breakdown.VariableSpent, s.Breakdown.SavingsContributed,
		s.DaysRemaining, s.VariableIncome, s.CalculatedAt, s.IsValid,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`(?s)INSERT INTO daily_snapshots .*ON CONFLICT \(household_id, date\) DO UPDATE`).
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Upsert(ctx, s))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("deadlock detected")
		mock.ExpectExec(`INSERT INTO daily_snapshots`).WithArgs(args...).WillReturnError(dbErr)

		err := repo.Upsert(ctx, s)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSnapshotRepository_Invalidate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SnapshotRepository{querier: mock, logger: newTestLogger()}
	householdID := uuid.New()
	date := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE daily_snapshots\s+SET is_valid = FALSE\s+WHERE household_id = \$1 AND date = \$2`).
		WithArgs(householdID, date).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	existed, err := repo.Invalidate(ctx, householdID, date)
	require.NoError(t, err)
	assert.True(t, existed)

	mock.ExpectExec(`WHERE household_id = \$1 AND is_valid`).
		WithArgs(householdID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 7))

	count, err := repo.InvalidateAll(ctx, householdID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_InvalidateIfOlder(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SnapshotRepository{querier: mock, logger: newTestLogger()}
	householdID := uuid.New()
	date := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	changedAt := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`AND date = \$2 AND calculated_at < \$3`).
		WithArgs(householdID, date, changedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	invalidated, err := repo.InvalidateIfOlder(ctx, householdID, date, changedAt)
	require.NoError(t, err)
	assert.False(t, invalidated, "snapshot recomputed after the change stays valid")

	mock.ExpectExec(`AND is_valid AND calculated_at < \$2`).
		WithArgs(householdID, changedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := repo.InvalidateAllIfOlder(ctx, householdID, changedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_ListDates(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SnapshotRepository{querier: mock, logger: newTestLogger()}
	householdID := uuid.New()
	d1 := time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT date\s+FROM daily_snapshots`).
		WithArgs(householdID).
		WillReturnRows(pgxmock.NewRows([]string{"date"}).AddRow(d1).AddRow(d2))

	dates, err := repo.ListDates(ctx, householdID)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d1, d2}, dates)
	assert.NoError(t, mock.ExpectationsWereMet())
}
