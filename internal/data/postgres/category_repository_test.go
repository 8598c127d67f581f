package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categoryRowColumns = []string{"id", "household_id", "name", "type", "budgeted_amount", "current_spent", "is_active", "created_at", "updated_at"}

func TestCategoryRepository_ApplyDelta(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CategoryRepository{querier: mock, logger: newTestLogger()}
	categoryID := uuid.New()
	query := `UPDATE budget_categories AS c\s+SET current_spent = GREATEST\(0, c.current_spent \+ \$1\)`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(2000), pgxmock.AnyArg(), categoryID).
			WillReturnRows(pgxmock.NewRows([]string{"old", "new", "budgeted_amount"}).AddRow(int64(1000), int64(3000), int64(40000)))

		result, err := repo.ApplyDelta(ctx, categoryID, 2000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), result.Old)
		assert.Equal(t, int64(3000), result.New)
		assert.Equal(t, int64(37000), result.Remaining())
		assert.Equal(t, categoryID, result.CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clamped by the statement", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(-500), pgxmock.AnyArg(), categoryID).
			WillReturnRows(pgxmock.NewRows([]string{"old", "new", "budgeted_amount"}).AddRow(int64(300), int64(0), int64(40000)))

		result, err := repo.ApplyDelta(ctx, categoryID, -500)
		require.NoError(t, err)
		assert.Equal(t, int64(300), result.Old)
		assert.Zero(t, result.New)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(100), pgxmock.AnyArg(), categoryID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.ApplyDelta(ctx, categoryID, 100)
		var notFound budget.ErrCategoryNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, categoryID, notFound.CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		mock.ExpectQuery(query).
			WithArgs(int64(100), pgxmock.AnyArg(), categoryID).
			WillReturnError(dbErr)

		_, err := repo.ApplyDelta(ctx, categoryID, 100)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to apply category delta")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoryRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CategoryRepository{querier: mock, logger: newTestLogger()}
	c, err := budget.NewCategory(uuid.New(), "Groceries", shared.CategoryVariable, 40000)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO budget_categories`).
			WithArgs(c.ID, c.HouseholdID, c.Name, c.Type, c.BudgetedAmount, c.CurrentSpent, c.IsActive, c.CreatedAt, c.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(ctx, c))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate active name", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO budget_categories`).
			WithArgs(c.ID, c.HouseholdID, c.Name, c.Type, c.BudgetedAmount, c.CurrentSpent, c.IsActive, c.CreatedAt, c.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, c)
		assert.ErrorAs(t, err, &budget.ErrDuplicateCategory{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoryRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CategoryRepository{querier: mock, logger: newTestLogger()}
	householdID := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows(categoryRowColumns).
		AddRow(uuid.New(), householdID, "Rent", shared.CategoryFixed, int64(250000), int64(250000), true, now, now).
		AddRow(uuid.New(), householdID, "Food", shared.CategoryVariable, int64(40000), int64(2000), true, now, now)

	mock.ExpectQuery(`FROM budget_categories\s+WHERE household_id = \$1 AND is_active`).
		WithArgs(householdID).
		WillReturnRows(rows)

	categories, err := repo.ListActive(ctx, householdID)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Rent", categories[0].Name)
	assert.Equal(t, shared.CategoryVariable, categories[1].Type)
	assert.Equal(t, int64(2000), categories[1].CurrentSpent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_GetActiveByType_NotFound(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CategoryRepository{querier: mock, logger: newTestLogger()}
	householdID := uuid.New()

	mock.ExpectQuery(`WHERE household_id = \$1 AND type = \$2 AND is_active`).
		WithArgs(householdID, shared.CategorySavings).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetActiveByType(ctx, householdID, shared.CategorySavings)
	var notFound budget.ErrCategoryNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, shared.CategorySavings, notFound.Type)
	assert.Contains(t, err.Error(), "no active savings category")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Update(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CategoryRepository{querier: mock, logger: newTestLogger()}
	c := &budget.Category{ID: uuid.New(), Name: "Food", BudgetedAmount: 50000, IsActive: false, UpdatedAt: time.Now().UTC()}

	mock.ExpectExec(`UPDATE budget_categories\s+SET name = \$1`).
		WithArgs(c.Name, c.BudgetedAmount, c.IsActive, c.UpdatedAt, c.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(ctx, c)
	assert.ErrorAs(t, err, &budget.ErrCategoryNotFound{})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_SetCurrentSpent(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CategoryRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()

	mock.ExpectExec(`SET current_spent = GREATEST\(0, \$1\)`).
		WithArgs(int64(12345), pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetCurrentSpent(ctx, id, 12345))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_WithTx(t *testing.T) {
	repo := &CategoryRepository{querier: nil, logger: newTestLogger()}

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	categoryRepo, ok := txRepo.(*CategoryRepository)
	require.True(t, ok)
	assert.Equal(t, mockTx, categoryRepo.querier)
}
