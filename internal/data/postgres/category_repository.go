package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const categoryColumns = `id, household_id, name, type, budgeted_amount, current_spent, is_active, created_at, updated_at`

// CategoryRepository implements budget.CategoryRepository for PostgreSQL
type CategoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(logger *slog.Logger, db *persistence.PostgresDB) budget.CategoryRepository {
	return &CategoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *CategoryRepository) WithTx(tx pgx.Tx) budget.CategoryRepository {
	return &CategoryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new category. An active category with the same name yields ErrDuplicateCategory.
func (r *CategoryRepository) Create(ctx context.Context, c *budget.Category) error {
	query := `
		INSERT INTO budget_categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.HouseholdID,
		c.Name,
		c.Type,
		c.BudgetedAmount,
		c.CurrentSpent,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return budget.ErrDuplicateCategory{Name: c.Name}
		}
		r.logger.Error("Failed to create category", "household_id", c.HouseholdID.String(), "error", err)
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by its ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*budget.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM budget_categories
		WHERE id = $1
	`

	c, err := scanCategory(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, budget.ErrCategoryNotFound{CategoryID: id}
		}
		r.logger.Error("Failed to get category", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return c, nil
}

// ListByHousehold returns every category of the household, active first
func (r *CategoryRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]*budget.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM budget_categories
		WHERE household_id = $1
		ORDER BY is_active DESC, type, name
	`
	return r.list(ctx, "list categories", query, householdID)
}

// ListActive returns the household's active categories
func (r *CategoryRepository) ListActive(ctx context.Context, householdID uuid.UUID) ([]*budget.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM budget_categories
		WHERE household_id = $1 AND is_active
		ORDER BY type, name
	`
	return r.list(ctx, "list active categories", query, householdID)
}

// GetActiveByType returns the oldest active category of a type
func (r *CategoryRepository) GetActiveByType(ctx context.Context, householdID uuid.UUID, categoryType shared.CategoryType) (*budget.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM budget_categories
		WHERE household_id = $1 AND type = $2 AND is_active
		ORDER BY created_at ASC
		LIMIT 1
	`

	c, err := scanCategory(r.querier.QueryRow(ctx, query, householdID, categoryType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, budget.ErrCategoryNotFound{HouseholdID: householdID, Type: categoryType}
		}
		r.logger.Error("Failed to get category by type",
			"household_id", householdID.String(),
			"type", string(categoryType),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get category by type: %w", err)
	}

	return c, nil
}

// Update writes the editable fields of a category. The running total is left untouched.
func (r *CategoryRepository) Update(ctx context.Context, c *budget.Category) error {
	query := `
		UPDATE budget_categories
		SET name = $1, budgeted_amount = $2, is_active = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.querier.Exec(ctx, query, c.Name, c.BudgetedAmount, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return budget.ErrDuplicateCategory{Name: c.Name}
		}
		r.logger.Error("Failed to update category", "id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return budget.ErrCategoryNotFound{CategoryID: c.ID}
	}

	return nil
}

// ApplyDelta adjusts current_spent by delta in one statement. The row lock taken by the
// sub-select makes the returned old value the exact pre-image of this write.
func (r *CategoryRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (*budget.DeltaResult, error) {
	query := `
		UPDATE budget_categories AS c
		SET current_spent = GREATEST(0, c.current_spent + $1), updated_at = $2
		FROM (SELECT id, current_spent FROM budget_categories WHERE id = $3 FOR UPDATE) AS prev
		WHERE c.id = prev.id
		RETURNING prev.current_spent, c.current_spent, c.budgeted_amount
	`

	result := budget.DeltaResult{CategoryID: id}
	err := r.querier.QueryRow(ctx, query, delta, time.Now().UTC(), id).Scan(
		&result.Old,
		&result.New,
		&result.BudgetedAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, budget.ErrCategoryNotFound{CategoryID: id}
		}
		r.logger.Error("Failed to apply category delta", "id", id.String(), "delta", delta, "error", err)
		return nil, fmt.Errorf("failed to apply category delta: %w", err)
	}

	return &result, nil
}

// SetCurrentSpent overwrites the running total, clamped at zero
func (r *CategoryRepository) SetCurrentSpent(ctx context.Context, id uuid.UUID, amount int64) error {
	query := `
		UPDATE budget_categories
		SET current_spent = GREATEST(0, $1), updated_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, amount, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set category spend", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set category spend: %w", err)
	}

	if result.RowsAffected() == 0 {
		return budget.ErrCategoryNotFound{CategoryID: id}
	}

	return nil
}

func (r *CategoryRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*budget.Category, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var categories []*budget.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			r.logger.Error("Failed to scan category", "error", err)
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over categories", "error", err)
		return nil, fmt.Errorf("error iterating over categories: %w", err)
	}

	return categories, nil
}

func scanCategory(row pgx.Row) (*budget.Category, error) {
	var c budget.Category
	err := row.Scan(
		&c.ID,
		&c.HouseholdID,
		&c.Name,
		&c.Type,
		&c.BudgetedAmount,
		&c.CurrentSpent,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
