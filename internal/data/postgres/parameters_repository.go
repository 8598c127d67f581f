// Package postgres provides PostgreSQL implementations of the household budget repositories:
// parameters, categories with their running totals, daily snapshots, sync records and the outbox.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// ParametersRepository implements budget.ParametersRepository for PostgreSQL
type ParametersRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewParametersRepository creates a new PostgreSQL parameters repository
func NewParametersRepository(logger *slog.Logger, db *persistence.PostgresDB) budget.ParametersRepository {
	return &ParametersRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *ParametersRepository) WithTx(tx pgx.Tx) budget.ParametersRepository {
	return &ParametersRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Get returns the household's monthly figures or ErrHouseholdNotFound
func (r *ParametersRepository) Get(ctx context.Context, householdID uuid.UUID) (*budget.Parameters, error) {
	query := `
		SELECT household_id, currency, monthly_income, fixed_expenses, savings_goal, period_start_date, updated_at
		FROM household_parameters
		WHERE household_id = $1
	`

	var p budget.Parameters
	err := r.querier.QueryRow(ctx, query, householdID).Scan(
		&p.HouseholdID,
		&p.Currency,
		&p.MonthlyIncome,
		&p.FixedExpenses,
		&p.SavingsGoal,
		&p.PeriodStartDate,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, budget.ErrHouseholdNotFound{HouseholdID: householdID}
		}
		r.logger.Error("Failed to get household parameters", "household_id", householdID.String(), "error", err)
		return nil, fmt.Errorf("failed to get household parameters: %w", err)
	}

	return &p, nil
}

// Update writes the monthly figures, creating the household row on first use
func (r *ParametersRepository) Update(ctx context.Context, p *budget.Parameters) error {
	query := `
		INSERT INTO household_parameters (household_id, currency, monthly_income, fixed_expenses, savings_goal, period_start_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (household_id) DO UPDATE
		SET currency = EXCLUDED.currency,
			monthly_income = EXCLUDED.monthly_income,
			fixed_expenses = EXCLUDED.fixed_expenses,
			savings_goal = EXCLUDED.savings_goal,
			period_start_date = EXCLUDED.period_start_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		p.HouseholdID,
		p.Currency,
		p.MonthlyIncome,
		p.FixedExpenses,
		p.SavingsGoal,
		p.PeriodStartDate,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update household parameters", "household_id", p.HouseholdID.String(), "error", err)
		return fmt.Errorf("failed to update household parameters: %w", err)
	}

	return nil
}
