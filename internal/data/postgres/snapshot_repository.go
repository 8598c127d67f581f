package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/household-daily-budget/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// SnapshotRepository implements snapshot.Repository for PostgreSQL
type SnapshotRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSnapshotRepository creates a new PostgreSQL daily snapshot repository
func NewSnapshotRepository(logger *slog.Logger, db *persistence.PostgresDB) snapshot.Repository {
	return &SnapshotRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Get returns the stored row for the key, valid or not, or ErrSnapshotNotFound
func (r *SnapshotRepository) Get(ctx context.Context, householdID uuid.UUID, date time.Time) (*snapshot.DailySnapshot, error) {
	query := `
		SELECT household_id, date, daily_budget_amount, total_spent_today, remaining_budget_today,
			fixed_spent, variable_spent, savings_contributed, days_remaining, variable_income, calculated_at, is_valid
		FROM daily_snapshots
		WHERE household_id = $1 AND date = $2
	`

	var s snapshot.DailySnapshot
	err := r.querier.QueryRow(ctx, query, householdID, date).Scan(
		&s.HouseholdID,
		&s.Date,
		&s.DailyBudgetAmount,
		&s.TotalSpentToday,
		&s.RemainingBudgetToday,
		&s.Breakdown.FixedSpent,
		&s.Breakdown.VariableSpent,
		&s.Breakdown.SavingsContributed,
		&s.DaysRemaining,
		&s.VariableIncome,
		&s.CalculatedAt,
		&s.IsValid,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, snapshot.ErrSnapshotNotFound{HouseholdID: householdID, Date: date}
		}
		r.logger.Error("Failed to get daily snapshot",
			"household_id", householdID.String(),
			"date", date.Format("2006-01-02"),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get daily snapshot: %w", err)
	}

	return &s, nil
}

// Upsert replaces the row for (household, date). Last write wins.
func (r *SnapshotRepository) Upsert(ctx context.Context, s *snapshot.DailySnapshot) error {
	query := `
		INSERT INTO daily_snapshots (household_id, date, daily_budget_amount, total_spent_today, remaining_budget_today,
			fixed_spent, variable_spent, savings_contributed, days_remaining, variable_income, calculated_at, is_valid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (household_id, date) DO UPDATE
		SET daily_budget_amount = EXCLUDED.daily_budget_amount,
			total_spent_today = EXCLUDED.total_spent_today,
			remaining_budget_today = EXCLUDED.remaining_budget_today,
			fixed_spent = EXCLUDED.fixed_spent,
			variable_spent = EXCLUDED.variable_spent,
			savings_contributed = EXCLUDED.savings_contributed,
			days_remaining = EXCLUDED.days_remaining,
			variable_income = EXCLUDED.variable_income,
			calculated_at = EXCLUDED.calculated_at,
			is_valid = EXCLUDED.is_valid
	`

	_, err := r.querier.Exec(ctx, query,
		s.HouseholdID,
		s.Date,
		s.DailyBudgetAmount,
		s.TotalSpentToday,
		s.RemainingBudgetToday,
		s.Breakdown.FixedSpent,
		s.Breakdown.VariableSpent,
		s.Breakdown.SavingsContributed,
		s.DaysRemaining,
		s.VariableIncome,
		s.CalculatedAt,
		s.IsValid,
	)
	if err != nil {
		r.logger.Error("Failed to upsert daily snapshot",
			"household_id", s.HouseholdID.String(),
			"date", s.Date.Format("2006-01-02"),
			"error", err,
		)
		return fmt.Errorf("failed to upsert daily snapshot: %w", err)
	}

	return nil
}

// Invalidate marks one date stale without deleting it
func (r *SnapshotRepository) Invalidate(ctx context.Context, householdID uuid.UUID, date time.Time) (bool, error) {
	query := `
		UPDATE daily_snapshots
		SET is_valid = FALSE
		WHERE household_id = $1 AND date = $2
	`

	result, err := r.querier.Exec(ctx, query, householdID, date)
	if err != nil {
		r.logger.Error("Failed to invalidate daily snapshot", "household_id", householdID.String(), "error", err)
		return false, fmt.Errorf("failed to invalidate daily snapshot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// InvalidateAll marks every date of the household stale
func (r *SnapshotRepository) InvalidateAll(ctx context.Context, householdID uuid.UUID) (int64, error) {
	query := `
		UPDATE daily_snapshots
		SET is_valid = FALSE
		WHERE household_id = $1 AND is_valid
	`

	result, err := r.querier.Exec(ctx, query, householdID)
	if err != nil {
		r.logger.Error("Failed to invalidate household snapshots", "household_id", householdID.String(), "error", err)
		return 0, fmt.Errorf("failed to invalidate household snapshots: %w", err)
	}

	return result.RowsAffected(), nil
}

// InvalidateIfOlder marks a date stale only if it was calculated before changedAt
func (r *SnapshotRepository) InvalidateIfOlder(ctx context.Context, householdID uuid.UUID, date, changedAt time.Time) (bool, error) {
	query := `
		UPDATE daily_snapshots
		SET is_valid = FALSE
		WHERE household_id = $1 AND date = $2 AND calculated_at < $3
	`

	result, err := r.querier.Exec(ctx, query, householdID, date, changedAt)
	if err != nil {
		r.logger.Error("Failed to conditionally invalidate daily snapshot", "household_id", householdID.String(), "error", err)
		return false, fmt.Errorf("failed to conditionally invalidate daily snapshot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// InvalidateAllIfOlder marks every date calculated before changedAt stale
func (r *SnapshotRepository) InvalidateAllIfOlder(ctx context.Context, householdID uuid.UUID, changedAt time.Time) (int64, error) {
	query := `
		UPDATE daily_snapshots
		SET is_valid = FALSE
		WHERE household_id = $1 AND is_valid AND calculated_at < $2
	`

	result, err := r.querier.Exec(ctx, query, householdID, changedAt)
	if err != nil {
		r.logger.Error("Failed to conditionally invalidate household snapshots", "household_id", householdID.String(), "error", err)
		return 0, fmt.Errorf("failed to conditionally invalidate household snapshots: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListDates returns every stored date of the household, newest first
func (r *SnapshotRepository) ListDates(ctx context.Context, householdID uuid.UUID) ([]time.Time, error) {
	query := `
		SELECT date
		FROM daily_snapshots
		WHERE household_id = $1
		ORDER BY date DESC
	`

	rows, err := r.querier.Query(ctx, query, householdID)
	if err != nil {
		r.logger.Error("Failed to list snapshot dates", "household_id", householdID.String(), "error", err)
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over snapshot dates: %w", err)
	}

	return dates, nil
}
