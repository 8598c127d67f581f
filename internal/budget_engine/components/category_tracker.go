package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// CategoryTrackerImpl implements the CategoryTracker interface
type CategoryTrackerImpl struct {
	categories budget.CategoryRepository
	entries    ledger.Repository
	recorder   service.ErrorRecorder
	logger     *slog.Logger
}

// NewCategoryTracker creates a new CategoryTrackerImpl
func NewCategoryTracker(categories budget.CategoryRepository, entries ledger.Repository, recorder service.ErrorRecorder, logger *slog.Logger) service.CategoryTracker {
	return &CategoryTrackerImpl{
		categories: categories,
		entries:    entries,
		recorder:   recorder,
		logger:     logger,
	}
}

func (t *CategoryTrackerImpl) repo(tx pgx.Tx) budget.CategoryRepository {
	if tx == nil {
		return t.categories
	}
	return t.categories.WithTx(tx)
}

// ApplyDelta adds delta to the active category of categoryType. An unknown category is a
// validation error; the stored total never drops below zero.
func (t *CategoryTrackerImpl) ApplyDelta(ctx context.Context, tx pgx.Tx, householdID uuid.UUID, categoryType shared.CategoryType, delta int64) (*service.CategoryChange, error) {
	if !categoryType.Valid() {
		return nil, shared.NewValidationError("category", "unknown category type %q", categoryType)
	}
	repo := t.repo(tx)

	category, err := repo.GetActiveByType(ctx, householdID, categoryType)
	if err != nil {
		var notFound budget.ErrCategoryNotFound
		if errors.As(err, &notFound) {
			return nil, shared.NewValidationError("category", "%s", notFound.Error())
		}
		return nil, t.recorder.Record(ctx, householdID, "categories.get_active_by_type", err)
	}

	result, err := repo.ApplyDelta(ctx, category.ID, delta)
	if err != nil {
		var notFound budget.ErrCategoryNotFound
		if errors.As(err, &notFound) {
			return nil, shared.NewValidationError("category", "%s", notFound.Error())
		}
		return nil, t.recorder.Record(ctx, householdID, "categories.apply_delta", err)
	}

	if result.Old+delta < 0 {
		t.logger.Warn("Category spend clamped at zero",
			"household_id", householdID.String(),
			"category_id", category.ID.String(),
			"old", result.Old,
			"delta", delta)
	}

	return &service.CategoryChange{Type: categoryType, Result: *result}, nil
}

// ApplyEntryChange moves the spend of one entry between categories. Entries whose category
// type has no active category are skipped.
func (t *CategoryTrackerImpl) ApplyEntryChange(ctx context.Context, tx pgx.Tx, before, after *ledger.Entry) ([]service.CategoryChange, error) {
	var adjustments []adjustment

	switch {
	case before != nil && after != nil && before.Category == after.Category:
		adjustments = append(adjustments, adjustment{after.HouseholdID, after.Category, after.SpendContribution() - before.SpendContribution()})
	default:
		if before != nil {
			adjustments = append(adjustments, adjustment{before.HouseholdID, before.Category, -before.SpendContribution()})
		}
		if after != nil {
			adjustments = append(adjustments, adjustment{after.HouseholdID, after.Category, after.SpendContribution()})
		}
	}

	var changes []service.CategoryChange
	for _, a := range adjustments {
		if a.delta == 0 {
			continue
		}
		change, err := t.ApplyDelta(ctx, tx, a.householdID, a.categoryType, a.delta)
		if err != nil {
			if shared.IsValidation(err) {
				t.logger.Warn("No active category for entry spend",
					"household_id", a.householdID.String(),
					"category", a.categoryType,
					"delta", a.delta)
				continue
			}
			return nil, err
		}
		changes = append(changes, *change)
	}

	return changes, nil
}

type adjustment struct {
	householdID  uuid.UUID
	categoryType shared.CategoryType
	delta        int64
}

// Reconcile overwrites every active category total with the confirmed expenses of the month
// containing asOf. When several active categories share a type, the oldest one carries the total.
func (t *CategoryTrackerImpl) Reconcile(ctx context.Context, householdID uuid.UUID, asOf time.Time) ([]service.CategoryChange, error) {
	active, err := t.categories.ListActive(ctx, householdID)
	if err != nil {
		return nil, t.recorder.Record(ctx, householdID, "categories.list_active", err)
	}

	from, to := shared.MonthBounds(asOf)
	entries, err := t.entries.QueryByHouseholdAndDateRange(ctx, householdID, from, to)
	if err != nil {
		return nil, t.recorder.Record(ctx, householdID, "ledger.query_by_range", err)
	}

	totals := make(map[shared.CategoryType]int64)
	for _, e := range entries {
		totals[e.Category] += e.SpendContribution()
	}

	owners := make(map[shared.CategoryType]uuid.UUID)
	for _, c := range active {
		if _, ok := owners[c.Type]; ok {
			continue
		}
		owner, err := t.categories.GetActiveByType(ctx, householdID, c.Type)
		if err != nil {
			return nil, t.recorder.Record(ctx, householdID, "categories.get_active_by_type", err)
		}
		owners[c.Type] = owner.ID
	}

	var changes []service.CategoryChange
	for _, c := range active {
		var target int64
		if owners[c.Type] == c.ID {
			target = totals[c.Type]
		}
		if target == c.CurrentSpent {
			continue
		}
		if err := t.categories.SetCurrentSpent(ctx, c.ID, target); err != nil {
			return changes, t.recorder.Record(ctx, householdID, "categories.set_current_spent", err)
		}
		changes = append(changes, service.CategoryChange{
			Type: c.Type,
			Result: budget.DeltaResult{
				CategoryID:     c.ID,
				Old:            c.CurrentSpent,
				New:            target,
				BudgetedAmount: c.BudgetedAmount,
			},
		})
	}

	t.logger.Info("Reconciled category totals",
		"household_id", householdID.String(),
		"month", from.Format("2006-01"),
		"changed", len(changes))

	return changes, nil
}
