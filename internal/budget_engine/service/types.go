package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
)

// DailyBudget is what callers see of a daily snapshot
type DailyBudget struct {
	HouseholdID          uuid.UUID          `json:"household_id"`
	Date                 time.Time          `json:"date"`
	DailyBudgetAmount    int64              `json:"daily_budget_amount"`
	TotalSpentToday      int64              `json:"total_spent_today"`
	RemainingBudgetToday int64              `json:"remaining_budget_today"`
	Breakdown            snapshot.Breakdown `json:"breakdown"`
	DaysRemaining        int                `json:"days_remaining"`
	VariableIncome       int64              `json:"variable_income"`
	IsOverBudget         bool               `json:"is_over_budget"`
	IsCached             bool               `json:"is_cached"`
	CalculatedAt         time.Time          `json:"calculated_at"`
}

// NewDailyBudget flattens a cache result
func NewDailyBudget(s *snapshot.DailySnapshot, cached bool) *DailyBudget {
	return &DailyBudget{
		HouseholdID:          s.HouseholdID,
		Date:                 s.Date,
		DailyBudgetAmount:    s.DailyBudgetAmount,
		TotalSpentToday:      s.TotalSpentToday,
		RemainingBudgetToday: s.RemainingBudgetToday,
		Breakdown:            s.Breakdown,
		DaysRemaining:        s.DaysRemaining,
		VariableIncome:       s.VariableIncome,
		IsOverBudget:         s.IsOverBudget(),
		IsCached:             cached,
		CalculatedAt:         s.CalculatedAt,
	}
}

// InvalidationScope selects one date, or every date when Date is nil
type InvalidationScope struct {
	Date *time.Time
}

// CategoryDelta reports an adjusted category total
type CategoryDelta struct {
	CategoryID uuid.UUID           `json:"category_id"`
	Type       shared.CategoryType `json:"type"`
	Old        int64               `json:"old"`
	New        int64               `json:"new"`
	Remaining  int64               `json:"remaining"`
}

// MaintenanceAction names a household-wide repair
type MaintenanceAction string

const (
	ActionResolveSyncConflicts    MaintenanceAction = "resolve_sync_conflicts"
	ActionRecalculateBudgets      MaintenanceAction = "recalculate_budgets"
	ActionReconcileCategoryTotals MaintenanceAction = "reconcile_category_totals"
)

// Valid reports whether a is a known action
func (a MaintenanceAction) Valid() bool {
	switch a {
	case ActionResolveSyncConflicts, ActionRecalculateBudgets, ActionReconcileCategoryTotals:
		return true
	}
	return false
}

// MaintenanceReport summarizes what an action changed
type MaintenanceReport struct {
	Action     MaintenanceAction `json:"action"`
	Affected   int64             `json:"affected"`
	Failed     int64             `json:"failed"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}
