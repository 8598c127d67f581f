package calculator

import (
	"time"

	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
)

// MonthlyOverview summarizes a household month up to a reference day
type MonthlyOverview struct {
	Month                   string             `json:"month"`
	MonthlyIncome           int64              `json:"monthly_income"`
	FixedExpenses           int64              `json:"fixed_expenses"`
	SavingsGoal             int64              `json:"savings_goal"`
	VariableIncome          int64              `json:"variable_income"`
	Spent                   snapshot.Breakdown `json:"spent"`
	Income                  int64              `json:"income"`
	DaysRemaining           int                `json:"days_remaining"`
	ProjectedDailyRemaining int64              `json:"projected_daily_remaining"`
	OnTrack                 bool               `json:"on_track"`
	Categories              []CategoryStatus   `json:"categories"`
}

// CategoryStatus is one category's standing within the month
type CategoryStatus struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Type            shared.CategoryType `json:"type"`
	BudgetedAmount  int64               `json:"budgeted_amount"`
	CurrentSpent    int64               `json:"current_spent"`
	Remaining       int64               `json:"remaining"`
	SpentPercentage float64             `json:"spent_percentage"`
	IsOverBudget    bool                `json:"is_over_budget"`
	IsActive        bool                `json:"is_active"`
}

// Overview builds the month view for asOf from the month's entries.
// The projection divides what is left of the variable pool by the days remaining.
func Overview(params *budget.Parameters, categories []*budget.Category, monthEntries []*ledger.Entry, asOf time.Time) MonthlyOverview {
	asOf = shared.NormalizeDate(asOf)
	spent := Summarize(monthEntries)

	var income int64
	for _, e := range monthEntries {
		if e.Direction == shared.DirectionIncome && e.Status == shared.EntryStatusConfirmed {
			income += e.Amount
		}
	}

	variableIncome := params.VariableIncome()
	daysRemaining := DaysRemaining(asOf)
	projected := DailyBudget(variableIncome-spent.VariableSpent, daysRemaining)

	statuses := make([]CategoryStatus, 0, len(categories))
	for _, c := range categories {
		statuses = append(statuses, CategoryStatus{
			ID:              c.ID.String(),
			Name:            c.Name,
			Type:            c.Type,
			BudgetedAmount:  c.BudgetedAmount,
			CurrentSpent:    c.CurrentSpent,
			Remaining:       c.Remaining(),
			SpentPercentage: c.SpentPercentage(),
			IsOverBudget:    c.IsOverBudget(),
			IsActive:        c.IsActive,
		})
	}

	return MonthlyOverview{
		Month:                   asOf.Format("2006-01"),
		MonthlyIncome:           params.MonthlyIncome,
		FixedExpenses:           params.FixedExpenses,
		SavingsGoal:             params.SavingsGoal,
		VariableIncome:          variableIncome,
		Spent:                   spent,
		Income:                  income,
		DaysRemaining:           daysRemaining,
		ProjectedDailyRemaining: projected,
		OnTrack:                 spent.VariableSpent <= variableIncome,
		Categories:              statuses,
	}
}
