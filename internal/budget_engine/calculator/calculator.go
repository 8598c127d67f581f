// Package calculator derives the spendable-today figure for a household.
// It is pure: callers supply parameters, categories and the day's entries.
package calculator

import (
	"time"

	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/snapshot"
	"github.com/shopspring/decimal"
)

// DaysRemaining counts the days left in date's month including date itself, at least 1
func DaysRemaining(date time.Time) int {
	remaining := shared.DaysInMonth(date) - date.Day() + 1
	if remaining < 1 {
		return 1
	}
	return remaining
}

// DailyBudget spreads the variable income pool over the days remaining, rounded to
// minor units and never negative
func DailyBudget(variableIncome int64, daysRemaining int) int64 {
	if daysRemaining < 1 {
		daysRemaining = 1
	}
	perDay := decimal.NewFromInt(variableIncome).Div(decimal.NewFromInt(int64(daysRemaining)))
	amount := perDay.Round(0).IntPart()
	if amount < 0 {
		return 0
	}
	return amount
}

// Summarize sums confirmed expenses by category type; income and unconfirmed entries are ignored
func Summarize(entries []*ledger.Entry) snapshot.Breakdown {
	var b snapshot.Breakdown
	for _, e := range entries {
		spent := e.SpendContribution()
		if spent == 0 {
			continue
		}
		switch e.Category {
		case shared.CategoryFixed:
			b.FixedSpent += spent
		case shared.CategoryVariable:
			b.VariableSpent += spent
		case shared.CategorySavings:
			b.SavingsContributed += spent
		}
	}
	return b
}

// Compute builds a valid snapshot for date. It fails with a CalculationError when the
// household has no active categories.
func Compute(params *budget.Parameters, activeCategories []*budget.Category, entries []*ledger.Entry, date time.Time, now time.Time) (*snapshot.DailySnapshot, error) {
	if countActive(activeCategories) == 0 {
		return nil, &shared.CalculationError{
			HouseholdID: params.HouseholdID.String(),
			Reason:      "no active budget categories",
		}
	}

	date = shared.NormalizeDate(date)
	variableIncome := params.VariableIncome()
	daysRemaining := DaysRemaining(date)
	daily := DailyBudget(variableIncome, daysRemaining)
	breakdown := Summarize(entriesOn(entries, date))

	return &snapshot.DailySnapshot{
		HouseholdID:          params.HouseholdID,
		Date:                 date,
		DailyBudgetAmount:    daily,
		TotalSpentToday:      breakdown.VariableSpent,
		RemainingBudgetToday: daily - breakdown.VariableSpent,
		Breakdown:            breakdown,
		DaysRemaining:        daysRemaining,
		VariableIncome:       variableIncome,
		CalculatedAt:         now.UTC(),
		IsValid:              true,
	}, nil
}

func countActive(categories []*budget.Category) int {
	n := 0
	for _, c := range categories {
		if c != nil && c.IsActive {
			n++
		}
	}
	return n
}

func entriesOn(entries []*ledger.Entry, date time.Time) []*ledger.Entry {
	out := make([]*ledger.Entry, 0, len(entries))
	for _, e := range entries {
		if shared.NormalizeDate(e.Date).Equal(date) {
			out = append(out, e)
		}
	}
	return out
}
