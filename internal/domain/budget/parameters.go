package budget

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
)

var ErrNegativeParameter = errors.New("income, fixed expenses and savings goal cannot be negative")

// DefaultCurrency is used when a household is set up without one
const DefaultCurrency = "EUR"

// Parameters are the monthly figures a household plans with
type Parameters struct {
	HouseholdID     uuid.UUID `json:"household_id"`
	Currency        string    `json:"currency"`
	MonthlyIncome   int64     `json:"monthly_income"` // Stored in cents/minor units
	FixedExpenses   int64     `json:"fixed_expenses"`
	SavingsGoal     int64     `json:"savings_goal"`
	PeriodStartDate time.Time `json:"period_start_date"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VariableIncome is what remains for day-to-day spending each month
func (p *Parameters) VariableIncome() int64 {
	return p.MonthlyIncome - p.FixedExpenses - p.SavingsGoal
}

// ParametersUpdate carries editable monthly figures; nil means unchanged
type ParametersUpdate struct {
	MonthlyIncome   *int64
	FixedExpenses   *int64
	SavingsGoal     *int64
	PeriodStartDate *time.Time
}

// Apply validates and applies the update in place
func (u ParametersUpdate) Apply(p *Parameters) error {
	if (u.MonthlyIncome != nil && *u.MonthlyIncome < 0) ||
		(u.FixedExpenses != nil && *u.FixedExpenses < 0) ||
		(u.SavingsGoal != nil && *u.SavingsGoal < 0) {
		return ErrNegativeParameter
	}
	if u.MonthlyIncome != nil {
		p.MonthlyIncome = *u.MonthlyIncome
	}
	if u.FixedExpenses != nil {
		p.FixedExpenses = *u.FixedExpenses
	}
	if u.SavingsGoal != nil {
		p.SavingsGoal = *u.SavingsGoal
	}
	if u.PeriodStartDate != nil {
		p.PeriodStartDate = shared.NormalizeDate(*u.PeriodStartDate)
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}
