package calculator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	june1 = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	now   = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
)

func testParams(householdID uuid.UUID) *budget.Parameters {
	return &budget.Parameters{
		HouseholdID:   householdID,
		MonthlyIncome: 500000,
		FixedExpenses: 250000,
		SavingsGoal:   50000,
	}
}

func activeCategories(householdID uuid.UUID) []*budget.Category {
	return []*budget.Category{
		{ID: uuid.New(), HouseholdID: householdID, Name: "Rent", Type: shared.CategoryFixed, IsActive: true},
		{ID: uuid.New(), HouseholdID: householdID, Name: "Food", Type: shared.CategoryVariable, IsActive: true},
	}
}

func expense(category shared.CategoryType, amount int64, date time.Time) *ledger.Entry {
	return &ledger.Entry{
		ID:        uuid.New(),
		Amount:    amount,
		Category:  category,
		Direction: shared.DirectionExpense,
		Status:    shared.EntryStatusConfirmed,
		Date:      date,
	}
}

func TestDaysRemaining(t *testing.T) {
	assert.Equal(t, 30, DaysRemaining(june1))
	assert.Equal(t, 1, DaysRemaining(time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 29, DaysRemaining(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDailyBudget(t *testing.T) {
	testCases := []struct {
		name           string
		variableIncome int64
		days           int
		expected       int64
	}{
		{"RoundsHalfUp", 200000, 30, 6667},
		{"ExactDivision", 300000, 30, 10000},
		{"LastDay", 200000, 1, 200000},
		{"NegativePoolClampsToZero", -50000, 10, 0},
		{"ZeroDaysTreatedAsOne", 1000, 0, 1000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DailyBudget(tc.variableIncome, tc.days))
		})
	}
}

func TestCompute_ScenarioFirstOfMonth(t *testing.T) {
	householdID := uuid.New()

	s, err := Compute(testParams(householdID), activeCategories(householdID), nil, june1, now)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), s.VariableIncome)
	assert.Equal(t, 30, s.DaysRemaining)
	assert.Equal(t, int64(6667), s.DailyBudgetAmount)
	assert.Equal(t, "66.67", shared.FormatMinor(s.DailyBudgetAmount))
	assert.Zero(t, s.TotalSpentToday)
	assert.True(t, s.IsValid)
	assert.Equal(t, now, s.CalculatedAt)

	entries := []*ledger.Entry{expense(shared.CategoryVariable, 2000, june1)}
	s, err = Compute(testParams(householdID), activeCategories(householdID), entries, june1, now)
	require.NoError(t, err)
	assert.Equal(t, "20.00", shared.FormatMinor(s.TotalSpentToday))
	assert.Equal(t, "46.67", shared.FormatMinor(s.RemainingBudgetToday))
	assert.False(t, s.IsOverBudget())
}

func TestCompute_Breakdown(t *testing.T) {
	householdID := uuid.New()
	pending := expense(shared.CategoryVariable, 9999, june1)
	pending.Status = shared.EntryStatusPending
	income := expense(shared.CategoryVariable, 50000, june1)
	income.Direction = shared.DirectionIncome

	entries := []*ledger.Entry{
		expense(shared.CategoryFixed, 120000, june1),
		expense(shared.CategoryVariable, 1500, june1),
		expense(shared.CategoryVariable, 8000, june1),
		expense(shared.CategorySavings, 10000, june1),
		expense(shared.CategoryVariable, 700, june1.AddDate(0, 0, 1)),
		pending,
		income,
	}

	s, err := Compute(testParams(householdID), activeCategories(householdID), entries, june1, now)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), s.Breakdown.FixedSpent)
	assert.Equal(t, int64(9500), s.Breakdown.VariableSpent)
	assert.Equal(t, int64(10000), s.Breakdown.SavingsContributed)
	assert.Equal(t, int64(9500), s.TotalSpentToday)
	assert.Equal(t, int64(6667-9500), s.RemainingBudgetToday)
	assert.True(t, s.IsOverBudget())
}

func TestCompute_NeverNegativeDailyBudget(t *testing.T) {
	householdID := uuid.New()
	params := testParams(householdID)
	params.FixedExpenses = 600000

	s, err := Compute(params, activeCategories(householdID), nil, june1, now)
	require.NoError(t, err)
	assert.Zero(t, s.DailyBudgetAmount)
	assert.Equal(t, int64(-150000), s.VariableIncome)
}

func TestCompute_NoActiveCategories(t *testing.T) {
	householdID := uuid.New()
	inactive := []*budget.Category{{ID: uuid.New(), IsActive: false}}

	for _, categories := range [][]*budget.Category{nil, inactive} {
		_, err := Compute(testParams(householdID), categories, nil, june1, now)
		require.Error(t, err)
		var calcErr *shared.CalculationError
		require.ErrorAs(t, err, &calcErr)
		assert.Equal(t, householdID.String(), calcErr.HouseholdID)
	}
}

func TestOverview(t *testing.T) {
	householdID := uuid.New()
	categories := activeCategories(householdID)
	categories[1].BudgetedAmount = 40000
	categories[1].CurrentSpent = 12000

	salary := expense(shared.CategoryFixed, 500000, june1)
	salary.Direction = shared.DirectionIncome
	entries := []*ledger.Entry{
		expense(shared.CategoryVariable, 12000, june1),
		expense(shared.CategoryFixed, 250000, june1),
		salary,
	}
	asOf := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)

	o := Overview(testParams(householdID), categories, entries, asOf)
	assert.Equal(t, "2024-06", o.Month)
	assert.Equal(t, int64(500000), o.Income)
	assert.Equal(t, int64(12000), o.Spent.VariableSpent)
	assert.Equal(t, 10, o.DaysRemaining)
	assert.Equal(t, int64(18800), o.ProjectedDailyRemaining)
	assert.True(t, o.OnTrack)
	require.Len(t, o.Categories, 2)
	assert.Equal(t, int64(28000), o.Categories[1].Remaining)
	assert.InDelta(t, 30.0, o.Categories[1].SpentPercentage, 0.001)
}
