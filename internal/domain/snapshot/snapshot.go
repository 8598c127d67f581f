package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Breakdown splits a day's confirmed expenses by category type
type Breakdown struct {
	FixedSpent         int64 `json:"fixed_spent"`
	VariableSpent      int64 `json:"variable_spent"`
	SavingsContributed int64 `json:"savings_contributed"`
}

// DailySnapshot is the cached derived budget for one household and calendar day
type DailySnapshot struct {
	HouseholdID          uuid.UUID `json:"household_id"`
	Date                 time.Time `json:"date"`
	DailyBudgetAmount    int64     `json:"daily_budget_amount"`
	TotalSpentToday      int64     `json:"total_spent_today"`
	RemainingBudgetToday int64     `json:"remaining_budget_today"` // May be negative
	Breakdown            Breakdown `json:"breakdown"`
	DaysRemaining        int       `json:"days_remaining"`
	VariableIncome       int64     `json:"variable_income"`
	CalculatedAt         time.Time `json:"calculated_at"`
	IsValid              bool      `json:"is_valid"`
}

// IsOverBudget reports whether today's variable spending exceeded the daily budget
func (s *DailySnapshot) IsOverBudget() bool {
	return s.RemainingBudgetToday < 0
}

// IsFresh reports whether the snapshot may be served without recomputation.
// A zero window disables the age check.
func (s *DailySnapshot) IsFresh(now time.Time, window time.Duration) bool {
	if !s.IsValid {
		return false
	}
	if window <= 0 {
		return true
	}
	return now.Sub(s.CalculatedAt) < window
}

// Result is a snapshot plus whether it came from the cache
type Result struct {
	Snapshot *DailySnapshot
	IsCached bool
}

// Repository stores one snapshot row per household and date
type Repository interface {
	Get(ctx context.Context, householdID uuid.UUID, date time.Time) (*DailySnapshot, error)

	// Upsert replaces the row for the snapshot's key
	Upsert(ctx context.Context, s *DailySnapshot) error

	// Invalidate marks one date stale and reports whether a row existed
	Invalidate(ctx context.Context, householdID uuid.UUID, date time.Time) (bool, error)

	// InvalidateAll marks every date of the household stale and returns the count
	InvalidateAll(ctx context.Context, householdID uuid.UUID) (int64, error)

	// InvalidateIfOlder marks a date stale only when it was calculated before changedAt
	InvalidateIfOlder(ctx context.Context, householdID uuid.UUID, date, changedAt time.Time) (bool, error)

	// InvalidateAllIfOlder is InvalidateIfOlder for every date of the household
	InvalidateAllIfOlder(ctx context.Context, householdID uuid.UUID, changedAt time.Time) (int64, error)

	ListDates(ctx context.Context, householdID uuid.UUID) ([]time.Time, error)
}

// ErrSnapshotNotFound indicates no row exists for the key
type ErrSnapshotNotFound struct {
	HouseholdID uuid.UUID
	Date        time.Time
}

func (e ErrSnapshotNotFound) Error() string {
	return "daily snapshot not found: " + e.HouseholdID.String() + " " + e.Date.Format("2006-01-02")
}
