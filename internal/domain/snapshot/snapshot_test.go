package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailySnapshot_IsFresh(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	s := &DailySnapshot{IsValid: true, CalculatedAt: now.Add(-10 * time.Minute)}

	assert.True(t, s.IsFresh(now, 0), "zero window relies on invalidation only")
	assert.False(t, s.IsFresh(now, 5*time.Minute))
	assert.True(t, s.IsFresh(now, 15*time.Minute))

	s.IsValid = false
	assert.False(t, s.IsFresh(now, 0))
}

func TestDailySnapshot_IsOverBudget(t *testing.T) {
	assert.True(t, (&DailySnapshot{RemainingBudgetToday: -1}).IsOverBudget())
	assert.False(t, (&DailySnapshot{RemainingBudgetToday: 0}).IsOverBudget())
}

func TestErrSnapshotNotFound(t *testing.T) {
	var err error = ErrSnapshotNotFound{Date: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)}
	var target ErrSnapshotNotFound
	assert.True(t, errors.As(err, &target))
	assert.Contains(t, err.Error(), "2024-06-01")
}
