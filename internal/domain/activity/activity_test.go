package activity

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	householdID := uuid.New()
	ev := events.ParametersUpdated{
		Meta:          events.NewMeta(householdID, "user-1"),
		MonthlyIncome: 500000,
	}

	record, err := NewRecord(ev)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, householdID, record.HouseholdID)
	assert.Equal(t, events.TypeParametersUpdated, record.Type)
	assert.Equal(t, "user-1", record.ActorID)
	assert.Equal(t, ev.At, record.OccurredAt)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(record.Payload, &payload))
	assert.EqualValues(t, 500000, payload["monthly_income"])

	again, err := NewRecord(ev)
	require.NoError(t, err)
	assert.Equal(t, record.ID, again.ID)
}
