package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/data/memory"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventProcessor_Process(t *testing.T) {
	ctx := context.Background()
	coordinator := &MockCoordinator{}
	feed := memory.NewActivityRepository()
	recorder := &MockErrorRecorder{}
	processor := NewEventProcessor(coordinator, feed, recorder, newTestLogger())

	householdID := uuid.New()
	event := events.EntryDeleted{Meta: events.NewMeta(householdID, "user-1"), EntryID: uuid.New(), Amount: 500}
	coordinator.On("HandleConditional", mock.Anything, event).Return(nil).Twice()

	require.NoError(t, processor.Process(ctx, event))
	// Redelivery does not duplicate the feed item
	require.NoError(t, processor.Process(ctx, event))

	records, err := feed.ListByHousehold(ctx, householdID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, events.TypeEntryDeleted, records[0].Type)
	coordinator.AssertExpectations(t)
}

func TestEventProcessor_InvalidationFailure(t *testing.T) {
	coordinator := &MockCoordinator{}
	feed := memory.NewActivityRepository()
	processor := NewEventProcessor(coordinator, feed, &MockErrorRecorder{}, newTestLogger())

	event := events.ParametersUpdated{Meta: events.NewMeta(uuid.New(), "user-1")}
	storeErr := shared.NewTransientStoreError("snapshot.invalidate_all_if_older", 0, errors.New("timeout"))
	coordinator.On("HandleConditional", mock.Anything, event).Return(storeErr).Once()

	err := processor.Process(context.Background(), event)
	assert.ErrorIs(t, err, storeErr)

	records, _ := feed.ListByHousehold(context.Background(), event.HouseholdID, 10, 0)
	assert.Empty(t, records)
}

func TestEventProcessor_FeedFailure(t *testing.T) {
	coordinator := &MockCoordinator{}
	feed := memory.NewActivityRepository()
	feed.Err = errors.New("mongo unavailable")
	recorder := &MockErrorRecorder{}
	processor := NewEventProcessor(coordinator, feed, recorder, newTestLogger())

	event := events.ConflictResolved{Meta: events.NewMeta(uuid.New(), "user-1"), Count: 2}
	coordinator.On("HandleConditional", mock.Anything, event).Return(nil).Once()
	recorder.On("Record", mock.Anything, event.HouseholdID, "activity.create", feed.Err).
		Return(shared.NewTransientStoreError("activity.create", 0, feed.Err)).Once()

	err := processor.Process(context.Background(), event)
	assert.True(t, shared.IsTransient(err))
	recorder.AssertExpectations(t)
}
