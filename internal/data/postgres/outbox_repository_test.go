package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/outbox"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	msg, err := outbox.NewMessage(events.ParametersUpdated{Meta: events.NewMeta(uuid.New(), "user-1")})
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO household_outbox`).
		WithArgs(msg.HouseholdID, msg.EventType, msg.Payload, msg.Status, msg.Attempts, msg.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, repo.Create(ctx, msg))
	assert.Equal(t, int64(42), msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	householdID := uuid.New()
	createdAt := time.Now().UTC()
	lastAttempt := createdAt.Add(time.Second)

	rows := pgxmock.NewRows([]string{"id", "household_id", "event_type", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
		AddRow(int64(1), householdID, events.TypeEntryCreated, []byte(`{"type":"entry_created","payload":{}}`), shared.OutboxStatusPending, 0, createdAt, &lastAttempt)

	mock.ExpectQuery(`FROM household_outbox\s+WHERE status = \$1`).
		WithArgs(shared.OutboxStatusPending, 10).
		WillReturnRows(rows)

	messages, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, householdID, messages[0].HouseholdID)
	assert.Equal(t, events.TypeEntryCreated, messages[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}

	mock.ExpectExec(`UPDATE household_outbox\s+SET status = \$1`).
		WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateStatus(ctx, 5, shared.OutboxStatusProcessed))

	mock.ExpectExec(`UPDATE household_outbox\s+SET status = \$1`).
		WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(6)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorAs(t, repo.UpdateStatus(ctx, 6, shared.OutboxStatusProcessed), &outbox.ErrMessageNotFound{})

	dbErr := errors.New("timeout")
	mock.ExpectExec(`SET attempts = attempts \+ 1`).
		WithArgs(pgxmock.AnyArg(), int64(5)).
		WillReturnError(dbErr)
	assert.ErrorIs(t, repo.IncrementAttempts(ctx, 5), dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_DeleteProcessedBefore(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	mock.ExpectExec(`DELETE FROM household_outbox\s+WHERE status = \$1 AND created_at < \$2`).
		WithArgs(shared.OutboxStatusProcessed, cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	count, err := repo.DeleteProcessedBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_WithTx(t *testing.T) {
	repo := &OutboxRepository{querier: nil, logger: newTestLogger()}

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	outboxRepo, ok := txRepo.(*OutboxRepository)
	require.True(t, ok)
	assert.Equal(t, mockTx, outboxRepo.querier)
}
