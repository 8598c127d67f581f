package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/outbox"
	"github.com/jackc/pgx/v5"
)

// OutboxManagerImpl implements the OutboxManager interface
type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

// NewOutboxManager creates a new OutboxManagerImpl
func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Enqueue stores each event as a pending outbox message
func (m *OutboxManagerImpl) Enqueue(ctx context.Context, tx pgx.Tx, evs ...events.Event) error {
	repo := m.outboxRepo
	if tx != nil {
		repo = m.outboxRepo.WithTx(tx)
	}

	for _, e := range evs {
		message, err := outbox.NewMessage(e)
		if err != nil {
			m.logger.Error("Failed to create new outbox message (marshal payload)",
				"event_type", e.EventType(),
				"error", err,
			)
			return fmt.Errorf("failed to create outbox message payload for %s: %w", e.EventType(), err)
		}

		if err := repo.Create(ctx, message); err != nil {
			m.logger.Error("Failed to create outbox message",
				"event_type", e.EventType(),
				"household_id", e.Household().String(),
				"error", err,
			)
			return fmt.Errorf("failed to create outbox message for %s: %w", e.EventType(), err)
		}

		m.logger.Debug("Outbox message created",
			"event_type", e.EventType(),
			"outbox_id", message.ID,
		)
	}

	return nil
}
