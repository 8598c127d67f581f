package service

import (
	"context"
	"log/slog"

	"github.com/household-daily-budget/internal/domain/events"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolEventProcessor implements the EventProcessor interface on a bounded pool
type WorkerPoolEventProcessor struct {
	base   EventProcessor
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolEventProcessor(
	base EventProcessor,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolEventProcessor, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolEventProcessor{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

// Process runs the event on a pooled worker and waits for its result
func (s *WorkerPoolEventProcessor) Process(ctx context.Context, event events.Event) error {
	resultChan := make(chan error, 1)

	err := s.pool.Submit(func() {
		resultChan <- s.base.Process(ctx, event)
	})
	if err != nil {
		s.logger.Error("Failed to submit event to worker pool",
			"household_id", event.Household().String(),
			"event_type", event.EventType(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolEventProcessor) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolEventProcessor) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolEventProcessor) Capacity() int {
	return s.pool.Cap()
}
