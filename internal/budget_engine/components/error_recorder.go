package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/shared"
)

// ErrorRecorderImpl implements the ErrorRecorder interface
type ErrorRecorderImpl struct {
	errorLogs activity.ErrorLogRepository
	logger    *slog.Logger
}

// NewErrorRecorder creates a new ErrorRecorderImpl
func NewErrorRecorder(errorLogs activity.ErrorLogRepository, logger *slog.Logger) service.ErrorRecorder {
	return &ErrorRecorderImpl{
		errorLogs: errorLogs,
		logger:    logger,
	}
}

// Record wraps err in a TransientStoreError and persists it. Already wrapped errors keep
// their operation and count one more retry.
func (r *ErrorRecorderImpl) Record(ctx context.Context, householdID uuid.UUID, operation string, err error) error {
	if err == nil {
		return nil
	}

	var storeErr *shared.TransientStoreError
	if errors.As(err, &storeErr) {
		storeErr = shared.NewTransientStoreError(storeErr.Operation, storeErr.RetryCount+1, storeErr.Err)
	} else {
		storeErr = shared.NewTransientStoreError(operation, 0, err)
	}

	r.logger.Error("Store operation failed",
		"household_id", householdID.String(),
		"operation", storeErr.Operation,
		"retry_count", storeErr.RetryCount,
		"error", storeErr.Err)

	log := &activity.ErrorLog{
		ID:         uuid.New(),
		Operation:  storeErr.Operation,
		ErrorType:  "transient_store_error",
		Message:    storeErr.Err.Error(),
		RetryCount: storeErr.RetryCount,
		OccurredAt: storeErr.OccurredAt,
	}
	if householdID != uuid.Nil {
		log.HouseholdID = &householdID
	}

	if logErr := r.errorLogs.Create(ctx, log); logErr != nil {
		r.logger.Error("Failed to persist error log", "operation", storeErr.Operation, "error", logErr)
	}

	return storeErr
}
