package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
)

// VersionTrackerImpl implements the VersionTracker interface
type VersionTrackerImpl struct {
	records  syncstate.Repository
	recorder service.ErrorRecorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewVersionTracker creates a new VersionTrackerImpl
func NewVersionTracker(records syncstate.Repository, recorder service.ErrorRecorder, logger *slog.Logger) service.VersionTracker {
	return &VersionTrackerImpl{
		records:  records,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// RecordMutation stores the entry's new version. A writer holding a stale version is not
// rejected: the write stands and the record is flagged as conflicted until resolved.
func (v *VersionTrackerImpl) RecordMutation(ctx context.Context, m syncstate.Mutation) (*syncstate.Outcome, error) {
	if m.EntryID == uuid.Nil {
		return nil, shared.NewValidationError("entry_id", "is required")
	}

	outcome, err := v.records.Record(ctx, m, v.now())
	if err != nil {
		return nil, v.recorder.Record(ctx, m.HouseholdID, "sync.record", err)
	}

	if m.Conflicts() {
		v.logger.Warn("Concurrent edit detected",
			"household_id", m.HouseholdID.String(),
			"entry_id", m.EntryID.String(),
			"expected_version", *m.ExpectedVersion,
			"previous_version", m.PreviousVersion,
			"new_version", outcome.NewVersion,
			"conflict_count", outcome.ConflictCount,
			"synced_by", m.SyncedBy)
	}

	return outcome, nil
}

// Get returns the sync record of an entry
func (v *VersionTrackerImpl) Get(ctx context.Context, entryID uuid.UUID) (*syncstate.Record, error) {
	record, err := v.records.Get(ctx, entryID)
	if err != nil {
		var notFound syncstate.ErrRecordNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, v.recorder.Record(ctx, uuid.Nil, "sync.get", err)
	}
	return record, nil
}

// ListConflicts returns the household records still flagged as conflicted
func (v *VersionTrackerImpl) ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*syncstate.Record, error) {
	records, err := v.records.ListConflicts(ctx, householdID)
	if err != nil {
		return nil, v.recorder.Record(ctx, householdID, "sync.list_conflicts", err)
	}
	return records, nil
}

// Resolve returns a conflicted record to clean
func (v *VersionTrackerImpl) Resolve(ctx context.Context, entryID uuid.UUID, resolvedBy string) error {
	if err := v.records.Resolve(ctx, entryID, resolvedBy, v.now()); err != nil {
		var notFound syncstate.ErrRecordNotFound
		if errors.As(err, &notFound) {
			return err
		}
		return v.recorder.Record(ctx, uuid.Nil, "sync.resolve", err)
	}
	v.logger.Info("Conflict resolved", "entry_id", entryID.String(), "resolved_by", resolvedBy)
	return nil
}

// ResolveAll clears every conflict of the household and returns how many were cleared
func (v *VersionTrackerImpl) ResolveAll(ctx context.Context, householdID uuid.UUID, resolvedBy string) (int64, error) {
	count, err := v.records.ResolveAll(ctx, householdID, resolvedBy, v.now())
	if err != nil {
		return 0, v.recorder.Record(ctx, householdID, "sync.resolve_all", err)
	}
	v.logger.Info("Household conflicts resolved", "household_id", householdID.String(), "count", count)
	return count, nil
}
