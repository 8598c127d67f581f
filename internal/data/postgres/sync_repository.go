package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/household-daily-budget/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// SyncRepository implements syncstate.Repository for PostgreSQL
type SyncRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSyncRepository creates a new PostgreSQL sync record repository
func NewSyncRepository(logger *slog.Logger, db *persistence.PostgresDB) syncstate.Repository {
	return &SyncRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Record upserts the sync record for a mutation. The conflict flag is OR-ed with the stored one
// so a later matching write never clears it, and the version never moves backwards.
func (r *SyncRepository) Record(ctx context.Context, m syncstate.Mutation, at time.Time) (*syncstate.Outcome, error) {
	query := `
		INSERT INTO sync_records (resource_id, household_id, version, has_conflict, conflict_count, last_mutation, last_sync_at, synced_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (resource_id) DO UPDATE
		SET version = GREATEST(sync_records.version, EXCLUDED.version),
			has_conflict = sync_records.has_conflict OR EXCLUDED.has_conflict,
			conflict_count = sync_records.conflict_count + EXCLUDED.conflict_count,
			last_mutation = EXCLUDED.last_mutation,
			last_sync_at = EXCLUDED.last_sync_at,
			synced_by = EXCLUDED.synced_by
		RETURNING version, has_conflict, conflict_count
	`

	conflict := m.Conflicts()
	conflictIncrement := 0
	if conflict {
		conflictIncrement = 1
	}

	var out syncstate.Outcome
	err := r.querier.QueryRow(ctx, query,
		m.EntryID,
		m.HouseholdID,
		m.NewVersion(),
		conflict,
		conflictIncrement,
		m.Kind,
		at,
		m.SyncedBy,
	).Scan(&out.NewVersion, &out.HasConflict, &out.ConflictCount)
	if err != nil {
		r.logger.Error("Failed to record sync state",
			"resource_id", m.EntryID.String(),
			"kind", string(m.Kind),
			"error", err,
		)
		return nil, fmt.Errorf("failed to record sync state: %w", err)
	}

	return &out, nil
}

// Get returns the sync record of one entry
func (r *SyncRepository) Get(ctx context.Context, resourceID uuid.UUID) (*syncstate.Record, error) {
	query := `
		SELECT household_id, resource_id, version, has_conflict, conflict_count, last_mutation, last_sync_at, synced_by
		FROM sync_records
		WHERE resource_id = $1
	`

	rec, err := scanSyncRecord(r.querier.QueryRow(ctx, query, resourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, syncstate.ErrRecordNotFound{ResourceID: resourceID}
		}
		r.logger.Error("Failed to get sync record", "resource_id", resourceID.String(), "error", err)
		return nil, fmt.Errorf("failed to get sync record: %w", err)
	}

	return rec, nil
}

// ListConflicts returns the household's conflicted records, most recent first
func (r *SyncRepository) ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*syncstate.Record, error) {
	query := `
		SELECT household_id, resource_id, version, has_conflict, conflict_count, last_mutation, last_sync_at, synced_by
		FROM sync_records
		WHERE household_id = $1 AND has_conflict
		ORDER BY last_sync_at DESC
	`

	rows, err := r.querier.Query(ctx, query, householdID)
	if err != nil {
		r.logger.Error("Failed to list sync conflicts", "household_id", householdID.String(), "error", err)
		return nil, fmt.Errorf("failed to list sync conflicts: %w", err)
	}
	defer rows.Close()

	var records []*syncstate.Record
	for rows.Next() {
		rec, err := scanSyncRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan sync record", "error", err)
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over sync records: %w", err)
	}

	return records, nil
}

// Resolve clears the conflict of one record
func (r *SyncRepository) Resolve(ctx context.Context, resourceID uuid.UUID, resolvedBy string, at time.Time) error {
	query := `
		UPDATE sync_records
		SET has_conflict = FALSE, conflict_count = 0, last_sync_at = $1, synced_by = $2
		WHERE resource_id = $3
	`

	result, err := r.querier.Exec(ctx, query, at, resolvedBy, resourceID)
	if err != nil {
		r.logger.Error("Failed to resolve sync conflict", "resource_id", resourceID.String(), "error", err)
		return fmt.Errorf("failed to resolve sync conflict: %w", err)
	}

	if result.RowsAffected() == 0 {
		return syncstate.ErrRecordNotFound{ResourceID: resourceID}
	}

	return nil
}

// ResolveAll clears every conflict of the household
func (r *SyncRepository) ResolveAll(ctx context.Context, householdID uuid.UUID, resolvedBy string, at time.Time) (int64, error) {
	query := `
		UPDATE sync_records
		SET has_conflict = FALSE, conflict_count = 0, last_sync_at = $1, synced_by = $2
		WHERE household_id = $3 AND has_conflict
	`

	result, err := r.querier.Exec(ctx, query, at, resolvedBy, householdID)
	if err != nil {
		r.logger.Error("Failed to resolve household sync conflicts", "household_id", householdID.String(), "error", err)
		return 0, fmt.Errorf("failed to resolve household sync conflicts: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanSyncRecord(row pgx.Row) (*syncstate.Record, error) {
	var rec syncstate.Record
	err := row.Scan(
		&rec.HouseholdID,
		&rec.ResourceID,
		&rec.Version,
		&rec.HasConflict,
		&rec.ConflictCount,
		&rec.LastMutation,
		&rec.LastSyncAt,
		&rec.SyncedBy,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
