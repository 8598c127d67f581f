package syncstate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
)

// Record tracks the version and conflict state of one ledger entry
type Record struct {
	HouseholdID   uuid.UUID           `json:"household_id"`
	ResourceID    uuid.UUID           `json:"resource_id"`
	Version       int                 `json:"version"`
	HasConflict   bool                `json:"has_conflict"`
	ConflictCount int                 `json:"conflict_count"`
	LastMutation  shared.MutationKind `json:"last_mutation"`
	LastSyncAt    time.Time           `json:"last_sync_at"`
	SyncedBy      string              `json:"synced_by"`
}

// Mutation describes one accepted write against an entry
type Mutation struct {
	HouseholdID     uuid.UUID
	EntryID         uuid.UUID
	Kind            shared.MutationKind
	PreviousVersion int  // Version the store held before the write, 0 on create
	ExpectedVersion *int // Version the writer believed current, nil when unknown
	SyncedBy        string
}

// NewVersion is the version the entry holds after this mutation
func (m Mutation) NewVersion() int {
	if m.Kind == shared.MutationCreate {
		return 1
	}
	return m.PreviousVersion + 1
}

// Conflicts reports whether the writer acted on a stale version
func (m Mutation) Conflicts() bool {
	return m.ExpectedVersion != nil && *m.ExpectedVersion != m.PreviousVersion
}

// Outcome is what the tracker reports back to the writer
type Outcome struct {
	NewVersion    int  `json:"new_version"`
	HasConflict   bool `json:"has_conflict"`
	ConflictCount int  `json:"conflict_count"`
}

// Repository persists sync records
type Repository interface {
	// Record upserts the record for m; an existing conflict stays set
	Record(ctx context.Context, m Mutation, at time.Time) (*Outcome, error)
	Get(ctx context.Context, resourceID uuid.UUID) (*Record, error)
	ListConflicts(ctx context.Context, householdID uuid.UUID) ([]*Record, error)

	// Resolve clears the conflict flag of one record
	Resolve(ctx context.Context, resourceID uuid.UUID, resolvedBy string, at time.Time) error

	// ResolveAll clears every conflict of a household and returns how many were cleared
	ResolveAll(ctx context.Context, householdID uuid.UUID, resolvedBy string, at time.Time) (int64, error)
}

// ErrRecordNotFound indicates no sync record for the resource
type ErrRecordNotFound struct {
	ResourceID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "sync record not found: " + e.ResourceID.String()
}
