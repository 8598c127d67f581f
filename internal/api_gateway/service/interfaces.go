package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
)

// EntryService defines the interface for ledger entry operations
type EntryService interface {
	// CreateEntry writes a new entry, adjusts its category total and invalidates the day.
	// An identical submission inside the dedup window returns the earlier entry with Duplicate set.
	CreateEntry(ctx context.Context, cmd CreateEntryCommand) (*EntryResult, error)

	// UpdateEntry applies a patch. A stale ExpectedVersion does not reject the write,
	// the result reports the conflict instead.
	UpdateEntry(ctx context.Context, cmd UpdateEntryCommand) (*EntryResult, error)

	// DeleteEntry removes an entry and reverses its category contribution
	DeleteEntry(ctx context.Context, cmd DeleteEntryCommand) (*EntryResult, error)

	// GetEntry returns ErrEntryNotFound when the entry does not belong to the household
	GetEntry(ctx context.Context, householdID, entryID uuid.UUID) (*ledger.Entry, error)

	ListByDate(ctx context.Context, householdID uuid.UUID, date time.Time) ([]*ledger.Entry, error)
	ListByRange(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]*ledger.Entry, error)
}

// HouseholdService defines the interface for household setup and history
type HouseholdService interface {
	// GetParameters returns ErrHouseholdNotFound before the first UpdateParameters
	GetParameters(ctx context.Context, householdID uuid.UUID) (*budget.Parameters, error)

	// UpdateParameters creates or edits the monthly figures and invalidates every snapshot
	UpdateParameters(ctx context.Context, cmd UpdateParametersCommand) (*budget.Parameters, error)

	ListCategories(ctx context.Context, householdID uuid.UUID) ([]*budget.Category, error)

	// CreateCategory returns ErrDuplicateCategory when an active category has the same name
	CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (*budget.Category, error)
	UpdateCategory(ctx context.Context, cmd UpdateCategoryCommand) (*budget.Category, error)

	// ListActivity returns the household feed, newest first
	ListActivity(ctx context.Context, householdID uuid.UUID, page, perPage int) ([]*activity.Record, error)
}
