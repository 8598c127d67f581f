package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DuplicateKey identifies submissions that collapse into one entry
type DuplicateKey struct {
	HouseholdID uuid.UUID
	AuthorID    string
	Description string
	Amount      int64
	Date        time.Time
}

// Repository manages ledger entry persistence for households
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByIdempotencyKey(ctx context.Context, householdID uuid.UUID, key string) (*Entry, error)

	// FindRecentDuplicate returns an entry matching key created at or after since, or nil
	FindRecentDuplicate(ctx context.Context, key DuplicateKey, since time.Time) (*Entry, error)

	// Update writes only the fields the patch sets, stamps updatedAt and bumps the version in one
	// atomic step, returning the entry as it was before. patch.Apply on that pre-image is the stored result.
	Update(ctx context.Context, id uuid.UUID, patch Patch, updatedAt time.Time) (*Entry, error)

	// Delete removes the entry and returns it as it was before removal
	Delete(ctx context.Context, id uuid.UUID) (*Entry, error)

	QueryByHouseholdAndDate(ctx context.Context, householdID uuid.UUID, date time.Time) ([]*Entry, error)
	QueryByHouseholdAndDateRange(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]*Entry, error)
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// A nil target ID matches any missing entry
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// ErrDuplicateEntry indicates an idempotency key collision
type ErrDuplicateEntry struct {
	EntryID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
