package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
)

var (
	ErrMissingHousehold   = errors.New("household ID is required")
	ErrMissingAuthor      = errors.New("author ID is required")
	ErrMissingDescription = errors.New("description is required")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidCategory    = errors.New("category must be fixed, variable or savings")
	ErrInvalidDirection   = errors.New("direction must be income or expense")
	ErrInvalidStatus      = errors.New("status must be pending, confirmed or failed")
)

// Entry is one income or expense line in a household ledger
type Entry struct {
	ID             uuid.UUID           `json:"id" bson:"_id"`
	HouseholdID    uuid.UUID           `json:"household_id" bson:"household_id"`
	AuthorID       string              `json:"author_id" bson:"author_id"`
	AuthorName     string              `json:"author_name,omitempty" bson:"author_name,omitempty"`
	Description    string              `json:"description" bson:"description"`
	Subcategory    string              `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Amount         int64               `json:"amount" bson:"amount"` // Stored in cents/minor units
	Category       shared.CategoryType `json:"category" bson:"category"`
	Direction      shared.Direction    `json:"direction" bson:"direction"`
	Date           time.Time           `json:"date" bson:"date"`
	Status         shared.EntryStatus  `json:"status" bson:"status"`
	IdempotencyKey string              `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	Version        int                 `json:"version" bson:"version"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}

// NewEntry validates the input and returns a version-1 entry
func NewEntry(householdID uuid.UUID, authorID, description string, amount int64,
	category shared.CategoryType, direction shared.Direction, date time.Time) (*Entry, error) {
	if householdID == uuid.Nil {
		return nil, ErrMissingHousehold
	}
	if strings.TrimSpace(authorID) == "" {
		return nil, ErrMissingAuthor
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrMissingDescription
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}
	if direction != shared.DirectionIncome && direction != shared.DirectionExpense {
		return nil, ErrInvalidDirection
	}

	now := time.Now().UTC()
	return &Entry{
		ID:          uuid.New(),
		HouseholdID: householdID,
		AuthorID:    authorID,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Category:    category,
		Direction:   direction,
		Date:        shared.NormalizeDate(date),
		Status:      shared.EntryStatusConfirmed,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SpendContribution is what this entry adds to its category's running total.
// Only confirmed expenses count.
func (e *Entry) SpendContribution() int64 {
	if e.Direction != shared.DirectionExpense || e.Status != shared.EntryStatusConfirmed {
		return 0
	}
	return e.Amount
}

// Patch carries the fields an update may change; nil means unchanged
type Patch struct {
	Description *string
	Subcategory *string
	Amount      *int64
	Category    *shared.CategoryType
	Direction   *shared.Direction
	Date        *time.Time
	Status      *shared.EntryStatus
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Description == nil && p.Subcategory == nil && p.Amount == nil && p.Category == nil &&
		p.Direction == nil && p.Date == nil && p.Status == nil
}

// Validate checks the values the patch would write
func (p Patch) Validate() error {
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return ErrMissingDescription
	}
	if p.Amount != nil && *p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.Category != nil && !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if p.Direction != nil && *p.Direction != shared.DirectionIncome && *p.Direction != shared.DirectionExpense {
		return ErrInvalidDirection
	}
	if p.Status != nil {
		switch *p.Status {
		case shared.EntryStatusPending, shared.EntryStatusConfirmed, shared.EntryStatusFailed:
		default:
			return ErrInvalidStatus
		}
	}
	return nil
}

// Apply returns a copy of e with the patch applied. Version and timestamps are left to the store.
func (p Patch) Apply(e Entry) Entry {
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Subcategory != nil {
		e.Subcategory = *p.Subcategory
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Direction != nil {
		e.Direction = *p.Direction
	}
	if p.Date != nil {
		e.Date = shared.NormalizeDate(*p.Date)
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	return e
}
