package budget

import (
	"context"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// ParametersRepository persists household monthly figures
type ParametersRepository interface {
	Get(ctx context.Context, householdID uuid.UUID) (*Parameters, error)
	Update(ctx context.Context, params *Parameters) error
	WithTx(tx pgx.Tx) ParametersRepository
}

// CategoryRepository persists categories and their running totals
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]*Category, error)
	ListActive(ctx context.Context, householdID uuid.UUID) ([]*Category, error)

	// GetActiveByType returns the household's active category of the given type
	GetActiveByType(ctx context.Context, householdID uuid.UUID, categoryType shared.CategoryType) (*Category, error)
	Update(ctx context.Context, category *Category) error

	// ApplyDelta adds delta to current_spent in one statement, clamping at zero
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (*DeltaResult, error)

	// SetCurrentSpent overwrites the running total, used when reconciling from the ledger
	SetCurrentSpent(ctx context.Context, id uuid.UUID, amount int64) error
	WithTx(tx pgx.Tx) CategoryRepository
}

// ErrHouseholdNotFound indicates a household without parameters
type ErrHouseholdNotFound struct {
	HouseholdID uuid.UUID
}

func (e ErrHouseholdNotFound) Error() string {
	return "household not found: " + e.HouseholdID.String()
}

// ErrCategoryNotFound indicates a missing or inactive category
type ErrCategoryNotFound struct {
	CategoryID  uuid.UUID
	HouseholdID uuid.UUID
	Type        shared.CategoryType
}

func (e ErrCategoryNotFound) Error() string {
	if e.CategoryID != uuid.Nil {
		return "category not found: " + e.CategoryID.String()
	}
	return "no active " + string(e.Type) + " category for household " + e.HouseholdID.String()
}

// ErrDuplicateCategory indicates an active category name clash within a household
type ErrDuplicateCategory struct {
	Name string
}

func (e ErrDuplicateCategory) Error() string {
	return "category already exists: " + e.Name
}
