package service

import (
	"time"

	"github.com/google/uuid"
	engine "github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
)

type CreateEntryCommand struct {
	HouseholdID    uuid.UUID           `validate:"required"`
	AuthorID       string              `validate:"required,max=128"`
	AuthorName     string              `validate:"max=128"`
	Description    string              `validate:"required,max=500"`
	Subcategory    string              `validate:"max=128"`
	Amount         int64               `validate:"gt=0"`
	Category       shared.CategoryType `validate:"required,oneof=fixed variable savings"`
	Direction      shared.Direction    `validate:"required,oneof=income expense"`
	Date           time.Time           `validate:"required"`
	IdempotencyKey string              `validate:"max=128"`
}

// DuplicateKey is the tuple two submissions must share to collapse
func (c CreateEntryCommand) DuplicateKey() ledger.DuplicateKey {
	return ledger.DuplicateKey{
		HouseholdID: c.HouseholdID,
		AuthorID:    c.AuthorID,
		Description: c.Description,
		Amount:      c.Amount,
		Date:        shared.NormalizeDate(c.Date),
	}
}

type UpdateEntryCommand struct {
	HouseholdID     uuid.UUID `validate:"required"`
	EntryID         uuid.UUID `validate:"required"`
	ActorID         string    `validate:"required,max=128"`
	ExpectedVersion *int      `validate:"omitempty,gte=1"`
	Patch           ledger.Patch
}

type DeleteEntryCommand struct {
	HouseholdID     uuid.UUID `validate:"required"`
	EntryID         uuid.UUID `validate:"required"`
	ActorID         string    `validate:"required,max=128"`
	ExpectedVersion *int      `validate:"omitempty,gte=1"`
}

// EntryResult is the outcome of an entry mutation
type EntryResult struct {
	Entry      *ledger.Entry
	Sync       *syncstate.Outcome
	Categories []engine.CategoryChange
	Duplicate  bool
}

type UpdateParametersCommand struct {
	HouseholdID     uuid.UUID  `validate:"required"`
	ActorID         string     `validate:"required,max=128"`
	Currency        string     `validate:"omitempty,len=3"`
	MonthlyIncome   *int64     `validate:"omitempty,gte=0"`
	FixedExpenses   *int64     `validate:"omitempty,gte=0"`
	SavingsGoal     *int64     `validate:"omitempty,gte=0"`
	PeriodStartDate *time.Time `validate:"omitempty"`
}

type CreateCategoryCommand struct {
	HouseholdID    uuid.UUID           `validate:"required"`
	ActorID        string              `validate:"required,max=128"`
	Name           string              `validate:"required,max=100"`
	Type           shared.CategoryType `validate:"required,oneof=fixed variable savings"`
	BudgetedAmount int64               `validate:"gte=0"`
}

type UpdateCategoryCommand struct {
	HouseholdID    uuid.UUID `validate:"required"`
	CategoryID     uuid.UUID `validate:"required"`
	ActorID        string    `validate:"required,max=128"`
	Name           *string   `validate:"omitempty,max=100"`
	BudgetedAmount *int64    `validate:"omitempty,gte=0"`
	IsActive       *bool
}
