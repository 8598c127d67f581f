package budget

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
)

var (
	ErrMissingName      = errors.New("category name is required")
	ErrNegativeBudget   = errors.New("budgeted amount cannot be negative")
	ErrUnknownType      = errors.New("category type must be fixed, variable or savings")
	ErrMissingHousehold = errors.New("household ID is required")
)

// Category is a household spending bucket with a running month-to-date total
type Category struct {
	ID             uuid.UUID           `json:"id"`
	HouseholdID    uuid.UUID           `json:"household_id"`
	Name           string              `json:"name"`
	Type           shared.CategoryType `json:"type"`
	BudgetedAmount int64               `json:"budgeted_amount"` // Stored in cents/minor units
	CurrentSpent   int64               `json:"current_spent"`   // Never negative
	IsActive       bool                `json:"is_active"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewCategory creates an active category with nothing spent
func NewCategory(householdID uuid.UUID, name string, categoryType shared.CategoryType, budgeted int64) (*Category, error) {
	if householdID == uuid.Nil {
		return nil, ErrMissingHousehold
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}
	if !categoryType.Valid() {
		return nil, ErrUnknownType
	}
	if budgeted < 0 {
		return nil, ErrNegativeBudget
	}

	now := time.Now().UTC()
	return &Category{
		ID:             uuid.New(),
		HouseholdID:    householdID,
		Name:           strings.TrimSpace(name),
		Type:           categoryType,
		BudgetedAmount: budgeted,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Remaining is budget left in the category; negative when overspent
func (c *Category) Remaining() int64 {
	return c.BudgetedAmount - c.CurrentSpent
}

// SpentPercentage is CurrentSpent as a share of BudgetedAmount, 0 when nothing is budgeted
func (c *Category) SpentPercentage() float64 {
	if c.BudgetedAmount <= 0 {
		return 0
	}
	return float64(c.CurrentSpent) / float64(c.BudgetedAmount) * 100
}

// IsOverBudget reports whether spending exceeded the budgeted amount
func (c *Category) IsOverBudget() bool {
	return c.CurrentSpent > c.BudgetedAmount
}

// CategoryUpdate carries editable category fields; nil means unchanged
type CategoryUpdate struct {
	Name           *string
	BudgetedAmount *int64
	IsActive       *bool
}

// Apply validates and applies the update in place
func (u CategoryUpdate) Apply(c *Category) error {
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return ErrMissingName
		}
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.BudgetedAmount != nil {
		if *u.BudgetedAmount < 0 {
			return ErrNegativeBudget
		}
		c.BudgetedAmount = *u.BudgetedAmount
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// DeltaResult is the outcome of one atomic spend adjustment
type DeltaResult struct {
	CategoryID     uuid.UUID `json:"category_id"`
	Old            int64     `json:"old"`
	New            int64     `json:"new"`
	BudgetedAmount int64     `json:"budgeted_amount"`
}

// Remaining is the category budget left after the adjustment
func (d DeltaResult) Remaining() int64 {
	return d.BudgetedAmount - d.New
}
