// Package events defines the closed set of household mutation facts exchanged between
// the API gateway, the snapshot invalidation path and the activity feed.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
)

// Type tags an event variant on the wire
type Type string

const (
	TypeEntryCreated              Type = "entry_created"
	TypeEntryUpdated              Type = "entry_updated"
	TypeEntryDeleted              Type = "entry_deleted"
	TypeParametersUpdated         Type = "parameters_updated"
	TypeCategoryDefinitionChanged Type = "category_definition_changed"
	TypeCategorySpendChanged      Type = "category_spend_changed"
	TypeSnapshotsInvalidated      Type = "snapshots_invalidated"
	TypeConflictResolved          Type = "conflict_resolved"
)

// Event is implemented only by the variants in this package
type Event interface {
	EventType() Type
	Household() uuid.UUID
	OccurredAt() time.Time
	Actor() string
	isEvent()
}

// Meta is the header shared by every variant
type Meta struct {
	HouseholdID uuid.UUID `json:"household_id"`
	At          time.Time `json:"occurred_at"`
	ActorID     string    `json:"actor_id,omitempty"`
}

// NewMeta stamps a header with the current time
func NewMeta(householdID uuid.UUID, actorID string) Meta {
	return Meta{HouseholdID: householdID, At: time.Now().UTC(), ActorID: actorID}
}

func (m Meta) Household() uuid.UUID  { return m.HouseholdID }
func (m Meta) OccurredAt() time.Time { return m.At }
func (m Meta) Actor() string         { return m.ActorID }

// EntryCreated records a new ledger entry
type EntryCreated struct {
	Meta
	EntryID     uuid.UUID           `json:"entry_id"`
	Date        time.Time           `json:"date"`
	Amount      int64               `json:"amount"`
	Category    shared.CategoryType `json:"category"`
	Direction   shared.Direction    `json:"direction"`
	Description string              `json:"description"`
}

// EntryUpdated records an accepted edit; PreviousDate differs from Date when the entry moved
type EntryUpdated struct {
	Meta
	EntryID        uuid.UUID           `json:"entry_id"`
	PreviousDate   time.Time           `json:"previous_date"`
	Date           time.Time           `json:"date"`
	PreviousAmount int64               `json:"previous_amount"`
	Amount         int64               `json:"amount"`
	Category       shared.CategoryType `json:"category"`
	Version        int                 `json:"version"`
	HasConflict    bool                `json:"has_conflict"`
}

// EntryDeleted records a removed entry with the amount it carried
type EntryDeleted struct {
	Meta
	EntryID     uuid.UUID           `json:"entry_id"`
	Date        time.Time           `json:"date"`
	Amount      int64               `json:"amount"`
	Category    shared.CategoryType `json:"category"`
	Description string              `json:"description"`
	Version     int                 `json:"version"`
	HasConflict bool                `json:"has_conflict"`
}

// ParametersUpdated records new monthly figures
type ParametersUpdated struct {
	Meta
	MonthlyIncome int64 `json:"monthly_income"`
	FixedExpenses int64 `json:"fixed_expenses"`
	SavingsGoal   int64 `json:"savings_goal"`
}

// CategoryDefinitionChanged records a created or edited category
type CategoryDefinitionChanged struct {
	Meta
	CategoryID     uuid.UUID           `json:"category_id"`
	Name           string              `json:"name"`
	Type           shared.CategoryType `json:"type"`
	BudgetedAmount int64               `json:"budgeted_amount"`
	IsActive       bool                `json:"is_active"`
	Created        bool                `json:"created"`
}

// CategorySpendChanged records an adjustment of a category's running total
type CategorySpendChanged struct {
	Meta
	CategoryID uuid.UUID           `json:"category_id"`
	Type       shared.CategoryType `json:"type"`
	Old        int64               `json:"old"`
	New        int64               `json:"new"`
	Remaining  int64               `json:"remaining"`
	Reason     string              `json:"reason"`
}

// SnapshotsInvalidated records a manual or maintenance invalidation; nil Date means every date
type SnapshotsInvalidated struct {
	Meta
	Date   *time.Time `json:"date,omitempty"`
	Reason string     `json:"reason"`
}

// ConflictResolved records cleared conflicts; nil EntryID means every entry of the household
type ConflictResolved struct {
	Meta
	EntryID *uuid.UUID `json:"entry_id,omitempty"`
	Count   int64      `json:"count"`
}

func (EntryCreated) EventType() Type              { return TypeEntryCreated }
func (EntryUpdated) EventType() Type              { return TypeEntryUpdated }
func (EntryDeleted) EventType() Type              { return TypeEntryDeleted }
func (ParametersUpdated) EventType() Type         { return TypeParametersUpdated }
func (CategoryDefinitionChanged) EventType() Type { return TypeCategoryDefinitionChanged }
func (CategorySpendChanged) EventType() Type      { return TypeCategorySpendChanged }
func (SnapshotsInvalidated) EventType() Type      { return TypeSnapshotsInvalidated }
func (ConflictResolved) EventType() Type          { return TypeConflictResolved }

func (EntryCreated) isEvent()              {}
func (EntryUpdated) isEvent()              {}
func (EntryDeleted) isEvent()              {}
func (ParametersUpdated) isEvent()         {}
func (CategoryDefinitionChanged) isEvent() {}
func (CategorySpendChanged) isEvent()      {}
func (SnapshotsInvalidated) isEvent()      {}
func (ConflictResolved) isEvent()          {}

// Scope lists which snapshots of a household an event makes stale
type Scope struct {
	All   bool
	Dates []time.Time
}

// Empty reports whether the event leaves every snapshot valid
func (s Scope) Empty() bool {
	return !s.All && len(s.Dates) == 0
}

// InvalidationScope maps an event to the snapshots it affects.
// Entry events touch their own dates; parameter and category definition edits touch every date.
func InvalidationScope(e Event) Scope {
	switch ev := e.(type) {
	case EntryCreated:
		return Scope{Dates: []time.Time{ev.Date}}
	case EntryUpdated:
		if shared.NormalizeDate(ev.PreviousDate).Equal(shared.NormalizeDate(ev.Date)) {
			return Scope{Dates: []time.Time{ev.Date}}
		}
		return Scope{Dates: []time.Time{ev.PreviousDate, ev.Date}}
	case EntryDeleted:
		return Scope{Dates: []time.Time{ev.Date}}
	case ParametersUpdated, CategoryDefinitionChanged:
		return Scope{All: true}
	default:
		return Scope{}
	}
}
