package shared

// CategoryType groups ledger entries and budget categories
type CategoryType string

const (
	CategoryFixed    CategoryType = "fixed"
	CategoryVariable CategoryType = "variable"
	CategorySavings  CategoryType = "savings"
)

// Valid reports whether the category type is one of the known kinds
func (c CategoryType) Valid() bool {
	switch c {
	case CategoryFixed, CategoryVariable, CategorySavings:
		return true
	}
	return false
}

// Direction tells whether an entry brings money in or takes it out
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// EntryStatus defines ledger entry lifecycle states
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusConfirmed EntryStatus = "confirmed"
	EntryStatusFailed    EntryStatus = "failed"
)

// MutationKind names the write that produced a version bump
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
