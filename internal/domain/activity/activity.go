package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/events"
)

// Record is one item of a household's activity feed
type Record struct {
	ID          uuid.UUID       `json:"id" bson:"_id"`
	HouseholdID uuid.UUID       `json:"household_id" bson:"household_id"`
	Type        events.Type     `json:"type" bson:"type"`
	ActorID     string          `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Payload     json.RawMessage `json:"payload" bson:"payload"`
	OccurredAt  time.Time       `json:"occurred_at" bson:"occurred_at"`
	RecordedAt  time.Time       `json:"recorded_at" bson:"recorded_at"`
}

// NewRecord builds a feed item from an event. The ID is derived from the event content,
// so a redelivered event maps to the same record.
func NewRecord(e events.Event) (*Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, append([]byte(e.EventType()), payload...)),
		HouseholdID: e.Household(),
		Type:        e.EventType(),
		ActorID:     e.Actor(),
		Payload:     payload,
		OccurredAt:  e.OccurredAt(),
		RecordedAt:  time.Now().UTC(),
	}, nil
}

// Repository stores the activity feed
type Repository interface {
	Create(ctx context.Context, record *Record) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*Record, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ErrorLog is a persisted record of a failed store operation
type ErrorLog struct {
	ID          uuid.UUID  `json:"id" bson:"_id"`
	HouseholdID *uuid.UUID `json:"household_id,omitempty" bson:"household_id,omitempty"`
	Operation   string     `json:"operation" bson:"operation"`
	ErrorType   string     `json:"error_type" bson:"error_type"`
	Message     string     `json:"message" bson:"message"`
	RetryCount  int        `json:"retry_count" bson:"retry_count"`
	OccurredAt  time.Time  `json:"occurred_at" bson:"occurred_at"`
	Resolved    bool       `json:"resolved" bson:"resolved"`
}

// ErrorLogRepository stores failed operations for later inspection
type ErrorLogRepository interface {
	Create(ctx context.Context, log *ErrorLog) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	DeleteResolvedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
