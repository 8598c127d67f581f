package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/shared"
)

// Message holds one household event awaiting publication
type Message struct {
	ID            int64               `json:"id"`
	HouseholdID   uuid.UUID           `json:"household_id"`
	EventType     events.Type         `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps an event in its wire envelope
func NewMessage(e events.Event) (*Message, error) {
	payload, err := events.Marshal(e)
	if err != nil {
		return nil, err
	}

	return &Message{
		HouseholdID: e.Household(),
		EventType:   e.EventType(),
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

// Event decodes the payload back into its variant
func (m *Message) Event() (events.Event, error) {
	return events.Unmarshal(m.Payload)
}
