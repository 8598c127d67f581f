package events

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire form of an event
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrUnknownEventType is returned when decoding a tag this build does not know
type ErrUnknownEventType struct {
	Type Type
}

func (e ErrUnknownEventType) Error() string {
	return "unknown event type: " + string(e.Type)
}

// Marshal encodes an event inside a tagged envelope
func Marshal(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.EventType(), err)
	}
	return json.Marshal(Envelope{Type: e.EventType(), Payload: payload})
}

// Unmarshal decodes an envelope back into its concrete variant
func Unmarshal(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	switch env.Type {
	case TypeEntryCreated:
		return decode[EntryCreated](env)
	case TypeEntryUpdated:
		return decode[EntryUpdated](env)
	case TypeEntryDeleted:
		return decode[EntryDeleted](env)
	case TypeParametersUpdated:
		return decode[ParametersUpdated](env)
	case TypeCategoryDefinitionChanged:
		return decode[CategoryDefinitionChanged](env)
	case TypeCategorySpendChanged:
		return decode[CategorySpendChanged](env)
	case TypeSnapshotsInvalidated:
		return decode[SnapshotsInvalidated](env)
	case TypeConflictResolved:
		return decode[ConflictResolved](env)
	default:
		return nil, ErrUnknownEventType{Type: env.Type}
	}
}

func decode[T Event](env Envelope) (Event, error) {
	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Type, err)
	}
	return v, nil
}
