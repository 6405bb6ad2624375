package event

import (
	"encoding/json"
	"fmt"

	"github.com/carehours/backend/internal/domain/shared"
)

// envelopeKeys are the BaseDomainEvent fields; they already have their own
// audit columns and are stripped from the payload.
var envelopeKeys = []string{"id", "type", "timestamp", "aggregate_id", "aggregate_type", "tenant_id", "actor_id"}

// Serialize encodes a domain event as JSON
func Serialize(ev shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", ev.EventType(), err)
	}
	return data, nil
}

// Payload returns the event-specific fields of an event as a generic map
func Payload(ev shared.DomainEvent) (map[string]any, error) {
	data, err := Serialize(ev)
	if err != nil {
		return nil, err
	}
	payload := make(map[string]any)
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", ev.EventType(), err)
	}
	for _, k := range envelopeKeys {
		delete(payload, k)
	}
	return payload, nil
}
