package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate and published after it is saved
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// ActorEvent is implemented by events that record who caused them
type ActorEvent interface {
	DomainEvent
	ActorID() *uuid.UUID
	SetActor(userID uuid.UUID)
}

// BaseDomainEvent is embedded by every CareHours event. Its fields are
// serialized with the event payload.
type BaseDomainEvent struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Timestamp     time.Time  `json:"timestamp"`
	AggID         uuid.UUID  `json:"aggregate_id"`
	AggType       string     `json:"aggregate_type"`
	TenantIDValue uuid.UUID  `json:"tenant_id"`
	Actor         *uuid.UUID `json:"actor_id,omitempty"`
}

// NewBaseDomainEvent stamps a new event with an ID and the current UTC time
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now().UTC(),
		AggID:         aggID,
		AggType:       aggType,
		TenantIDValue: tenantID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID { return e.ID }
func (e *BaseDomainEvent) EventType() string { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.AggID }
func (e *BaseDomainEvent) AggregateType() string { return e.AggType }
func (e *BaseDomainEvent) TenantID() uuid.UUID { return e.TenantIDValue }
func (e *BaseDomainEvent) ActorID() *uuid.UUID { return e.Actor }

// SetActor records the user behind the event. The first actor wins and
// uuid.Nil is ignored.
func (e *BaseDomainEvent) SetActor(userID uuid.UUID) {
	if e.Actor != nil || userID == uuid.Nil {
		return
	}
	e.Actor = &userID
}
