package audit

import (
	"context"

	"github.com/carehours/backend/internal/domain/audit"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/event"
)

// EventHandler turns every published domain event into an audit entry
type EventHandler struct {
	service *AuditService
}

// NewEventHandler creates the audit event handler
func NewEventHandler(service *AuditService) *EventHandler {
	return &EventHandler{service: service}
}

// EventTypes subscribes to everything
func (h *EventHandler) EventTypes() []string {
	return nil
}

// Handle records the event with its payload as details
func (h *EventHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	details, err := event.Payload(ev)
	if err != nil {
		return err
	}
	details["event_id"] = ev.EventID().String()
	entityID := ev.AggregateID()

	entry := audit.Entry{
		TenantID:   ev.TenantID(),
		Action:     ev.EventType(),
		EntityType: ev.AggregateType(),
		EntityID:   &entityID,
		Details:    details,
		OccurredAt: ev.OccurredAt(),
	}
	// events replayed outside a request keep the user who raised them
	if ae, ok := ev.(shared.ActorEvent); ok {
		entry.ActorID = ae.ActorID()
	}
	return h.service.Record(ctx, entry)
}

var _ shared.EventHandler = (*EventHandler)(nil)
