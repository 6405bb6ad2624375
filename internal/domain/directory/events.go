package directory

import (
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type names
const (
	AggregateTypeClient    = "Client"
	AggregateTypeProvider  = "Provider"
	AggregateTypeInsurance = "Insurance"
)

// Directory event types
const (
	EventTypeClientCreated    = "client.created"
	EventTypeClientUpdated    = "client.updated"
	EventTypeClientDischarged = "client.discharged"
	EventTypeClientDeleted    = "client.deleted"
	EventTypeProviderCreated  = "provider.created"
	EventTypeProviderUpdated  = "provider.updated"
	EventTypeProviderDeleted  = "provider.deleted"
	EventTypeInsuranceCreated = "insurance.created"
	EventTypeInsuranceUpdated = "insurance.updated"
	EventTypeInsuranceDeleted = "insurance.deleted"
)

// DirectoryEvent records a change to a directory record
type DirectoryEvent struct {
	shared.BaseDomainEvent
	DisplayName string `json:"display_name"`
}

// NewDirectoryEvent builds a DirectoryEvent
func NewDirectoryEvent(eventType, aggType string, aggID, tenantID uuid.UUID, displayName string) *DirectoryEvent {
	return &DirectoryEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggType, aggID, tenantID),
		DisplayName:     displayName,
	}
}
