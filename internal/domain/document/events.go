package document

import "github.com/carehours/backend/internal/domain/shared"

// AggregateTypeFormDocument is the aggregate type name
const AggregateTypeFormDocument = "FormDocument"

// Document event types
const (
	EventTypeDocumentGenerated = "document.generated"
	EventTypeDocumentFailed    = "document.failed"
	EventTypeDocumentDeleted   = "document.deleted"
)

// DocumentEvent describes a document state change
type DocumentEvent struct {
	shared.BaseDomainEvent
	Kind   Kind   `json:"kind"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewDocumentEvent builds an event from the document's current state
func NewDocumentEvent(eventType string, d *FormDocument) *DocumentEvent {
	return &DocumentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeFormDocument, d.ID, d.TenantID),
		Kind:            d.Kind,
		Status:          d.Status,
		Error:           d.Error,
	}
}
