package billing

import (
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type names
const (
	AggregateTypeInvoice          = "Invoice"
	AggregateTypeCommunityClass   = "CommunityClass"
	AggregateTypeCommunityInvoice = "CommunityInvoice"
)

// Billing event types
const (
	EventTypeInvoiceCreated         = "invoice.created"
	EventTypeInvoiceSent            = "invoice.sent"
	EventTypeInvoicePaymentRecorded = "invoice.payment_recorded"
	EventTypeInvoicePaid            = "invoice.paid"
	EventTypeInvoiceVoided          = "invoice.voided"
	EventTypeInvoiceDeleted         = "invoice.deleted"

	EventTypeClassCreated   = "community_class.created"
	EventTypeClassCompleted = "community_class.completed"
	EventTypeClassCancelled = "community_class.cancelled"

	EventTypeCommunityInvoiceCreated = "community_invoice.created"
	EventTypeCommunityInvoiceSent    = "community_invoice.sent"
	EventTypeCommunityInvoicePaid    = "community_invoice.paid"
	EventTypeCommunityInvoiceVoided  = "community_invoice.voided"
)

// InvoiceEvent captures a change of an invoice
type InvoiceEvent struct {
	shared.BaseDomainEvent
	Number      string          `json:"number"`
	ClientID    uuid.UUID       `json:"client_id"`
	Status      InvoiceStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Reason      string          `json:"reason,omitempty"`
}

// NewInvoiceEvent builds an event from the invoice's current state
func NewInvoiceEvent(eventType string, i *Invoice) *InvoiceEvent {
	return &InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, i.ID, i.TenantID),
		Number:          i.Number,
		ClientID:        i.ClientID,
		Status:          i.Status,
		TotalAmount:     i.TotalAmount,
		PaidAmount:      i.PaidAmount,
		Reason:          i.VoidReason,
	}
}

// ClassEvent captures a lifecycle change of a community class
type ClassEvent struct {
	shared.BaseDomainEvent
	Name      string      `json:"name"`
	Status    ClassStatus `json:"status"`
	Attendees int         `json:"attendees"`
}

// NewClassEvent builds an event from the class's current state
func NewClassEvent(eventType string, c *CommunityClass) *ClassEvent {
	return &ClassEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCommunityClass, c.ID, c.TenantID),
		Name:            c.Name,
		Status:          c.Status,
		Attendees:       len(c.AttendeeIDs),
	}
}

// CommunityInvoiceEvent captures a change of a community invoice
type CommunityInvoiceEvent struct {
	shared.BaseDomainEvent
	Number   string          `json:"number"`
	ClassID  uuid.UUID       `json:"class_id"`
	ClientID uuid.UUID       `json:"client_id"`
	Status   InvoiceStatus   `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
}

// NewCommunityInvoiceEvent builds an event from the community invoice's current state
func NewCommunityInvoiceEvent(eventType string, ci *CommunityInvoice) *CommunityInvoiceEvent {
	return &CommunityInvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCommunityInvoice, ci.ID, ci.TenantID),
		Number:          ci.Number,
		ClassID:         ci.ClassID,
		ClientID:        ci.ClientID,
		Status:          ci.Status,
		Amount:          ci.Amount,
	}
}
