package models

import (
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	Number      string                `gorm:"type:varchar(50);not null;index"`
	ClientID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	InsuranceID *uuid.UUID            `gorm:"type:uuid;index"`
	BillToName  string                `gorm:"type:varchar(200)"`
	BillToEmail string                `gorm:"type:varchar(200)"`
	PeriodStart time.Time             `gorm:"type:date;not null"`
	PeriodEnd   time.Time             `gorm:"type:date;not null"`
	IssueDate   *time.Time            `gorm:"type:date;index"`
	DueDate     *time.Time            `gorm:"type:date"`
	Status      billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Subtotal    decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount  decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	SentAt      *time.Time            `gorm:"column:sent_at"`
	PaidAt      *time.Time            `gorm:"column:paid_at"`
	VoidedAt    *time.Time            `gorm:"column:voided_at"`
	VoidReason  string                `gorm:"type:varchar(500)"`
	Notes       string                `gorm:"type:text"`
	DocumentID  *uuid.UUID            `gorm:"type:uuid"`
	Entries     []InvoiceEntryModel   `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		SoftDeletable: m.SoftDeletable(),
		Number:        m.Number,
		ClientID:      m.ClientID,
		InsuranceID:   m.InsuranceID,
		BillToName:    m.BillToName,
		BillToEmail:   m.BillToEmail,
		PeriodStart:   m.PeriodStart,
		PeriodEnd:     m.PeriodEnd,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		Status:        m.Status,
		Entries:       make([]billing.InvoiceEntry, len(m.Entries)),
		Subtotal:      m.Subtotal,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		SentAt:        m.SentAt,
		PaidAt:        m.PaidAt,
		VoidedAt:      m.VoidedAt,
		VoidReason:    m.VoidReason,
		Notes:         m.Notes,
		DocumentID:    m.DocumentID,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	for i := range m.Entries {
		inv.Entries[i] = m.Entries[i].ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.FromDomainSoftDeletable(inv.SoftDeletable)
	m.Number = inv.Number
	m.ClientID = inv.ClientID
	m.InsuranceID = inv.InsuranceID
	m.BillToName = inv.BillToName
	m.BillToEmail = inv.BillToEmail
	m.PeriodStart = inv.PeriodStart
	m.PeriodEnd = inv.PeriodEnd
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Status = inv.Status
	m.Subtotal = inv.Subtotal
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.SentAt = inv.SentAt
	m.PaidAt = inv.PaidAt
	m.VoidedAt = inv.VoidedAt
	m.VoidReason = inv.VoidReason
	m.Notes = inv.Notes
	m.DocumentID = inv.DocumentID
	m.Entries = make([]InvoiceEntryModel, len(inv.Entries))
	for i, e := range inv.Entries {
		m.Entries[i] = InvoiceEntryModelFromDomain(inv.TenantID, e)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceEntryModel is the persistence model for an invoice line.
type InvoiceEntryModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	TimesheetEntryID *uuid.UUID      `gorm:"type:uuid;index"`
	ServiceDate      time.Time       `gorm:"type:date;not null"`
	Description      string          `gorm:"type:varchar(500)"`
	ServiceCode      string          `gorm:"type:varchar(20)"`
	Minutes          int             `gorm:"not null;default:0"`
	Units            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Rate             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceEntryModel) TableName() string {
	return "invoice_entries"
}

// ToDomain converts the persistence model to a domain InvoiceEntry.
func (m *InvoiceEntryModel) ToDomain() billing.InvoiceEntry {
	return billing.InvoiceEntry{
		ID:               m.ID,
		InvoiceID:        m.InvoiceID,
		TimesheetEntryID: m.TimesheetEntryID,
		ServiceDate:      m.ServiceDate,
		Description:      m.Description,
		ServiceCode:      m.ServiceCode,
		Minutes:          m.Minutes,
		Units:            m.Units,
		Rate:             m.Rate,
		Amount:           m.Amount,
		CreatedAt:        m.CreatedAt,
	}
}

// InvoiceEntryModelFromDomain creates a persistence model from a domain InvoiceEntry.
func InvoiceEntryModelFromDomain(tenantID uuid.UUID, e billing.InvoiceEntry) InvoiceEntryModel {
	return InvoiceEntryModel{
		ID:               e.ID,
		TenantID:         tenantID,
		InvoiceID:        e.InvoiceID,
		TimesheetEntryID: e.TimesheetEntryID,
		ServiceDate:      e.ServiceDate,
		Description:      e.Description,
		ServiceCode:      e.ServiceCode,
		Minutes:          e.Minutes,
		Units:            e.Units,
		Rate:             e.Rate,
		Amount:           e.Amount,
		CreatedAt:        e.CreatedAt,
	}
}

// CommunityClassModel is the persistence model for the CommunityClass aggregate root.
type CommunityClassModel struct {
	TenantAggregateModel
	Name          string               `gorm:"type:varchar(200);not null"`
	Description   string               `gorm:"type:text"`
	InstructorID  *uuid.UUID           `gorm:"type:uuid;index"`
	ScheduledAt   time.Time            `gorm:"not null;index"`
	DurationHours decimal.Decimal      `gorm:"type:decimal(8,2);not null"`
	RatePerUnit   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Capacity      int                  `gorm:"not null;default:0"`
	Status        billing.ClassStatus  `gorm:"type:varchar(20);not null;default:'scheduled';index"`
	CompletedAt   *time.Time           `gorm:"column:completed_at"`
	CancelledAt   *time.Time           `gorm:"column:cancelled_at"`
	Attendees     []ClassAttendeeModel `gorm:"foreignKey:ClassID;references:ID"`
}

// TableName returns the table name for GORM
func (CommunityClassModel) TableName() string {
	return "community_classes"
}

// ToDomain converts the persistence model to a domain CommunityClass.
func (m *CommunityClassModel) ToDomain() *billing.CommunityClass {
	class := &billing.CommunityClass{
		SoftDeletable: m.SoftDeletable(),
		Name:          m.Name,
		Description:   m.Description,
		InstructorID:  m.InstructorID,
		ScheduledAt:   m.ScheduledAt,
		DurationHours: m.DurationHours,
		RatePerUnit:   m.RatePerUnit,
		Capacity:      m.Capacity,
		Status:        m.Status,
		AttendeeIDs:   make([]uuid.UUID, len(m.Attendees)),
		CompletedAt:   m.CompletedAt,
		CancelledAt:   m.CancelledAt,
	}
	m.PopulateTenantAggregateRoot(&class.TenantAggregateRoot)
	for i, a := range m.Attendees {
		class.AttendeeIDs[i] = a.ClientID
	}
	return class
}

// FromDomain populates the persistence model from a domain CommunityClass.
func (m *CommunityClassModel) FromDomain(c *billing.CommunityClass) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.FromDomainSoftDeletable(c.SoftDeletable)
	m.Name = c.Name
	m.Description = c.Description
	m.InstructorID = c.InstructorID
	m.ScheduledAt = c.ScheduledAt
	m.DurationHours = c.DurationHours
	m.RatePerUnit = c.RatePerUnit
	m.Capacity = c.Capacity
	m.Status = c.Status
	m.CompletedAt = c.CompletedAt
	m.CancelledAt = c.CancelledAt
	m.Attendees = make([]ClassAttendeeModel, len(c.AttendeeIDs))
	for i, clientID := range c.AttendeeIDs {
		m.Attendees[i] = ClassAttendeeModel{
			ClassID:   c.ID,
			ClientID:  clientID,
			TenantID:  c.TenantID,
			Position:  i,
			CreatedAt: c.UpdatedAt,
		}
	}
}

// CommunityClassModelFromDomain creates a new persistence model from a domain CommunityClass.
func CommunityClassModelFromDomain(c *billing.CommunityClass) *CommunityClassModel {
	m := &CommunityClassModel{}
	m.FromDomain(c)
	return m
}

// ClassAttendeeModel links a client to a community class.
type ClassAttendeeModel struct {
	ClassID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ClassAttendeeModel) TableName() string {
	return "class_attendees"
}

// CommunityInvoiceModel is the persistence model for the CommunityInvoice aggregate root.
type CommunityInvoiceModel struct {
	TenantAggregateModel
	Number      string                `gorm:"type:varchar(50);not null;index"`
	ClassID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	BillToEmail string                `gorm:"type:varchar(200)"`
	Hours       decimal.Decimal       `gorm:"type:decimal(8,2);not null"`
	Units       decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Rate        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	PaidAmount  decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Status      billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	IssueDate   *time.Time            `gorm:"type:date"`
	DueDate     *time.Time            `gorm:"type:date"`
	SentAt      *time.Time            `gorm:"column:sent_at"`
	PaidAt      *time.Time            `gorm:"column:paid_at"`
	VoidedAt    *time.Time            `gorm:"column:voided_at"`
	VoidReason  string                `gorm:"type:varchar(500)"`
	DocumentID  *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CommunityInvoiceModel) TableName() string {
	return "community_invoices"
}

// ToDomain converts the persistence model to a domain CommunityInvoice.
func (m *CommunityInvoiceModel) ToDomain() *billing.CommunityInvoice {
	ci := &billing.CommunityInvoice{
		SoftDeletable: m.SoftDeletable(),
		Number:        m.Number,
		ClassID:       m.ClassID,
		ClientID:      m.ClientID,
		BillToEmail:   m.BillToEmail,
		Hours:         m.Hours,
		Units:         m.Units,
		Rate:          m.Rate,
		Amount:        m.Amount,
		PaidAmount:    m.PaidAmount,
		Status:        m.Status,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		SentAt:        m.SentAt,
		PaidAt:        m.PaidAt,
		VoidedAt:      m.VoidedAt,
		VoidReason:    m.VoidReason,
		DocumentID:    m.DocumentID,
	}
	m.PopulateTenantAggregateRoot(&ci.TenantAggregateRoot)
	return ci
}

// FromDomain populates the persistence model from a domain CommunityInvoice.
func (m *CommunityInvoiceModel) FromDomain(ci *billing.CommunityInvoice) {
	m.FromDomainTenantAggregateRoot(ci.TenantAggregateRoot)
	m.FromDomainSoftDeletable(ci.SoftDeletable)
	m.Number = ci.Number
	m.ClassID = ci.ClassID
	m.ClientID = ci.ClientID
	m.BillToEmail = ci.BillToEmail
	m.Hours = ci.Hours
	m.Units = ci.Units
	m.Rate = ci.Rate
	m.Amount = ci.Amount
	m.PaidAmount = ci.PaidAmount
	m.Status = ci.Status
	m.IssueDate = ci.IssueDate
	m.DueDate = ci.DueDate
	m.SentAt = ci.SentAt
	m.PaidAt = ci.PaidAt
	m.VoidedAt = ci.VoidedAt
	m.VoidReason = ci.VoidReason
	m.DocumentID = ci.DocumentID
}

// CommunityInvoiceModelFromDomain creates a new persistence model from a domain CommunityInvoice.
func CommunityInvoiceModelFromDomain(ci *billing.CommunityInvoice) *CommunityInvoiceModel {
	m := &CommunityInvoiceModel{}
	m.FromDomain(ci)
	return m
}
