package models

import (
	"time"

	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
)

// TimesheetModel is the persistence model for the Timesheet aggregate root.
type TimesheetModel struct {
	TenantAggregateModel
	Number          string                `gorm:"type:varchar(50);not null;index"`
	ProviderID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	PeriodStart     time.Time             `gorm:"type:date;not null"`
	PeriodEnd       time.Time             `gorm:"type:date;not null"`
	Status          timesheet.Status      `gorm:"type:varchar(20);not null;default:'draft';index"`
	TotalMinutes    int                   `gorm:"not null;default:0"`
	TotalUnits      int                   `gorm:"not null;default:0"`
	BillableUnits   int                   `gorm:"not null;default:0"`
	Notes           string                `gorm:"type:text"`
	SubmittedAt     *time.Time            `gorm:"index"`
	SubmittedBy     *uuid.UUID            `gorm:"type:uuid"`
	ReviewedAt      *time.Time            `gorm:"column:reviewed_at"`
	ReviewedBy      *uuid.UUID            `gorm:"type:uuid"`
	RejectionReason string                `gorm:"type:varchar(500)"`
	Entries         []TimesheetEntryModel `gorm:"foreignKey:TimesheetID;references:ID"`
}

// TableName returns the table name for GORM
func (TimesheetModel) TableName() string {
	return "timesheets"
}

// ToDomain converts the persistence model to a domain Timesheet.
func (m *TimesheetModel) ToDomain() *timesheet.Timesheet {
	ts := &timesheet.Timesheet{
		SoftDeletable:   m.SoftDeletable(),
		Number:          m.Number,
		ProviderID:      m.ProviderID,
		PeriodStart:     m.PeriodStart,
		PeriodEnd:       m.PeriodEnd,
		Status:          m.Status,
		Entries:         make([]timesheet.Entry, len(m.Entries)),
		TotalMinutes:    m.TotalMinutes,
		TotalUnits:      m.TotalUnits,
		BillableUnits:   m.BillableUnits,
		Notes:           m.Notes,
		SubmittedAt:     m.SubmittedAt,
		SubmittedBy:     m.SubmittedBy,
		ReviewedAt:      m.ReviewedAt,
		ReviewedBy:      m.ReviewedBy,
		RejectionReason: m.RejectionReason,
	}
	m.PopulateTenantAggregateRoot(&ts.TenantAggregateRoot)
	for i := range m.Entries {
		ts.Entries[i] = m.Entries[i].ToDomain()
	}
	return ts
}

// FromDomain populates the persistence model from a domain Timesheet.
func (m *TimesheetModel) FromDomain(ts *timesheet.Timesheet) {
	m.FromDomainTenantAggregateRoot(ts.TenantAggregateRoot)
	m.FromDomainSoftDeletable(ts.SoftDeletable)
	m.Number = ts.Number
	m.ProviderID = ts.ProviderID
	m.PeriodStart = ts.PeriodStart
	m.PeriodEnd = ts.PeriodEnd
	m.Status = ts.Status
	m.TotalMinutes = ts.TotalMinutes
	m.TotalUnits = ts.TotalUnits
	m.BillableUnits = ts.BillableUnits
	m.Notes = ts.Notes
	m.SubmittedAt = ts.SubmittedAt
	m.SubmittedBy = ts.SubmittedBy
	m.ReviewedAt = ts.ReviewedAt
	m.ReviewedBy = ts.ReviewedBy
	m.RejectionReason = ts.RejectionReason
	m.Entries = make([]TimesheetEntryModel, len(ts.Entries))
	for i := range ts.Entries {
		m.Entries[i] = TimesheetEntryModelFromDomain(ts.TenantID, ts.Entries[i])
	}
}

// TimesheetModelFromDomain creates a new persistence model from a domain Timesheet.
func TimesheetModelFromDomain(ts *timesheet.Timesheet) *TimesheetModel {
	m := &TimesheetModel{}
	m.FromDomain(ts)
	return m
}

// TimesheetEntryModel is the persistence model for a timesheet line.
type TimesheetEntryModel struct {
	BaseModel
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	TimesheetID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ServiceDate time.Time  `gorm:"type:date;not null"`
	ServiceCode string     `gorm:"type:varchar(20)"`
	Minutes     int        `gorm:"not null"`
	Units       int        `gorm:"not null"`
	Billable    bool       `gorm:"not null;default:true"`
	Notes       string     `gorm:"type:text"`
	InvoiceID   *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TimesheetEntryModel) TableName() string {
	return "timesheet_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *TimesheetEntryModel) ToDomain() timesheet.Entry {
	return timesheet.Entry{
		ID:          m.ID,
		TimesheetID: m.TimesheetID,
		ClientID:    m.ClientID,
		ServiceDate: m.ServiceDate,
		ServiceCode: m.ServiceCode,
		Minutes:     m.Minutes,
		Units:       m.Units,
		Billable:    m.Billable,
		Notes:       m.Notes,
		InvoiceID:   m.InvoiceID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// TimesheetEntryModelFromDomain creates a persistence model from a domain Entry.
func TimesheetEntryModelFromDomain(tenantID uuid.UUID, e timesheet.Entry) TimesheetEntryModel {
	return TimesheetEntryModel{
		BaseModel: BaseModel{
			ID:        e.ID,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		TenantID:    tenantID,
		TimesheetID: e.TimesheetID,
		ClientID:    e.ClientID,
		ServiceDate: e.ServiceDate,
		ServiceCode: e.ServiceCode,
		Minutes:     e.Minutes,
		Units:       e.Units,
		Billable:    e.Billable,
		Notes:       e.Notes,
		InvoiceID:   e.InvoiceID,
	}
}

// BillableEntryRow is the projection used when collecting entries to invoice.
type BillableEntryRow struct {
	TimesheetEntryModel
	TimesheetNumber string
	ProviderID      uuid.UUID
}

// ToDomain converts the projection to a domain BillableEntry.
func (r *BillableEntryRow) ToDomain() timesheet.BillableEntry {
	return timesheet.BillableEntry{
		Entry:           r.TimesheetEntryModel.ToDomain(),
		TimesheetNumber: r.TimesheetNumber,
		ProviderID:      r.ProviderID,
	}
}
