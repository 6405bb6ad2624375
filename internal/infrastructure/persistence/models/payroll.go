package models

import (
	"time"

	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollImportModel is the persistence model for the PayrollImport aggregate root.
type PayrollImportModel struct {
	TenantAggregateModel
	Number      string               `gorm:"type:varchar(50);not null;index"`
	FileName    string               `gorm:"type:varchar(255);not null"`
	PeriodStart time.Time            `gorm:"type:date;not null"`
	PeriodEnd   time.Time            `gorm:"type:date;not null"`
	Status      payroll.ImportStatus `gorm:"type:varchar(20);not null;default:'uploaded';index"`
	TotalRows   int                  `gorm:"not null;default:0"`
	ValidRows   int                  `gorm:"not null;default:0"`
	ErrorRows   int                  `gorm:"not null;default:0"`
	TotalHours  decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPay    decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	ProcessedAt *time.Time           `gorm:"column:processed_at"`
	ProcessedBy *uuid.UUID           `gorm:"type:uuid"`
	Rows        []PayrollRowModel    `gorm:"foreignKey:ImportID;references:ID"`
}

// TableName returns the table name for GORM
func (PayrollImportModel) TableName() string {
	return "payroll_imports"
}

// ToDomain converts the persistence model to a domain PayrollImport.
func (m *PayrollImportModel) ToDomain() *payroll.PayrollImport {
	imp := &payroll.PayrollImport{
		SoftDeletable: m.SoftDeletable(),
		Number:        m.Number,
		FileName:      m.FileName,
		PeriodStart:   m.PeriodStart,
		PeriodEnd:     m.PeriodEnd,
		Status:        m.Status,
		Rows:          make([]payroll.PayrollRow, len(m.Rows)),
		TotalRows:     m.TotalRows,
		ValidRows:     m.ValidRows,
		ErrorRows:     m.ErrorRows,
		TotalHours:    m.TotalHours,
		TotalPay:      m.TotalPay,
		ProcessedAt:   m.ProcessedAt,
		ProcessedBy:   m.ProcessedBy,
	}
	m.PopulateTenantAggregateRoot(&imp.TenantAggregateRoot)
	for i := range m.Rows {
		imp.Rows[i] = m.Rows[i].ToDomain()
	}
	return imp
}

// FromDomain populates the persistence model from a domain PayrollImport.
func (m *PayrollImportModel) FromDomain(imp *payroll.PayrollImport) {
	m.FromDomainTenantAggregateRoot(imp.TenantAggregateRoot)
	m.FromDomainSoftDeletable(imp.SoftDeletable)
	m.Number = imp.Number
	m.FileName = imp.FileName
	m.PeriodStart = imp.PeriodStart
	m.PeriodEnd = imp.PeriodEnd
	m.Status = imp.Status
	m.TotalRows = imp.TotalRows
	m.ValidRows = imp.ValidRows
	m.ErrorRows = imp.ErrorRows
	m.TotalHours = imp.TotalHours
	m.TotalPay = imp.TotalPay
	m.ProcessedAt = imp.ProcessedAt
	m.ProcessedBy = imp.ProcessedBy
	m.Rows = make([]PayrollRowModel, len(imp.Rows))
	for i, r := range imp.Rows {
		m.Rows[i] = PayrollRowModelFromDomain(imp.TenantID, r)
	}
}

// PayrollImportModelFromDomain creates a new persistence model from a domain PayrollImport.
func PayrollImportModelFromDomain(imp *payroll.PayrollImport) *PayrollImportModel {
	m := &PayrollImportModel{}
	m.FromDomain(imp)
	return m
}

// PayrollRowModel is the persistence model for one imported CSV row.
type PayrollRowModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ImportID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	RowNumber   int               `gorm:"not null"`
	ProviderRef string            `gorm:"type:varchar(200)"`
	ProviderID  *uuid.UUID        `gorm:"type:uuid;index"`
	WorkDate    *time.Time        `gorm:"type:date"`
	Hours       decimal.Decimal   `gorm:"type:decimal(8,2);not null;default:0"`
	Rate        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Amount      decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Memo        string            `gorm:"type:varchar(500)"`
	Status      payroll.RowStatus `gorm:"type:varchar(20);not null"`
	Error       string            `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PayrollRowModel) TableName() string {
	return "payroll_rows"
}

// ToDomain converts the persistence model to a domain PayrollRow.
func (m *PayrollRowModel) ToDomain() payroll.PayrollRow {
	return payroll.PayrollRow{
		ID:          m.ID,
		ImportID:    m.ImportID,
		RowNumber:   m.RowNumber,
		ProviderRef: m.ProviderRef,
		ProviderID:  m.ProviderID,
		WorkDate:    m.WorkDate,
		Hours:       m.Hours,
		Rate:        m.Rate,
		Amount:      m.Amount,
		Memo:        m.Memo,
		Status:      m.Status,
		Error:       m.Error,
	}
}

// PayrollRowModelFromDomain creates a persistence model from a domain PayrollRow.
func PayrollRowModelFromDomain(tenantID uuid.UUID, r payroll.PayrollRow) PayrollRowModel {
	return PayrollRowModel{
		ID:          r.ID,
		TenantID:    tenantID,
		ImportID:    r.ImportID,
		RowNumber:   r.RowNumber,
		ProviderRef: r.ProviderRef,
		ProviderID:  r.ProviderID,
		WorkDate:    r.WorkDate,
		Hours:       r.Hours,
		Rate:        r.Rate,
		Amount:      r.Amount,
		Memo:        r.Memo,
		Status:      r.Status,
		Error:       r.Error,
	}
}
