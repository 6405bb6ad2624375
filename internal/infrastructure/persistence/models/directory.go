package models

import (
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	TenantAggregateModel
	FirstName    string                 `gorm:"type:varchar(100);not null"`
	LastName     string                 `gorm:"type:varchar(100);not null"`
	DateOfBirth  *time.Time             `gorm:"type:date"`
	Email        string                 `gorm:"type:varchar(200)"`
	Phone        string                 `gorm:"type:varchar(50)"`
	Address      string                 `gorm:"type:text"`
	InsuranceID  *uuid.UUID             `gorm:"type:uuid;index"`
	MemberNumber string                 `gorm:"type:varchar(100)"`
	DefaultRate  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Status       directory.ClientStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	DischargedAt *time.Time             `gorm:"type:date"`
	Notes        string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *directory.Client {
	c := &directory.Client{
		SoftDeletable: m.SoftDeletable(),
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		DateOfBirth:   m.DateOfBirth,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		InsuranceID:   m.InsuranceID,
		MemberNumber:  m.MemberNumber,
		DefaultRate:   m.DefaultRate,
		Status:        m.Status,
		DischargedAt:  m.DischargedAt,
		Notes:         m.Notes,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *directory.Client) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.FromDomainSoftDeletable(c.SoftDeletable)
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.DateOfBirth = c.DateOfBirth
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.InsuranceID = c.InsuranceID
	m.MemberNumber = c.MemberNumber
	m.DefaultRate = c.DefaultRate
	m.Status = c.Status
	m.DischargedAt = c.DischargedAt
	m.Notes = c.Notes
}

// ClientModelFromDomain creates a new persistence model from a domain Client entity.
func ClientModelFromDomain(c *directory.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// ProviderModel is the persistence model for the Provider domain entity.
type ProviderModel struct {
	TenantAggregateModel
	FirstName  string                   `gorm:"type:varchar(100);not null"`
	LastName   string                   `gorm:"type:varchar(100);not null"`
	Email      string                   `gorm:"type:varchar(200);not null"`
	Phone      string                   `gorm:"type:varchar(50)"`
	Credential string                   `gorm:"type:varchar(50)"`
	NPI        string                   `gorm:"column:npi;type:varchar(10);index"`
	PayRate    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Status     directory.ProviderStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (ProviderModel) TableName() string {
	return "providers"
}

// ToDomain converts the persistence model to a domain Provider entity.
func (m *ProviderModel) ToDomain() *directory.Provider {
	p := &directory.Provider{
		SoftDeletable: m.SoftDeletable(),
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Email:         m.Email,
		Phone:         m.Phone,
		Credential:    m.Credential,
		NPI:           m.NPI,
		PayRate:       m.PayRate,
		Status:        m.Status,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Provider entity.
func (m *ProviderModel) FromDomain(p *directory.Provider) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.FromDomainSoftDeletable(p.SoftDeletable)
	m.FirstName = p.FirstName
	m.LastName = p.LastName
	m.Email = p.Email
	m.Phone = p.Phone
	m.Credential = p.Credential
	m.NPI = p.NPI
	m.PayRate = p.PayRate
	m.Status = p.Status
}

// ProviderModelFromDomain creates a new persistence model from a domain Provider entity.
func ProviderModelFromDomain(p *directory.Provider) *ProviderModel {
	m := &ProviderModel{}
	m.FromDomain(p)
	return m
}

// InsuranceModel is the persistence model for the Insurance domain entity.
type InsuranceModel struct {
	TenantAggregateModel
	Name        string                    `gorm:"type:varchar(200);not null"`
	PayerID     string                    `gorm:"type:varchar(50);not null"`
	Email       string                    `gorm:"type:varchar(200)"`
	Phone       string                    `gorm:"type:varchar(50)"`
	Address     string                    `gorm:"type:text"`
	RatePerUnit decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Status      directory.InsuranceStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (InsuranceModel) TableName() string {
	return "insurances"
}

// ToDomain converts the persistence model to a domain Insurance entity.
func (m *InsuranceModel) ToDomain() *directory.Insurance {
	ins := &directory.Insurance{
		SoftDeletable: m.SoftDeletable(),
		Name:          m.Name,
		PayerID:       m.PayerID,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		RatePerUnit:   m.RatePerUnit,
		Status:        m.Status,
	}
	m.PopulateTenantAggregateRoot(&ins.TenantAggregateRoot)
	return ins
}

// FromDomain populates the persistence model from a domain Insurance entity.
func (m *InsuranceModel) FromDomain(i *directory.Insurance) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.FromDomainSoftDeletable(i.SoftDeletable)
	m.Name = i.Name
	m.PayerID = i.PayerID
	m.Email = i.Email
	m.Phone = i.Phone
	m.Address = i.Address
	m.RatePerUnit = i.RatePerUnit
	m.Status = i.Status
}

// InsuranceModelFromDomain creates a new persistence model from a domain Insurance entity.
func InsuranceModelFromDomain(i *directory.Insurance) *InsuranceModel {
	m := &InsuranceModel{}
	m.FromDomain(i)
	return m
}
