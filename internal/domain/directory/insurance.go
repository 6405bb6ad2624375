package directory

import (
	"strings"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsuranceStatus represents the status of a payer
type InsuranceStatus string

const (
	InsuranceStatusActive   InsuranceStatus = "active"
	InsuranceStatusInactive InsuranceStatus = "inactive"
)

// IsValid checks if the status is a known value
func (s InsuranceStatus) IsValid() bool {
	return s == InsuranceStatusActive || s == InsuranceStatusInactive
}

// Insurance is a third-party payer billed per unit
type Insurance struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Name        string
	PayerID     string
	Email       string
	Phone       string
	Address     string
	RatePerUnit decimal.Decimal
	Status      InsuranceStatus
}

// InsuranceDetails carries the editable fields of a payer
type InsuranceDetails struct {
	Name        string
	PayerID     string
	Email       string
	Phone       string
	Address     string
	RatePerUnit decimal.Decimal
}

// NewInsurance creates an active payer
func NewInsurance(tenantID uuid.UUID, d InsuranceDetails) (*Insurance, error) {
	ins := &Insurance{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              InsuranceStatusActive,
	}
	if err := ins.apply(d); err != nil {
		return nil, err
	}
	ins.AddDomainEvent(NewDirectoryEvent(EventTypeInsuranceCreated, AggregateTypeInsurance, ins.ID, tenantID, ins.Name))
	return ins, nil
}

// Update replaces the editable fields
func (i *Insurance) Update(d InsuranceDetails) error {
	if err := i.apply(d); err != nil {
		return err
	}
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewDirectoryEvent(EventTypeInsuranceUpdated, AggregateTypeInsurance, i.ID, i.TenantID, i.Name))
	return nil
}

func (i *Insurance) apply(d InsuranceDetails) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Insurance name is required")
	}
	payerID := strings.ToUpper(strings.TrimSpace(d.PayerID))
	if payerID == "" {
		return shared.NewDomainError("INVALID_PAYER_ID", "Payer ID is required")
	}
	if d.RatePerUnit.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Rate per unit cannot be negative")
	}
	i.Name = name
	i.PayerID = payerID
	i.Email = strings.ToLower(strings.TrimSpace(d.Email))
	i.Phone = strings.TrimSpace(d.Phone)
	i.Address = strings.TrimSpace(d.Address)
	i.RatePerUnit = d.RatePerUnit
	return nil
}

// SetStatus switches between active and inactive
func (i *Insurance) SetStatus(status InsuranceStatus) error {
	if !status.IsValid() {
		return shared.InvalidInputf("Invalid insurance status: %s", status)
	}
	i.Status = status
	i.Touch()
	i.IncrementVersion()
	return nil
}

// Delete soft-deletes the payer
func (i *Insurance) Delete() {
	i.MarkDeleted()
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewDirectoryEvent(EventTypeInsuranceDeleted, AggregateTypeInsurance, i.ID, i.TenantID, i.Name))
}
