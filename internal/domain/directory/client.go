package directory

import (
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientStatus represents the status of a client
type ClientStatus string

const (
	ClientStatusActive     ClientStatus = "active"
	ClientStatusInactive   ClientStatus = "inactive"
	ClientStatusDischarged ClientStatus = "discharged"
)

// IsValid checks if the status is a known value
func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusDischarged:
		return true
	}
	return false
}

// Client is a person receiving services
type Client struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Email        string
	Phone        string
	Address      string
	InsuranceID  *uuid.UUID
	MemberNumber string
	DefaultRate  decimal.Decimal // private-pay rate per unit
	Status       ClientStatus
	DischargedAt *time.Time
	Notes        string
}

// ClientDetails carries the editable fields of a client
type ClientDetails struct {
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Email        string
	Phone        string
	Address      string
	MemberNumber string
	DefaultRate  decimal.Decimal
	Notes        string
}

// NewClient creates an active client
func NewClient(tenantID uuid.UUID, d ClientDetails) (*Client, error) {
	c := &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              ClientStatusActive,
	}
	if err := c.apply(d); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewDirectoryEvent(EventTypeClientCreated, AggregateTypeClient, c.ID, tenantID, c.FullName()))
	return c, nil
}

// Update replaces the editable fields
func (c *Client) Update(d ClientDetails) error {
	if err := c.apply(d); err != nil {
		return err
	}
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewDirectoryEvent(EventTypeClientUpdated, AggregateTypeClient, c.ID, c.TenantID, c.FullName()))
	return nil
}

func (c *Client) apply(d ClientDetails) error {
	first := strings.TrimSpace(d.FirstName)
	last := strings.TrimSpace(d.LastName)
	if first == "" || last == "" {
		return shared.NewDomainError("INVALID_NAME", "Client first and last name are required")
	}
	if d.DefaultRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Default rate cannot be negative")
	}
	if d.DateOfBirth != nil && d.DateOfBirth.After(time.Now()) {
		return shared.NewDomainError("INVALID_DATE_OF_BIRTH", "Date of birth cannot be in the future")
	}
	c.FirstName = first
	c.LastName = last
	c.DateOfBirth = d.DateOfBirth
	c.Email = strings.ToLower(strings.TrimSpace(d.Email))
	c.Phone = strings.TrimSpace(d.Phone)
	c.Address = strings.TrimSpace(d.Address)
	c.MemberNumber = strings.TrimSpace(d.MemberNumber)
	c.DefaultRate = d.DefaultRate
	c.Notes = d.Notes
	return nil
}

// FullName returns "First Last"
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// AssignInsurance sets or clears the payer
func (c *Client) AssignInsurance(insuranceID *uuid.UUID, memberNumber string) {
	c.InsuranceID = insuranceID
	c.MemberNumber = strings.TrimSpace(memberNumber)
	c.Touch()
	c.IncrementVersion()
}

// Discharge ends services for the client
func (c *Client) Discharge(at time.Time) error {
	if c.Status == ClientStatusDischarged {
		return shared.InvalidStatef("Client is already discharged")
	}
	c.Status = ClientStatusDischarged
	c.DischargedAt = &at
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewDirectoryEvent(EventTypeClientDischarged, AggregateTypeClient, c.ID, c.TenantID, c.FullName()))
	return nil
}

// Reactivate brings an inactive or discharged client back
func (c *Client) Reactivate() error {
	if c.Status == ClientStatusActive {
		return shared.InvalidStatef("Client is already active")
	}
	c.Status = ClientStatusActive
	c.DischargedAt = nil
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetInactive pauses services without discharging
func (c *Client) SetInactive() error {
	if c.Status != ClientStatusActive {
		return shared.InvalidStatef("Cannot deactivate client in %s status", c.Status)
	}
	c.Status = ClientStatusInactive
	c.Touch()
	c.IncrementVersion()
	return nil
}

// IsBillable reports whether services can be billed for the client
func (c *Client) IsBillable() bool {
	return !c.IsDeleted() && c.Status != ClientStatusInactive
}

// Delete soft-deletes the client
func (c *Client) Delete() {
	c.MarkDeleted()
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewDirectoryEvent(EventTypeClientDeleted, AggregateTypeClient, c.ID, c.TenantID, c.FullName()))
}
