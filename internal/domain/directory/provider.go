package directory

import (
	"regexp"
	"strings"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderStatus represents the status of a provider
type ProviderStatus string

const (
	ProviderStatusActive   ProviderStatus = "active"
	ProviderStatusInactive ProviderStatus = "inactive"
)

// IsValid checks if the status is a known value
func (s ProviderStatus) IsValid() bool {
	return s == ProviderStatusActive || s == ProviderStatusInactive
}

var npiPattern = regexp.MustCompile(`^[0-9]{10}$`)

// Provider is a clinician who delivers services and submits timesheets
type Provider struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Credential string
	NPI        string
	PayRate    decimal.Decimal // per hour
	Status     ProviderStatus
}

// ProviderDetails carries the editable fields of a provider
type ProviderDetails struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Credential string
	NPI        string
	PayRate    decimal.Decimal
}

// NewProvider creates an active provider
func NewProvider(tenantID uuid.UUID, d ProviderDetails) (*Provider, error) {
	p := &Provider{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              ProviderStatusActive,
	}
	if err := p.apply(d); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewDirectoryEvent(EventTypeProviderCreated, AggregateTypeProvider, p.ID, tenantID, p.FullName()))
	return p, nil
}

// Update replaces the editable fields
func (p *Provider) Update(d ProviderDetails) error {
	if err := p.apply(d); err != nil {
		return err
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewDirectoryEvent(EventTypeProviderUpdated, AggregateTypeProvider, p.ID, p.TenantID, p.FullName()))
	return nil
}

func (p *Provider) apply(d ProviderDetails) error {
	first := strings.TrimSpace(d.FirstName)
	last := strings.TrimSpace(d.LastName)
	if first == "" || last == "" {
		return shared.NewDomainError("INVALID_NAME", "Provider first and last name are required")
	}
	email := strings.ToLower(strings.TrimSpace(d.Email))
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Provider email is required")
	}
	npi := strings.TrimSpace(d.NPI)
	if npi != "" && !npiPattern.MatchString(npi) {
		return shared.NewDomainError("INVALID_NPI", "NPI must be 10 digits")
	}
	if d.PayRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Pay rate cannot be negative")
	}
	p.FirstName = first
	p.LastName = last
	p.Email = email
	p.Phone = strings.TrimSpace(d.Phone)
	p.Credential = strings.ToUpper(strings.TrimSpace(d.Credential))
	p.NPI = npi
	p.PayRate = d.PayRate
	return nil
}

// FullName returns "First Last"
func (p *Provider) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Activate marks the provider active
func (p *Provider) Activate() error {
	if p.Status == ProviderStatusActive {
		return shared.InvalidStatef("Provider is already active")
	}
	p.Status = ProviderStatusActive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Deactivate marks the provider inactive
func (p *Provider) Deactivate() error {
	if p.Status == ProviderStatusInactive {
		return shared.InvalidStatef("Provider is already inactive")
	}
	p.Status = ProviderStatusInactive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsActive reports whether the provider can log work
func (p *Provider) IsActive() bool {
	return p.Status == ProviderStatusActive && !p.IsDeleted()
}

// Delete soft-deletes the provider
func (p *Provider) Delete() {
	p.MarkDeleted()
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewDirectoryEvent(EventTypeProviderDeleted, AggregateTypeProvider, p.ID, p.TenantID, p.FullName()))
}
