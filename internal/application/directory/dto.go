package directory

import (
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListParams are the paging and sorting query parameters shared by the list endpoints
type ListParams struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ClientListFilter filters the client list
type ClientListFilter struct {
	ListParams
	InsuranceID string `form:"insurance_id" binding:"omitempty,uuid"`
}

// CreateClientRequest creates a client
type CreateClientRequest struct {
	FirstName    string          `json:"first_name" binding:"required,max=100"`
	LastName     string          `json:"last_name" binding:"required,max=100"`
	DateOfBirth  *time.Time      `json:"date_of_birth"`
	Email        string          `json:"email" binding:"omitempty,email,max=200"`
	Phone        string          `json:"phone" binding:"max=50"`
	Address      string          `json:"address" binding:"max=500"`
	InsuranceID  *uuid.UUID      `json:"insurance_id"`
	MemberNumber string          `json:"member_number" binding:"max=100"`
	DefaultRate  decimal.Decimal `json:"default_rate" binding:"money"`
	Notes        string          `json:"notes" binding:"max=2000"`
}

// UpdateClientRequest replaces the editable fields of a client
type UpdateClientRequest = CreateClientRequest

// DischargeClientRequest ends services for a client
type DischargeClientRequest struct {
	DischargedAt *time.Time `json:"discharged_at"`
}

// ClientResponse represents a client
type ClientResponse struct {
	ID           uuid.UUID       `json:"id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	FullName     string          `json:"full_name"`
	DateOfBirth  *time.Time      `json:"date_of_birth,omitempty"`
	Email        string          `json:"email,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Address      string          `json:"address,omitempty"`
	InsuranceID  *uuid.UUID      `json:"insurance_id,omitempty"`
	MemberNumber string          `json:"member_number,omitempty"`
	DefaultRate  decimal.Decimal `json:"default_rate"`
	Status       string          `json:"status"`
	DischargedAt *time.Time      `json:"discharged_at,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// CreateProviderRequest creates a provider
type CreateProviderRequest struct {
	FirstName  string          `json:"first_name" binding:"required,max=100"`
	LastName   string          `json:"last_name" binding:"required,max=100"`
	Email      string          `json:"email" binding:"required,email,max=200"`
	Phone      string          `json:"phone" binding:"max=50"`
	Credential string          `json:"credential" binding:"max=50"`
	NPI        string          `json:"npi" binding:"omitempty,len=10,numeric"`
	PayRate    decimal.Decimal `json:"pay_rate" binding:"money"`
}

// UpdateProviderRequest replaces the editable fields of a provider
type UpdateProviderRequest = CreateProviderRequest

// ProviderListFilter filters the provider list
type ProviderListFilter struct {
	ListParams
	Credential string `form:"credential"`
}

// ProviderResponse represents a provider
type ProviderResponse struct {
	ID         uuid.UUID       `json:"id"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	FullName   string          `json:"full_name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone,omitempty"`
	Credential string          `json:"credential,omitempty"`
	NPI        string          `json:"npi,omitempty"`
	PayRate    decimal.Decimal `json:"pay_rate"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int             `json:"version"`
}

// CreateInsuranceRequest creates a payer
type CreateInsuranceRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	PayerID     string          `json:"payer_id" binding:"required,max=50"`
	Email       string          `json:"email" binding:"omitempty,email,max=200"`
	Phone       string          `json:"phone" binding:"max=50"`
	Address     string          `json:"address" binding:"max=500"`
	RatePerUnit decimal.Decimal `json:"rate_per_unit" binding:"money"`
}

// UpdateInsuranceRequest replaces the editable fields of a payer
type UpdateInsuranceRequest struct {
	CreateInsuranceRequest
	Status string `json:"status" binding:"omitempty,oneof=active inactive"`
}

// InsuranceResponse represents a payer
type InsuranceResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	PayerID     string          `json:"payer_id"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Address     string          `json:"address,omitempty"`
	RatePerUnit decimal.Decimal `json:"rate_per_unit"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToClientResponse converts a domain client
func ToClientResponse(c *directory.Client) ClientResponse {
	return ClientResponse{
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		FullName:     c.FullName(),
		DateOfBirth:  c.DateOfBirth,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		InsuranceID:  c.InsuranceID,
		MemberNumber: c.MemberNumber,
		DefaultRate:  c.DefaultRate,
		Status:       string(c.Status),
		DischargedAt: c.DischargedAt,
		Notes:        c.Notes,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Version:      c.Version,
	}
}

// ToProviderResponse converts a domain provider
func ToProviderResponse(p *directory.Provider) ProviderResponse {
	return ProviderResponse{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		FullName:   p.FullName(),
		Email:      p.Email,
		Phone:      p.Phone,
		Credential: p.Credential,
		NPI:        p.NPI,
		PayRate:    p.PayRate,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		Version:    p.Version,
	}
}

// ToInsuranceResponse converts a domain payer
func ToInsuranceResponse(i *directory.Insurance) InsuranceResponse {
	return InsuranceResponse{
		ID:          i.ID,
		Name:        i.Name,
		PayerID:     i.PayerID,
		Email:       i.Email,
		Phone:       i.Phone,
		Address:     i.Address,
		RatePerUnit: i.RatePerUnit,
		Status:      string(i.Status),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		Version:     i.Version,
	}
}

func (r CreateClientRequest) details() directory.ClientDetails {
	return directory.ClientDetails{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		DateOfBirth:  r.DateOfBirth,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		MemberNumber: r.MemberNumber,
		DefaultRate:  r.DefaultRate,
		Notes:        r.Notes,
	}
}

func (r CreateProviderRequest) details() directory.ProviderDetails {
	return directory.ProviderDetails{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Credential: r.Credential,
		NPI:        r.NPI,
		PayRate:    r.PayRate,
	}
}

func (r CreateInsuranceRequest) details() directory.InsuranceDetails {
	return directory.InsuranceDetails{
		Name:        r.Name,
		PayerID:     r.PayerID,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		RatePerUnit: r.RatePerUnit,
	}
}
