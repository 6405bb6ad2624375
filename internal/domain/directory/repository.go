package directory

import (
	"context"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientRepository defines persistence for clients.
// Filter keys: "status", "insurance_id".
type ClientRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Client, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Client, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	CountActiveByInsurance(ctx context.Context, tenantID, insuranceID uuid.UUID) (int64, error)
	Save(ctx context.Context, client *Client) error
}

// ProviderRepository defines persistence for providers.
// Filter keys: "status", "credential".
type ProviderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Provider, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Provider, error)
	FindByNPI(ctx context.Context, tenantID uuid.UUID, npi string) (*Provider, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Provider, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, provider *Provider) error
}

// InsuranceRepository defines persistence for payers.
// Filter keys: "status".
type InsuranceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Insurance, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Insurance, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByPayerID(ctx context.Context, tenantID uuid.UUID, payerID string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, insurance *Insurance) error
}
