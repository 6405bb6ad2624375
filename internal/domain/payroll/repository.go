package payroll

import (
	"context"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportRepository defines persistence for payroll imports.
// Filter keys: "status".
type ImportRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PayrollImport, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PayrollImport, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Save persists the import and replaces its rows
	Save(ctx context.Context, imp *PayrollImport) error
	SaveWithLock(ctx context.Context, imp *PayrollImport) error
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
