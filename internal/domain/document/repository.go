package document

import (
	"context"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence for form documents.
// Filter keys: "kind", "owner_id", "status".
type Repository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FormDocument, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]FormDocument, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, doc *FormDocument) error
}
