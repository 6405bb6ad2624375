package billing

import (
	"context"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository defines persistence for invoices and their lines.
// Filter keys: "client_id", "insurance_id", "status", "issue_from", "issue_to".
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Save persists the header and replaces the line set
	Save(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	// AttachDocument sets document_id alone; saves never write that column
	AttachDocument(ctx context.Context, tenantID, id, documentID uuid.UUID) error
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// CommunityClassRepository defines persistence for community classes.
// Filter keys: "status", "instructor_id", "scheduled_from", "scheduled_to".
type CommunityClassRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CommunityClass, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CommunityClass, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Save persists the class and replaces its attendee set
	Save(ctx context.Context, class *CommunityClass) error
}

// CommunityInvoiceRepository defines persistence for community invoices.
// Filter keys: "class_id", "client_id", "status".
type CommunityInvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CommunityInvoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CommunityInvoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// FindBilledClientIDs returns clients that already have a non-void invoice for the class
	FindBilledClientIDs(ctx context.Context, tenantID, classID uuid.UUID) ([]uuid.UUID, error)
	Save(ctx context.Context, invoice *CommunityInvoice) error
	AttachDocument(ctx context.Context, tenantID, id, documentID uuid.UUID) error
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
