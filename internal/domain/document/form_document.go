package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Kind identifies what a document renders
type Kind string

const (
	KindInvoice          Kind = "invoice"
	KindCommunityInvoice Kind = "community_invoice"
	KindTimesheet        Kind = "timesheet"
	KindPayrollSummary   Kind = "payroll_summary"
)

// IsValid checks if the kind is a known value
func (k Kind) IsValid() bool {
	switch k {
	case KindInvoice, KindCommunityInvoice, KindTimesheet, KindPayrollSummary:
		return true
	}
	return false
}

// Status of document generation
type Status string

const (
	StatusPending   Status = "pending"
	StatusGenerated Status = "generated"
	StatusFailed    Status = "failed"
)

// ContentTypePDF is the only content type produced
const ContentTypePDF = "application/pdf"

// FormDocument is a generated PDF stored in object storage
type FormDocument struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Kind        Kind
	OwnerType   string
	OwnerID     uuid.UUID
	Title       string
	FileName    string
	ContentType string
	StorageKey  string
	Size        int64
	Status      Status
	Error       string
	GeneratedAt *time.Time
}

// NewFormDocument creates a pending document for an owner
func NewFormDocument(tenantID uuid.UUID, kind Kind, ownerID uuid.UUID, title string) (*FormDocument, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown document kind: %s", kind))
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	d := &FormDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		OwnerType:           string(kind),
		OwnerID:             ownerID,
		Title:               strings.TrimSpace(title),
		ContentType:         ContentTypePDF,
		Status:              StatusPending,
	}
	d.FileName = fileName(d.Title, d.ID)
	d.StorageKey = fmt.Sprintf("%s/%s/%s/%s.pdf", tenantID, kind, ownerID, d.ID)
	return d, nil
}

// MarkGenerated records a successful render and upload
func (d *FormDocument) MarkGenerated(size int64) error {
	if d.Status != StatusPending {
		return shared.InvalidStatef("Cannot complete document in %s status", d.Status)
	}
	now := time.Now()
	d.Status = StatusGenerated
	d.Size = size
	d.GeneratedAt = &now
	d.Error = ""
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentEvent(EventTypeDocumentGenerated, d))
	return nil
}

// MarkFailed records a render or upload failure
func (d *FormDocument) MarkFailed(reason string) {
	d.Status = StatusFailed
	d.Error = reason
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentEvent(EventTypeDocumentFailed, d))
}

// IsAvailable reports whether the file can be downloaded
func (d *FormDocument) IsAvailable() bool {
	return d.Status == StatusGenerated && !d.IsDeleted()
}

// Delete soft-deletes the record; callers remove the stored object
func (d *FormDocument) Delete() {
	d.MarkDeleted()
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentEvent(EventTypeDocumentDeleted, d))
}

func fileName(title string, id uuid.UUID) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, title)
	if base == "" {
		base = id.String()
	}
	return base + ".pdf"
}
