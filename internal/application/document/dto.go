package document

import (
	"io"
	"time"

	"github.com/carehours/backend/internal/domain/document"
	"github.com/google/uuid"
)

// GenerateDocumentRequest asks for a PDF of a business record
type GenerateDocumentRequest struct {
	Kind    string    `json:"kind" binding:"required,oneof=invoice community_invoice timesheet payroll_summary"`
	OwnerID uuid.UUID `json:"owner_id" binding:"required"`
}

// DocumentListFilter filters the document list
type DocumentListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Kind     string `form:"kind" binding:"omitempty,oneof=invoice community_invoice timesheet payroll_summary"`
	OwnerID  string `form:"owner_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=pending generated failed"`
}

// DocumentResponse represents a generated document
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	OwnerType   string     `json:"owner_type"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Title       string     `json:"title"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DownloadResult carries either a presigned URL or an open body. The caller
// closes Body when it is set.
type DownloadResult struct {
	URL         string
	ExpiresAt   time.Time
	Body        io.ReadCloser
	Size        int64
	FileName    string
	ContentType string
}

// Attachment is a document's content loaded into memory
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ToDocumentResponse converts a domain document to a response DTO
func ToDocumentResponse(d *document.FormDocument) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		Kind:        string(d.Kind),
		OwnerType:   d.OwnerType,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		Status:      string(d.Status),
		Error:       d.Error,
		GeneratedAt: d.GeneratedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
