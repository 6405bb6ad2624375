package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/carehours/backend/internal/domain/document"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/printing"
	"github.com/carehours/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage stores generated files
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	Download(ctx context.Context, storageKey string) (io.ReadCloser, int64, error)
	DeleteObject(ctx context.Context, storageKey string) error
}

// URLSigner is implemented by storages that can hand out direct download links
type URLSigner interface {
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// PDFGenerator renders a named template to PDF bytes
type PDFGenerator interface {
	Generate(ctx context.Context, name string, data any, title string) ([]byte, error)
}

// DocumentService generates, serves and deletes form documents
type DocumentService struct {
	repo      document.Repository
	sources   Sources
	generator PDFGenerator
	storage   ObjectStorage
	publisher shared.EventPublisher
	company   printing.Company
	urlExpiry time.Duration
	logger    *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	repo document.Repository,
	sources Sources,
	generator PDFGenerator,
	storage ObjectStorage,
	publisher shared.EventPublisher,
	company printing.Company,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		repo:      repo,
		sources:   sources,
		generator: generator,
		storage:   storage,
		publisher: publisher,
		company:   company,
		urlExpiry: 15 * time.Minute,
		logger:    logger,
	}
}

// Generate renders the owner record to PDF and uploads it. Render and upload
// failures are not returned as errors: the document is persisted as failed
// and returned with the reason.
func (s *DocumentService) Generate(ctx context.Context, tenantID uuid.UUID, req GenerateDocumentRequest) (*DocumentResponse, error) {
	kind := document.Kind(req.Kind)
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown document kind: %s", req.Kind))
	}

	src, err := s.sources.load(ctx, tenantID, kind, req.OwnerID, s.company)
	if err != nil {
		return nil, err
	}

	doc, err := document.NewFormDocument(tenantID, kind, req.OwnerID, src.title)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(
		zap.String("document_id", doc.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("owner_id", req.OwnerID.String()))

	if err := s.render(ctx, doc, src); err != nil {
		log.Warn("Document generation failed", zap.Error(err))
		doc.MarkFailed(err.Error())
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		if doc.Status == document.StatusGenerated {
			if delErr := s.storage.DeleteObject(ctx, doc.StorageKey); delErr != nil {
				log.Warn("Failed to remove orphaned document object", zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	if doc.Status == document.StatusGenerated && src.attach != nil {
		if err := src.attach(ctx, doc.ID); err != nil {
			log.Warn("Failed to link document to owner", zap.Error(err))
		}
	}

	if err := shared.PublishAndClear(ctx, s.publisher, doc); err != nil {
		log.Warn("Failed to publish document events", zap.Error(err))
	}

	log.Info("Document processed", zap.String("status", string(doc.Status)), zap.Int64("size", doc.Size))
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

func (s *DocumentService) render(ctx context.Context, doc *document.FormDocument, src *source) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "document", "render",
		telemetry.AttrTenantID.String(doc.TenantID.String()),
		telemetry.AttrDocumentKind.String(string(doc.Kind)),
		telemetry.AttrOwnerID.String(doc.OwnerID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	pdf, err := s.generator.Generate(ctx, string(doc.Kind), src.view, doc.Title)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := s.storage.Upload(ctx, doc.StorageKey, pdf, doc.ContentType); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return doc.MarkGenerated(int64(len(pdf)))
}

// GetByID returns a document
func (s *DocumentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// List returns documents matching the filter
func (s *DocumentService) List(ctx context.Context, tenantID uuid.UUID, f DocumentListFilter) ([]DocumentResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.Kind != "" {
		filter = filter.With("kind", f.Kind)
	}
	if f.Status != "" {
		filter = filter.With("status", f.Status)
	}
	if f.OwnerID != "" {
		ownerID, err := uuid.Parse(f.OwnerID)
		if err != nil {
			return nil, 0, shared.InvalidInputf("Invalid owner ID")
		}
		filter = filter.With("owner_id", ownerID)
	}
	filter = filter.Normalize()

	docs, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = ToDocumentResponse(&docs[i])
	}
	return items, total, nil
}

// Download returns a presigned URL when the storage supports it and an open
// body otherwise
func (s *DocumentService) Download(ctx context.Context, tenantID, id uuid.UUID) (*DownloadResult, error) {
	doc, err := s.findAvailable(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	result := &DownloadResult{FileName: doc.FileName, ContentType: doc.ContentType, Size: doc.Size}

	if signer, ok := s.storage.(URLSigner); ok {
		url, expiresAt, err := signer.GenerateDownloadURL(ctx, doc.StorageKey, s.urlExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to sign download URL: %w", err)
		}
		result.URL = url
		result.ExpiresAt = expiresAt
		return result, nil
	}

	body, size, err := s.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	result.Body = body
	result.Size = size
	return result, nil
}

// LoadAttachment reads a generated document fully, for email attachments
func (s *DocumentService) LoadAttachment(ctx context.Context, tenantID, id uuid.UUID) (*Attachment, error) {
	doc, err := s.findAvailable(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	body, _, err := s.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return &Attachment{FileName: doc.FileName, ContentType: doc.ContentType, Data: data}, nil
}

// Delete removes the stored object and soft-deletes the record
func (s *DocumentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	doc, err := s.find(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if doc.Status == document.StatusGenerated {
		if err := s.storage.DeleteObject(ctx, doc.StorageKey); err != nil {
			return fmt.Errorf("failed to delete document object: %w", err)
		}
	}

	doc.Delete()
	if err := s.repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := shared.PublishAndClear(ctx, s.publisher, doc); err != nil {
		s.logger.Warn("Failed to publish document events", zap.Error(err))
	}
	return nil
}

func (s *DocumentService) find(ctx context.Context, tenantID, id uuid.UUID) (*document.FormDocument, error) {
	doc, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Document not found")
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *DocumentService) findAvailable(ctx context.Context, tenantID, id uuid.UUID) (*document.FormDocument, error) {
	doc, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsAvailable() {
		return nil, shared.InvalidStatef("Document is %s and cannot be downloaded", doc.Status)
	}
	return doc, nil
}
