package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmailService manages the outgoing email queue
type EmailService struct {
	repo   notification.EmailQueueRepository
	logger *zap.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(repo notification.EmailQueueRepository, logger *zap.Logger) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailService{repo: repo, logger: logger}
}

// Enqueue validates and stores a pending email
func (s *EmailService) Enqueue(ctx context.Context, tenantID uuid.UUID, req EnqueueEmailRequest) (*EmailResponse, error) {
	item, err := s.EnqueueMessage(ctx, tenantID, notification.Message{
		To:          req.To,
		Cc:          req.Cc,
		Subject:     req.Subject,
		HTMLBody:    req.HTMLBody,
		TextBody:    req.TextBody,
		TemplateKey: req.TemplateKey,
		DocumentID:  req.DocumentID,
	})
	if err != nil {
		return nil, err
	}
	resp := ToEmailResponse(item)
	return &resp, nil
}

// EnqueueMessage stores a pending email built by another service
func (s *EmailService) EnqueueMessage(ctx context.Context, tenantID uuid.UUID, msg notification.Message) (*notification.EmailQueueItem, error) {
	item, err := notification.NewEmailQueueItem(tenantID, msg)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue email: %w", err)
	}
	s.logger.Info("Email enqueued",
		zap.String("email_id", item.ID.String()),
		zap.String("template_key", item.TemplateKey),
		zap.Int("recipients", len(item.To)))
	return item, nil
}

// GetByID returns a queued email
func (s *EmailService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*EmailResponse, error) {
	item, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToEmailResponse(item)
	return &resp, nil
}

// List returns queued emails matching the filter
func (s *EmailService) List(ctx context.Context, tenantID uuid.UUID, f EmailListFilter) ([]EmailResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.Status != "" {
		filter = filter.With("status", f.Status)
	}
	if f.TemplateKey != "" {
		filter = filter.With("template_key", f.TemplateKey)
	}
	filter = filter.Normalize()

	items, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list emails: %w", err)
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emails: %w", err)
	}

	out := make([]EmailResponse, len(items))
	for i := range items {
		out[i] = ToEmailResponse(&items[i])
	}
	return out, total, nil
}

// Cancel stops a pending email
func (s *EmailService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*EmailResponse, error) {
	return s.transition(ctx, tenantID, id, (*notification.EmailQueueItem).Cancel)
}

// Retry requeues a failed email
func (s *EmailService) Retry(ctx context.Context, tenantID, id uuid.UUID) (*EmailResponse, error) {
	return s.transition(ctx, tenantID, id, (*notification.EmailQueueItem).Retry)
}

func (s *EmailService) transition(ctx context.Context, tenantID, id uuid.UUID, apply func(*notification.EmailQueueItem) error) (*EmailResponse, error) {
	item, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(item); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update email: %w", err)
	}
	resp := ToEmailResponse(item)
	return &resp, nil
}

func (s *EmailService) find(ctx context.Context, tenantID, id uuid.UUID) (*notification.EmailQueueItem, error) {
	item, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Email not found")
		}
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return item, nil
}
