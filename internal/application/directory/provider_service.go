package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProviderService handles provider operations
type ProviderService struct {
	providerRepo directory.ProviderRepository
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewProviderService creates a new provider service
func NewProviderService(providerRepo directory.ProviderRepository, publisher shared.EventPublisher, logger *zap.Logger) *ProviderService {
	return &ProviderService{providerRepo: providerRepo, publisher: publisher, logger: logger}
}

// Create creates a new provider. Emails are unique per tenant.
func (s *ProviderService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProviderRequest) (*ProviderResponse, error) {
	if err := s.ensureUniqueEmail(ctx, tenantID, req.Email, nil); err != nil {
		return nil, err
	}
	provider, err := directory.NewProvider(tenantID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.providerRepo.Save(ctx, provider); err != nil {
		return nil, fmt.Errorf("failed to save provider: %w", err)
	}
	s.publish(ctx, provider)

	s.logger.Info("Provider created",
		zap.String("provider_id", provider.ID.String()),
		zap.String("tenant_id", tenantID.String()))
	resp := ToProviderResponse(provider)
	return &resp, nil
}

// GetByID returns a provider
func (s *ProviderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ProviderResponse, error) {
	provider, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProviderResponse(provider)
	return &resp, nil
}

// List returns a page of providers
func (s *ProviderService) List(ctx context.Context, tenantID uuid.UUID, f ProviderListFilter) ([]ProviderResponse, int64, error) {
	filter := toFilter(f.ListParams)
	if f.Credential != "" {
		filter.Filters["credential"] = strings.ToUpper(f.Credential)
	}

	providers, err := s.providerRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list providers: %w", err)
	}
	total, err := s.providerRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count providers: %w", err)
	}

	out := make([]ProviderResponse, len(providers))
	for i := range providers {
		out[i] = ToProviderResponse(&providers[i])
	}
	return out, total, nil
}

// Update replaces the editable fields
func (s *ProviderService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateProviderRequest) (*ProviderResponse, error) {
	if err := s.ensureUniqueEmail(ctx, tenantID, req.Email, &id); err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, id, func(p *directory.Provider) error { return p.Update(req.details()) })
}

// Activate marks a provider active
func (s *ProviderService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*ProviderResponse, error) {
	return s.mutate(ctx, tenantID, id, func(p *directory.Provider) error { return p.Activate() })
}

// Deactivate marks a provider inactive
func (s *ProviderService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*ProviderResponse, error) {
	return s.mutate(ctx, tenantID, id, func(p *directory.Provider) error { return p.Deactivate() })
}

// Delete soft-deletes a provider
func (s *ProviderService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	_, err := s.mutate(ctx, tenantID, id, func(p *directory.Provider) error {
		p.Delete()
		return nil
	})
	return err
}

func (s *ProviderService) mutate(ctx context.Context, tenantID, id uuid.UUID, apply func(*directory.Provider) error) (*ProviderResponse, error) {
	provider, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(provider); err != nil {
		return nil, err
	}
	if err := s.providerRepo.Save(ctx, provider); err != nil {
		return nil, fmt.Errorf("failed to save provider: %w", err)
	}
	s.publish(ctx, provider)
	resp := ToProviderResponse(provider)
	return &resp, nil
}

func (s *ProviderService) ensureUniqueEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	exists, err := s.providerRepo.ExistsByEmail(ctx, tenantID, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check provider email: %w", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A provider with this email already exists")
	}
	return nil
}

func (s *ProviderService) publish(ctx context.Context, provider *directory.Provider) {
	if err := shared.PublishAndClear(ctx, s.publisher, provider); err != nil {
		s.logger.Warn("Failed to publish provider events", zap.String("provider_id", provider.ID.String()), zap.Error(err))
	}
}
