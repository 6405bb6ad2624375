package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientService handles client operations
type ClientService struct {
	clientRepo    directory.ClientRepository
	insuranceRepo directory.InsuranceRepository
	publisher     shared.EventPublisher
	logger        *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(
	clientRepo directory.ClientRepository,
	insuranceRepo directory.InsuranceRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo:    clientRepo,
		insuranceRepo: insuranceRepo,
		publisher:     publisher,
		logger:        logger,
	}
}

// Create creates a new client
func (s *ClientService) Create(ctx context.Context, tenantID uuid.UUID, req CreateClientRequest) (*ClientResponse, error) {
	client, err := directory.NewClient(tenantID, req.details())
	if err != nil {
		return nil, err
	}
	if req.InsuranceID != nil {
		if err := s.ensureInsurance(ctx, tenantID, *req.InsuranceID); err != nil {
			return nil, err
		}
		client.AssignInsurance(req.InsuranceID, req.MemberNumber)
	}

	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	s.publish(ctx, client)

	s.logger.Info("Client created",
		zap.String("client_id", client.ID.String()),
		zap.String("tenant_id", tenantID.String()))
	resp := ToClientResponse(client)
	return &resp, nil
}

// GetByID returns a client
func (s *ClientService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// List returns a page of clients
func (s *ClientService) List(ctx context.Context, tenantID uuid.UUID, f ClientListFilter) ([]ClientResponse, int64, error) {
	filter := toFilter(f.ListParams)
	if f.InsuranceID != "" {
		insuranceID, err := uuid.Parse(f.InsuranceID)
		if err != nil {
			return nil, 0, shared.InvalidInputf("invalid insurance_id")
		}
		filter.Filters["insurance_id"] = insuranceID
	}

	clients, err := s.clientRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	total, err := s.clientRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	out := make([]ClientResponse, len(clients))
	for i := range clients {
		out[i] = ToClientResponse(&clients[i])
	}
	return out, total, nil
}

// Update replaces the editable fields and the payer assignment
func (s *ClientService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	return s.mutate(ctx, tenantID, id, func(c *directory.Client) error {
		if err := c.Update(req.details()); err != nil {
			return err
		}
		if req.InsuranceID != nil {
			if err := s.ensureInsurance(ctx, tenantID, *req.InsuranceID); err != nil {
				return err
			}
		}
		c.AssignInsurance(req.InsuranceID, req.MemberNumber)
		return nil
	})
}

// Discharge ends services for a client. A nil date means now.
func (s *ClientService) Discharge(ctx context.Context, tenantID, id uuid.UUID, req DischargeClientRequest) (*ClientResponse, error) {
	at := time.Now()
	if req.DischargedAt != nil {
		at = *req.DischargedAt
	}
	return s.mutate(ctx, tenantID, id, func(c *directory.Client) error { return c.Discharge(at) })
}

// Reactivate brings a client back to active
func (s *ClientService) Reactivate(ctx context.Context, tenantID, id uuid.UUID) (*ClientResponse, error) {
	return s.mutate(ctx, tenantID, id, func(c *directory.Client) error { return c.Reactivate() })
}

// Deactivate pauses services for a client
func (s *ClientService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*ClientResponse, error) {
	return s.mutate(ctx, tenantID, id, func(c *directory.Client) error { return c.SetInactive() })
}

// Delete soft-deletes a client
func (s *ClientService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	_, err := s.mutate(ctx, tenantID, id, func(c *directory.Client) error {
		c.Delete()
		return nil
	})
	if err == nil {
		s.logger.Info("Client deleted", zap.String("client_id", id.String()))
	}
	return err
}

func (s *ClientService) mutate(ctx context.Context, tenantID, id uuid.UUID, apply func(*directory.Client) error) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(client); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	s.publish(ctx, client)
	resp := ToClientResponse(client)
	return &resp, nil
}

func (s *ClientService) ensureInsurance(ctx context.Context, tenantID, insuranceID uuid.UUID) error {
	ins, err := s.insuranceRepo.FindByIDForTenant(ctx, tenantID, insuranceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.InvalidInputf("insurance %s not found", insuranceID)
		}
		return err
	}
	if ins.Status != directory.InsuranceStatusActive {
		return shared.InvalidInputf("insurance %s is inactive", ins.Name)
	}
	return nil
}

func (s *ClientService) publish(ctx context.Context, client *directory.Client) {
	if err := shared.PublishAndClear(ctx, s.publisher, client); err != nil {
		s.logger.Warn("Failed to publish client events", zap.String("client_id", client.ID.String()), zap.Error(err))
	}
}

func toFilter(p ListParams) shared.Filter {
	filter := shared.Filter{
		Page:     p.Page,
		PageSize: p.PageSize,
		OrderBy:  p.OrderBy,
		OrderDir: p.OrderDir,
		Search:   p.Search,
	}.Normalize()
	if p.Status != "" {
		filter.Filters["status"] = p.Status
	}
	return filter
}
