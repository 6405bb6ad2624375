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

// InsuranceService handles payer operations
type InsuranceService struct {
	insuranceRepo directory.InsuranceRepository
	clientRepo    directory.ClientRepository
	publisher     shared.EventPublisher
	logger        *zap.Logger
}

// NewInsuranceService creates a new insurance service
func NewInsuranceService(
	insuranceRepo directory.InsuranceRepository,
	clientRepo directory.ClientRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *InsuranceService {
	return &InsuranceService{
		insuranceRepo: insuranceRepo,
		clientRepo:    clientRepo,
		publisher:     publisher,
		logger:        logger,
	}
}

// Create creates a new payer. Payer IDs are unique per tenant.
func (s *InsuranceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInsuranceRequest) (*InsuranceResponse, error) {
	if err := s.ensureUniquePayerID(ctx, tenantID, req.PayerID, nil); err != nil {
		return nil, err
	}
	ins, err := directory.NewInsurance(tenantID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.insuranceRepo.Save(ctx, ins); err != nil {
		return nil, fmt.Errorf("failed to save insurance: %w", err)
	}
	s.publish(ctx, ins)

	s.logger.Info("Insurance created",
		zap.String("insurance_id", ins.ID.String()),
		zap.String("payer_id", ins.PayerID))
	resp := ToInsuranceResponse(ins)
	return &resp, nil
}

// GetByID returns a payer
func (s *InsuranceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InsuranceResponse, error) {
	ins, err := s.insuranceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInsuranceResponse(ins)
	return &resp, nil
}

// List returns a page of payers
func (s *InsuranceService) List(ctx context.Context, tenantID uuid.UUID, f ListParams) ([]InsuranceResponse, int64, error) {
	filter := toFilter(f)
	list, err := s.insuranceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list insurances: %w", err)
	}
	total, err := s.insuranceRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count insurances: %w", err)
	}

	out := make([]InsuranceResponse, len(list))
	for i := range list {
		out[i] = ToInsuranceResponse(&list[i])
	}
	return out, total, nil
}

// Update replaces the editable fields and optionally the status
func (s *InsuranceService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInsuranceRequest) (*InsuranceResponse, error) {
	if err := s.ensureUniquePayerID(ctx, tenantID, req.PayerID, &id); err != nil {
		return nil, err
	}
	ins, err := s.insuranceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ins.Update(req.details()); err != nil {
		return nil, err
	}
	if req.Status != "" {
		if err := ins.SetStatus(directory.InsuranceStatus(req.Status)); err != nil {
			return nil, err
		}
	}
	if err := s.insuranceRepo.Save(ctx, ins); err != nil {
		return nil, fmt.Errorf("failed to save insurance: %w", err)
	}
	s.publish(ctx, ins)
	resp := ToInsuranceResponse(ins)
	return &resp, nil
}

// Delete soft-deletes a payer that no active client still references
func (s *InsuranceService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	ins, err := s.insuranceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	active, err := s.clientRepo.CountActiveByInsurance(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to count clients: %w", err)
	}
	if active > 0 {
		return shared.InvalidStatef("Insurance %s still has %d active clients", ins.Name, active)
	}

	ins.Delete()
	if err := s.insuranceRepo.Save(ctx, ins); err != nil {
		return fmt.Errorf("failed to delete insurance: %w", err)
	}
	s.publish(ctx, ins)
	s.logger.Info("Insurance deleted", zap.String("insurance_id", id.String()))
	return nil
}

func (s *InsuranceService) ensureUniquePayerID(ctx context.Context, tenantID uuid.UUID, payerID string, excludeID *uuid.UUID) error {
	payerID = strings.ToUpper(strings.TrimSpace(payerID))
	if payerID == "" {
		return nil
	}
	exists, err := s.insuranceRepo.ExistsByPayerID(ctx, tenantID, payerID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check payer id: %w", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "An insurance with this payer ID already exists")
	}
	return nil
}

func (s *InsuranceService) publish(ctx context.Context, ins *directory.Insurance) {
	if err := shared.PublishAndClear(ctx, s.publisher, ins); err != nil {
		s.logger.Warn("Failed to publish insurance events", zap.String("insurance_id", ins.ID.String()), zap.Error(err))
	}
}
