package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/document"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommunityService handles community classes and their per-attendee invoices
type CommunityService struct {
	classRepo    billing.CommunityClassRepository
	invoiceRepo  billing.CommunityInvoiceRepository
	clientRepo   directory.ClientRepository
	providerRepo directory.ProviderRepository
	txScope      TransactionScope
	delivery     deliverer
	opts         Options
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewCommunityService creates a new community service
func NewCommunityService(
	classRepo billing.CommunityClassRepository,
	invoiceRepo billing.CommunityInvoiceRepository,
	clientRepo directory.ClientRepository,
	providerRepo directory.ProviderRepository,
	txScope TransactionScope,
	docs DocumentGenerator,
	mailer Mailer,
	opts Options,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *CommunityService {
	return &CommunityService{
		classRepo:    classRepo,
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		providerRepo: providerRepo,
		txScope:      txScope,
		delivery:     deliverer{docs: docs, mailer: mailer, logger: logger},
		opts:         opts,
		publisher:    publisher,
		logger:       logger,
	}
}

// =============================================================================
// Classes
// =============================================================================

// CreateClass schedules a class
func (s *CommunityService) CreateClass(ctx context.Context, tenantID uuid.UUID, req CreateClassRequest) (*ClassResponse, error) {
	if err := s.ensureInstructor(ctx, tenantID, req.InstructorID); err != nil {
		return nil, err
	}
	class, err := billing.NewCommunityClass(tenantID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.classRepo.Save(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to save class: %w", err)
	}
	s.publish(ctx, class)
	s.logger.Info("Community class created", zap.String("class_id", class.ID.String()), zap.String("name", class.Name))
	resp := ToClassResponse(class)
	return &resp, nil
}

// GetClass returns a class with its attendees
func (s *CommunityService) GetClass(ctx context.Context, tenantID, id uuid.UUID) (*ClassResponse, error) {
	class, err := s.classRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToClassResponse(class)
	return &resp, nil
}

// ListClasses returns a page of classes
func (s *CommunityService) ListClasses(ctx context.Context, tenantID uuid.UUID, f ClassListFilter) ([]ClassResponse, int64, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalize()
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.InstructorID != "" {
		id, err := uuid.Parse(f.InstructorID)
		if err != nil {
			return nil, 0, shared.InvalidInputf("invalid instructor_id")
		}
		filter.Filters["instructor_id"] = id
	}
	if f.ScheduledFrom != nil {
		filter.Filters["scheduled_from"] = *f.ScheduledFrom
	}
	if f.ScheduledTo != nil {
		filter.Filters["scheduled_to"] = *f.ScheduledTo
	}

	classes, err := s.classRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list classes: %w", err)
	}
	total, err := s.classRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count classes: %w", err)
	}
	out := make([]ClassResponse, len(classes))
	for i := range classes {
		out[i] = ToClassResponse(&classes[i])
	}
	return out, total, nil
}

// UpdateClass replaces the details of a scheduled class
func (s *CommunityService) UpdateClass(ctx context.Context, tenantID, id uuid.UUID, req UpdateClassRequest) (*ClassResponse, error) {
	if err := s.ensureInstructor(ctx, tenantID, req.InstructorID); err != nil {
		return nil, err
	}
	return s.mutateClass(ctx, tenantID, id, func(c *billing.CommunityClass) error { return c.Update(req.details()) })
}

// Enroll adds a client to a scheduled class
func (s *CommunityService) Enroll(ctx context.Context, tenantID, id uuid.UUID, req EnrollRequest) (*ClassResponse, error) {
	client, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, req.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.InvalidInputf("client %s not found", req.ClientID)
		}
		return nil, err
	}
	if !client.IsBillable() {
		return nil, shared.InvalidStatef("Client %s is not active", client.FullName())
	}
	return s.mutateClass(ctx, tenantID, id, func(c *billing.CommunityClass) error { return c.Enroll(client.ID) })
}

// Unenroll removes a client from a scheduled class
func (s *CommunityService) Unenroll(ctx context.Context, tenantID, id, clientID uuid.UUID) (*ClassResponse, error) {
	return s.mutateClass(ctx, tenantID, id, func(c *billing.CommunityClass) error { return c.Unenroll(clientID) })
}

// CompleteClass marks a class as held
func (s *CommunityService) CompleteClass(ctx context.Context, tenantID, id uuid.UUID) (*ClassResponse, error) {
	return s.mutateClass(ctx, tenantID, id, func(c *billing.CommunityClass) error { return c.Complete() })
}

// CancelClass calls a class off
func (s *CommunityService) CancelClass(ctx context.Context, tenantID, id uuid.UUID) (*ClassResponse, error) {
	return s.mutateClass(ctx, tenantID, id, func(c *billing.CommunityClass) error { return c.Cancel() })
}

// DeleteClass soft-deletes a class that has not been held
func (s *CommunityService) DeleteClass(ctx context.Context, tenantID, id uuid.UUID) error {
	_, err := s.mutateClass(ctx, tenantID, id, func(c *billing.CommunityClass) error { return c.Delete() })
	return err
}

func (s *CommunityService) mutateClass(ctx context.Context, tenantID, id uuid.UUID, apply func(*billing.CommunityClass) error) (*ClassResponse, error) {
	class, err := s.classRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(class); err != nil {
		return nil, err
	}
	if err := s.classRepo.Save(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to save class: %w", err)
	}
	s.publish(ctx, class)
	resp := ToClassResponse(class)
	return &resp, nil
}

func (s *CommunityService) ensureInstructor(ctx context.Context, tenantID uuid.UUID, instructorID *uuid.UUID) error {
	if instructorID == nil || s.providerRepo == nil {
		return nil
	}
	p, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, *instructorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.InvalidInputf("instructor %s not found", *instructorID)
		}
		return err
	}
	if !p.IsActive() {
		return shared.InvalidInputf("instructor %s is not active", p.FullName())
	}
	return nil
}

// =============================================================================
// Community invoices
// =============================================================================

// GenerateInvoices creates one draft per attendee of a completed class that
// does not already hold a non-void invoice for it
func (s *CommunityService) GenerateInvoices(ctx context.Context, tenantID, classID uuid.UUID) ([]CommunityInvoiceResponse, error) {
	class, err := s.classRepo.FindByIDForTenant(ctx, tenantID, classID)
	if err != nil {
		return nil, err
	}
	if class.Status != billing.ClassStatusCompleted {
		return nil, shared.InvalidStatef("Cannot invoice class in %s status", class.Status)
	}

	emails := make(map[uuid.UUID]string, len(class.AttendeeIDs))
	if len(class.AttendeeIDs) > 0 {
		clients, err := s.clientRepo.FindByIDs(ctx, tenantID, class.AttendeeIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load attendees: %w", err)
		}
		for _, c := range clients {
			emails[c.ID] = c.Email
		}
	}

	created := make([]*billing.CommunityInvoice, 0, len(class.AttendeeIDs))
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.CommunityInvoiceRepo()
		billed, err := repo.FindBilledClientIDs(ctx, tenantID, class.ID)
		if err != nil {
			return fmt.Errorf("failed to load billed attendees: %w", err)
		}
		skip := make(map[uuid.UUID]bool, len(billed))
		for _, id := range billed {
			skip[id] = true
		}

		for _, clientID := range class.AttendeeIDs {
			if skip[clientID] {
				continue
			}
			number, err := repo.GenerateNumber(ctx, tenantID)
			if err != nil {
				return fmt.Errorf("failed to generate invoice number: %w", err)
			}
			ci, err := billing.NewCommunityInvoice(number, class, clientID)
			if err != nil {
				return err
			}
			if err := ci.SetBillToEmail(emails[clientID]); err != nil {
				return err
			}
			if err := repo.Save(ctx, ci); err != nil {
				return fmt.Errorf("failed to save community invoice: %w", err)
			}
			created = append(created, ci)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]CommunityInvoiceResponse, len(created))
	for i, ci := range created {
		s.publish(ctx, ci)
		out[i] = ToCommunityInvoiceResponse(ci)
	}
	s.logger.Info("Community invoices generated",
		zap.String("class_id", class.ID.String()),
		zap.Int("attendees", len(class.AttendeeIDs)),
		zap.Int("created", len(created)))
	return out, nil
}

// GetInvoice returns a community invoice
func (s *CommunityService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*CommunityInvoiceResponse, error) {
	ci, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCommunityInvoiceResponse(ci)
	return &resp, nil
}

// ListInvoices returns a page of community invoices
func (s *CommunityService) ListInvoices(ctx context.Context, tenantID uuid.UUID, f CommunityInvoiceListFilter) ([]CommunityInvoiceResponse, int64, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalize()
	for key, raw := range map[string]string{"class_id": f.ClassID, "client_id": f.ClientID} {
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, 0, shared.InvalidInputf("invalid %s", key)
		}
		filter.Filters[key] = id
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}

	list, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list community invoices: %w", err)
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count community invoices: %w", err)
	}
	out := make([]CommunityInvoiceResponse, len(list))
	for i := range list {
		out[i] = ToCommunityInvoiceResponse(&list[i])
	}
	return out, total, nil
}

// SendInvoice issues a draft community invoice, renders its PDF and queues the email
func (s *CommunityService) SendInvoice(ctx context.Context, tenantID, id uuid.UUID) (*SendCommunityInvoiceResponse, error) {
	ci, err := s.mutateInvoice(ctx, tenantID, id, func(ci *billing.CommunityInvoice) error {
		return ci.Send(today(), s.opts.PaymentTermsDays)
	})
	if err != nil {
		return nil, err
	}

	delivery := s.delivery.deliver(ctx, tenantID, deliveryRequest{
		kind:    document.KindCommunityInvoice,
		ownerID: ci.ID,
		to:      ci.BillToEmail,
		subject: fmt.Sprintf("Invoice %s from %s", ci.Number, s.opts.CompanyName),
		body: fmt.Sprintf("Please find attached invoice %s for %s hours of community class, totalling %s %s.\n\n%s",
			ci.Number, ci.Hours.StringFixed(2), ci.Amount.StringFixed(2), s.opts.Currency, s.opts.CompanyName),
		templateKey: "community_invoice_sent",
	})
	if delivery.DocumentID != nil {
		if fresh, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id); err == nil {
			ci = fresh
		}
	}
	return &SendCommunityInvoiceResponse{Invoice: ToCommunityInvoiceResponse(ci), Delivery: delivery}, nil
}

// RecordInvoicePayment applies a payment to a sent community invoice
func (s *CommunityService) RecordInvoicePayment(ctx context.Context, tenantID, id uuid.UUID, req RecordPaymentRequest) (*CommunityInvoiceResponse, error) {
	ci, err := s.mutateInvoice(ctx, tenantID, id, func(ci *billing.CommunityInvoice) error {
		return ci.RecordPayment(req.Amount)
	})
	if err != nil {
		return nil, err
	}
	resp := ToCommunityInvoiceResponse(ci)
	return &resp, nil
}

// VoidInvoice cancels a draft or sent community invoice
func (s *CommunityService) VoidInvoice(ctx context.Context, tenantID, id uuid.UUID, req VoidRequest) (*CommunityInvoiceResponse, error) {
	ci, err := s.mutateInvoice(ctx, tenantID, id, func(ci *billing.CommunityInvoice) error {
		return ci.Void(req.Reason)
	})
	if err != nil {
		return nil, err
	}
	resp := ToCommunityInvoiceResponse(ci)
	return &resp, nil
}

// DeleteInvoice soft-deletes a draft community invoice
func (s *CommunityService) DeleteInvoice(ctx context.Context, tenantID, id uuid.UUID) error {
	_, err := s.mutateInvoice(ctx, tenantID, id, func(ci *billing.CommunityInvoice) error {
		return ci.Delete()
	})
	return err
}

func (s *CommunityService) mutateInvoice(ctx context.Context, tenantID, id uuid.UUID, apply func(*billing.CommunityInvoice) error) (*billing.CommunityInvoice, error) {
	ci, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(ci); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, ci); err != nil {
		return nil, fmt.Errorf("failed to save community invoice: %w", err)
	}
	s.publish(ctx, ci)
	return ci, nil
}

func (s *CommunityService) publish(ctx context.Context, agg shared.AggregateRoot) {
	if err := shared.PublishAndClear(ctx, s.publisher, agg); err != nil {
		s.logger.Warn("Failed to publish billing events", zap.String("aggregate_id", agg.GetID().String()), zap.Error(err))
	}
}
