package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/document"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService handles invoice operations
type InvoiceService struct {
	invoiceRepo   billing.InvoiceRepository
	timesheetRepo timesheet.Repository
	clientRepo    directory.ClientRepository
	insuranceRepo directory.InsuranceRepository
	txScope       TransactionScope
	delivery      deliverer
	opts          Options
	publisher     shared.EventPublisher
	logger        *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	timesheetRepo timesheet.Repository,
	clientRepo directory.ClientRepository,
	insuranceRepo directory.InsuranceRepository,
	txScope TransactionScope,
	docs DocumentGenerator,
	mailer Mailer,
	opts Options,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		timesheetRepo: timesheetRepo,
		clientRepo:    clientRepo,
		insuranceRepo: insuranceRepo,
		txScope:       txScope,
		delivery:      deliverer{docs: docs, mailer: mailer, logger: logger},
		opts:          opts,
		publisher:     publisher,
		logger:        logger,
	}
}

// billTo is who pays for a client's services and at what rate
type billTo struct {
	insuranceID *uuid.UUID
	name        string
	email       string
	rate        decimal.Decimal
}

// Generate creates a draft invoice from the client's approved, uninvoiced
// billable entries in the period and stamps those entries in one transaction
func (s *InvoiceService) Generate(ctx context.Context, tenantID uuid.UUID, req GenerateInvoiceRequest) (*InvoiceResponse, error) {
	if req.PeriodStart.After(req.PeriodEnd) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start cannot be after period end")
	}
	client, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, req.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.InvalidInputf("client %s not found", req.ClientID)
		}
		return nil, err
	}
	if !client.IsBillable() {
		return nil, shared.InvalidStatef("Client %s is not billable", client.FullName())
	}

	payer, err := s.resolveBillTo(ctx, tenantID, client)
	if err != nil {
		return nil, err
	}

	entries, err := s.timesheetRepo.FindBillableEntries(ctx, tenantID, client.ID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load billable entries: %w", err)
	}

	var invoice *billing.Invoice
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.InvoiceRepo().GenerateNumber(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}
		inv, err := billing.NewInvoice(tenantID, number, client.ID, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return err
		}
		if err := inv.SetBillTo(payer.insuranceID, payer.name, payer.email); err != nil {
			return err
		}
		inv.SetNotes(req.Notes)

		stamped := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			if e.Units == 0 {
				continue
			}
			entryID := e.ID
			if _, err := inv.AddLine(billing.LineInput{
				TimesheetEntryID: &entryID,
				ServiceDate:      e.ServiceDate,
				Description:      fmt.Sprintf("Services on %s (%s)", e.ServiceDate.Format("2006-01-02"), e.TimesheetNumber),
				ServiceCode:      e.ServiceCode,
				Minutes:          e.Minutes,
				Rate:             payer.rate,
			}); err != nil {
				return err
			}
			stamped = append(stamped, entryID)
		}
		if len(stamped) == 0 {
			return shared.InvalidInputf("No billable time for %s between %s and %s",
				client.FullName(), req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02"))
		}

		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		if err := repos.TimesheetRepo().MarkEntriesInvoiced(ctx, tenantID, stamped, inv.ID); err != nil {
			return fmt.Errorf("failed to stamp timesheet entries: %w", err)
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, invoice)

	s.logger.Info("Invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("client_id", client.ID.String()),
		zap.Int("lines", len(invoice.Entries)),
		zap.String("total", invoice.TotalAmount.StringFixed(2)))
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// resolveBillTo picks the payer: the client's insurance when set, otherwise
// the client at their private-pay rate. A zero rate cannot be billed.
func (s *InvoiceService) resolveBillTo(ctx context.Context, tenantID uuid.UUID, client *directory.Client) (*billTo, error) {
	if client.InsuranceID != nil {
		ins, err := s.insuranceRepo.FindByIDForTenant(ctx, tenantID, *client.InsuranceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.InvalidInputf("insurance of client %s not found", client.FullName())
			}
			return nil, err
		}
		if ins.RatePerUnit.IsZero() {
			return nil, shared.InvalidInputf("Insurance %s has no rate per unit", ins.Name)
		}
		return &billTo{insuranceID: &ins.ID, name: ins.Name, email: ins.Email, rate: ins.RatePerUnit}, nil
	}
	if client.DefaultRate.IsZero() {
		return nil, shared.InvalidInputf("Client %s has no private-pay rate", client.FullName())
	}
	return &billTo{name: client.FullName(), email: client.Email, rate: client.DefaultRate}, nil
}

// GetByID returns an invoice with its lines
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, f InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalize()
	for key, raw := range map[string]string{"client_id": f.ClientID, "insurance_id": f.InsuranceID} {
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
	if f.IssueFrom != nil {
		filter.Filters["issue_from"] = *f.IssueFrom
	}
	if f.IssueTo != nil {
		filter.Filters["issue_to"] = *f.IssueTo
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out, total, nil
}

// Update changes the recipient and notes of a draft invoice
func (s *InvoiceService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, tenantID, id, func(inv *billing.Invoice) error {
		if err := inv.SetBillTo(inv.InsuranceID, req.BillToName, req.BillToEmail); err != nil {
			return err
		}
		inv.SetNotes(req.Notes)
		return nil
	})
}

// AddLine appends a manual line to a draft invoice
func (s *InvoiceService) AddLine(ctx context.Context, tenantID, id uuid.UUID, req AddLineRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, tenantID, id, func(inv *billing.Invoice) error {
		_, err := inv.AddLine(billing.LineInput{
			ServiceDate: req.ServiceDate,
			Description: req.Description,
			ServiceCode: req.ServiceCode,
			Minutes:     req.Minutes,
			Units:       req.Units,
			Rate:        req.Rate,
		})
		return err
	})
}

// RemoveLine drops a line from a draft invoice. A line generated from a
// timesheet entry hands that entry back to the billable pool.
func (s *InvoiceService) RemoveLine(ctx context.Context, tenantID, id, lineID uuid.UUID) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		removed, err := inv.RemoveLine(lineID)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return saveError(err)
		}
		if removed.TimesheetEntryID != nil {
			if err := repos.TimesheetRepo().ReleaseInvoicedEntries(ctx, tenantID, inv.ID); err != nil {
				return fmt.Errorf("failed to release timesheet entries: %w", err)
			}
			if remaining := inv.TimesheetEntryIDs(); len(remaining) > 0 {
				if err := repos.TimesheetRepo().MarkEntriesInvoiced(ctx, tenantID, remaining, inv.ID); err != nil {
					return fmt.Errorf("failed to stamp timesheet entries: %w", err)
				}
			}
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// Send issues a draft invoice, renders its PDF and queues the email
func (s *InvoiceService) Send(ctx context.Context, tenantID, id uuid.UUID) (*SendInvoiceResponse, error) {
	if _, err := s.mutate(ctx, tenantID, id, func(inv *billing.Invoice) error {
		return inv.Send(today(), s.opts.PaymentTermsDays)
	}); err != nil {
		return nil, err
	}

	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	delivery := s.delivery.deliver(ctx, tenantID, deliveryRequest{
		kind:        document.KindInvoice,
		ownerID:     inv.ID,
		to:          inv.BillToEmail,
		subject:     fmt.Sprintf("Invoice %s from %s", inv.Number, s.opts.CompanyName),
		body:        invoiceEmailBody(inv, s.opts),
		templateKey: "invoice_sent",
	})

	// the PDF step stores the document link, reload to return it
	if delivery.DocumentID != nil {
		if fresh, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id); err == nil {
			inv = fresh
		}
	}
	s.logger.Info("Invoice sent",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.Bool("emailed", delivery.EmailID != nil))
	return &SendInvoiceResponse{Invoice: ToInvoiceResponse(inv), Delivery: delivery}, nil
}

// RecordPayment applies a payment to a sent invoice
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID, id uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, tenantID, id, func(inv *billing.Invoice) error {
		return inv.RecordPayment(req.Amount)
	})
}

// Void cancels a draft or sent invoice and releases its timesheet entries
func (s *InvoiceService) Void(ctx context.Context, tenantID, id uuid.UUID, req VoidRequest) (*InvoiceResponse, error) {
	inv, err := s.releasing(ctx, tenantID, id, func(inv *billing.Invoice) error {
		return inv.Void(req.Reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Invoice voided", zap.String("invoice_id", id.String()), zap.String("reason", inv.VoidReason))
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Delete soft-deletes a draft invoice and releases its timesheet entries
func (s *InvoiceService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	_, err := s.releasing(ctx, tenantID, id, func(inv *billing.Invoice) error {
		return inv.Delete()
	})
	return err
}

// releasing applies a change and clears the invoice stamp from its source
// entries in the same transaction
func (s *InvoiceService) releasing(ctx context.Context, tenantID, id uuid.UUID, apply func(*billing.Invoice) error) (*billing.Invoice, error) {
	var invoice *billing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := apply(inv); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return saveError(err)
		}
		if err := repos.TimesheetRepo().ReleaseInvoicedEntries(ctx, tenantID, inv.ID); err != nil {
			return fmt.Errorf("failed to release timesheet entries: %w", err)
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, invoice)
	return invoice, nil
}

func (s *InvoiceService) mutate(ctx context.Context, tenantID, id uuid.UUID, apply func(*billing.Invoice) error) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(inv); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, saveError(err)
	}
	s.publish(ctx, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

func (s *InvoiceService) publish(ctx context.Context, inv *billing.Invoice) {
	if err := shared.PublishAndClear(ctx, s.publisher, inv); err != nil {
		s.logger.Warn("Failed to publish invoice events", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
	}
}

func invoiceEmailBody(inv *billing.Invoice, opts Options) string {
	due := ""
	if inv.DueDate != nil {
		due = fmt.Sprintf(" Payment is due by %s.", inv.DueDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("Dear %s,\n\nPlease find attached invoice %s for services from %s to %s, totalling %s %s.%s\n\n%s",
		inv.BillToName, inv.Number,
		inv.PeriodStart.Format("2006-01-02"), inv.PeriodEnd.Format("2006-01-02"),
		inv.TotalAmount.StringFixed(2), opts.Currency, due, opts.CompanyName)
}

func saveError(err error) error {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	return fmt.Errorf("failed to save invoice: %w", err)
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
