package document

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/document"
	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/carehours/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sources holds the repositories documents are rendered from
type Sources struct {
	Invoices          billing.InvoiceRepository
	CommunityInvoices billing.CommunityInvoiceRepository
	Classes           billing.CommunityClassRepository
	Timesheets        timesheet.Repository
	PayrollImports    payroll.ImportRepository
	Clients           directory.ClientRepository
	Providers         directory.ProviderRepository
	Insurances        directory.InsuranceRepository
}

// source is a loaded owner ready for rendering
type source struct {
	view  any
	title string
	// attach links the generated document back to the owner, if it keeps one.
	// The owner may have changed while rendering, so it only stamps the link.
	attach func(ctx context.Context, documentID uuid.UUID) error
}

func (s Sources) load(ctx context.Context, tenantID uuid.UUID, kind document.Kind, ownerID uuid.UUID, company printing.Company) (*source, error) {
	switch kind {
	case document.KindInvoice:
		return s.loadInvoice(ctx, tenantID, ownerID, company)
	case document.KindCommunityInvoice:
		return s.loadCommunityInvoice(ctx, tenantID, ownerID, company)
	case document.KindTimesheet:
		return s.loadTimesheet(ctx, tenantID, ownerID, company)
	case document.KindPayrollSummary:
		return s.loadPayrollSummary(ctx, tenantID, ownerID, company)
	}
	return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown document kind: %s", kind))
}

func ownerNotFound(err error, what string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError("NOT_FOUND", what+" not found")
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func (s Sources) loadInvoice(ctx context.Context, tenantID, id uuid.UUID, company printing.Company) (*source, error) {
	inv, err := s.Invoices.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, ownerNotFound(err, "Invoice")
	}
	view := printing.InvoiceView{Company: company, Invoice: inv}
	if client, err := s.Clients.FindByIDForTenant(ctx, tenantID, inv.ClientID); err == nil {
		view.ClientName = client.FullName()
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if inv.InsuranceID != nil {
		if ins, err := s.Insurances.FindByIDForTenant(ctx, tenantID, *inv.InsuranceID); err == nil {
			view.InsuranceName = ins.Name
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to load insurance: %w", err)
		}
	}
	return &source{
		view:  view,
		title: "Invoice " + inv.Number,
		attach: func(ctx context.Context, documentID uuid.UUID) error {
			return s.Invoices.AttachDocument(ctx, tenantID, inv.ID, documentID)
		},
	}, nil
}

func (s Sources) loadCommunityInvoice(ctx context.Context, tenantID, id uuid.UUID, company printing.Company) (*source, error) {
	ci, err := s.CommunityInvoices.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, ownerNotFound(err, "Community invoice")
	}
	class, err := s.Classes.FindByIDForTenant(ctx, tenantID, ci.ClassID)
	if err != nil {
		return nil, ownerNotFound(err, "Community class")
	}
	view := printing.CommunityInvoiceView{Company: company, Invoice: ci, Class: class}
	if client, err := s.Clients.FindByIDForTenant(ctx, tenantID, ci.ClientID); err == nil {
		view.ClientName = client.FullName()
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	return &source{
		view:  view,
		title: "Invoice " + ci.Number,
		attach: func(ctx context.Context, documentID uuid.UUID) error {
			return s.CommunityInvoices.AttachDocument(ctx, tenantID, ci.ID, documentID)
		},
	}, nil
}

func (s Sources) loadTimesheet(ctx context.Context, tenantID, id uuid.UUID, company printing.Company) (*source, error) {
	ts, err := s.Timesheets.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, ownerNotFound(err, "Timesheet")
	}
	view := printing.TimesheetView{Company: company, Timesheet: ts, ClientNames: map[uuid.UUID]string{}}
	if p, err := s.Providers.FindByIDForTenant(ctx, tenantID, ts.ProviderID); err == nil {
		view.ProviderName = p.FullName()
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(ts.Entries))
	seen := make(map[uuid.UUID]bool)
	for _, e := range ts.Entries {
		if !seen[e.ClientID] {
			seen[e.ClientID] = true
			ids = append(ids, e.ClientID)
		}
	}
	if len(ids) > 0 {
		clients, err := s.Clients.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load clients: %w", err)
		}
		for i := range clients {
			view.ClientNames[clients[i].ID] = clients[i].FullName()
		}
	}
	return &source{view: view, title: "Timesheet " + ts.Number}, nil
}

func (s Sources) loadPayrollSummary(ctx context.Context, tenantID, id uuid.UUID, company printing.Company) (*source, error) {
	imp, err := s.PayrollImports.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, ownerNotFound(err, "Payroll import")
	}

	totals := make(map[uuid.UUID]*printing.ProviderTotal)
	for _, r := range imp.Rows {
		if r.ProviderID == nil || r.Status == payroll.RowStatusError {
			continue
		}
		t, ok := totals[*r.ProviderID]
		if !ok {
			t = &printing.ProviderTotal{Name: r.ProviderRef, Hours: decimal.Zero, Amount: decimal.Zero}
			totals[*r.ProviderID] = t
		}
		t.Hours = t.Hours.Add(r.Hours)
		t.Amount = t.Amount.Add(r.Amount)
	}
	for pid, t := range totals {
		if p, err := s.Providers.FindByIDForTenant(ctx, tenantID, pid); err == nil {
			t.Name = p.FullName()
		}
	}

	providers := make([]printing.ProviderTotal, 0, len(totals))
	for _, t := range totals {
		providers = append(providers, *t)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name })

	return &source{
		view:  printing.PayrollSummaryView{Company: company, Import: imp, Providers: providers},
		title: "Payroll summary " + imp.Number,
	}, nil
}
