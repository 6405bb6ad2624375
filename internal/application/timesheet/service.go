package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mailer queues outgoing email
type Mailer interface {
	EnqueueMessage(ctx context.Context, tenantID uuid.UUID, msg notification.Message) (*notification.EmailQueueItem, error)
}

// TimesheetService handles timesheet operations
type TimesheetService struct {
	repo         timesheet.Repository
	providerRepo directory.ProviderRepository
	clientRepo   directory.ClientRepository
	mailer       Mailer
	reviewers    []string
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewTimesheetService creates a new timesheet service. reviewers receive a
// notice when a timesheet is submitted; mailer may be nil.
func NewTimesheetService(
	repo timesheet.Repository,
	providerRepo directory.ProviderRepository,
	clientRepo directory.ClientRepository,
	mailer Mailer,
	reviewers []string,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *TimesheetService {
	return &TimesheetService{
		repo:         repo,
		providerRepo: providerRepo,
		clientRepo:   clientRepo,
		mailer:       mailer,
		reviewers:    reviewers,
		publisher:    publisher,
		logger:       logger,
	}
}

// Create creates a draft timesheet, optionally with entries
func (s *TimesheetService) Create(ctx context.Context, tenantID uuid.UUID, actor Actor, req CreateTimesheetRequest) (*TimesheetResponse, error) {
	providerID := req.ProviderID
	if providerID == uuid.Nil && actor.ProviderID != nil {
		providerID = *actor.ProviderID
	}
	if providerID == uuid.Nil {
		return nil, shared.InvalidInputf("provider_id is required")
	}
	if actor.restricted() && providerID != *actor.ProviderID {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only create timesheets for yourself")
	}

	provider, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, providerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.InvalidInputf("provider %s not found", providerID)
		}
		return nil, err
	}
	if !provider.IsActive() {
		return nil, shared.InvalidStatef("Provider %s is not active", provider.FullName())
	}

	number, err := s.repo.GenerateNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate timesheet number: %w", err)
	}
	ts, err := timesheet.NewTimesheet(tenantID, number, providerID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	ts.Notes = req.Notes

	if err := s.ensureClients(ctx, tenantID, req.Entries...); err != nil {
		return nil, err
	}
	for _, e := range req.Entries {
		if _, err := ts.AddEntry(e.input()); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, ts); err != nil {
		return nil, fmt.Errorf("failed to save timesheet: %w", err)
	}
	s.publish(ctx, ts)

	s.logger.Info("Timesheet created",
		zap.String("timesheet_id", ts.ID.String()),
		zap.String("number", ts.Number),
		zap.String("provider_id", providerID.String()),
		zap.Int("entries", len(ts.Entries)))
	resp := ToTimesheetResponse(ts)
	return &resp, nil
}

// GetByID returns a timesheet with its entries
func (s *TimesheetService) GetByID(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID) (*TimesheetResponse, error) {
	ts, err := s.find(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToTimesheetResponse(ts)
	return &resp, nil
}

// List returns a page of timesheets. Restricted actors only see their own.
func (s *TimesheetService) List(ctx context.Context, tenantID uuid.UUID, actor Actor, f TimesheetListFilter) ([]TimesheetListItem, int64, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalize()

	if f.ProviderID != "" {
		providerID, err := uuid.Parse(f.ProviderID)
		if err != nil {
			return nil, 0, shared.InvalidInputf("invalid provider_id")
		}
		filter.Filters["provider_id"] = providerID
	}
	if actor.restricted() {
		filter.Filters["provider_id"] = *actor.ProviderID
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.From != nil {
		filter.Filters["period_from"] = *f.From
	}
	if f.To != nil {
		filter.Filters["period_to"] = *f.To
	}

	sheets, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list timesheets: %w", err)
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count timesheets: %w", err)
	}

	out := make([]TimesheetListItem, len(sheets))
	for i := range sheets {
		out[i] = ToTimesheetListItem(&sheets[i])
	}
	return out, total, nil
}

// Update changes the header of an editable timesheet
func (s *TimesheetService) Update(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID, req UpdateTimesheetRequest) (*TimesheetResponse, error) {
	return s.mutate(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		return ts.UpdateHeader(req.PeriodStart, req.PeriodEnd, req.Notes)
	})
}

// AddEntry appends a service entry
func (s *TimesheetService) AddEntry(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID, req EntryRequest) (*TimesheetResponse, error) {
	if err := s.ensureClients(ctx, tenantID, req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		_, err := ts.AddEntry(req.input())
		return err
	})
}

// UpdateEntry replaces a service entry
func (s *TimesheetService) UpdateEntry(ctx context.Context, tenantID uuid.UUID, actor Actor, id, entryID uuid.UUID, req EntryRequest) (*TimesheetResponse, error) {
	if err := s.ensureClients(ctx, tenantID, req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		_, err := ts.UpdateEntry(entryID, req.input())
		return err
	})
}

// RemoveEntry drops a service entry
func (s *TimesheetService) RemoveEntry(ctx context.Context, tenantID uuid.UUID, actor Actor, id, entryID uuid.UUID) (*TimesheetResponse, error) {
	return s.mutate(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		return ts.RemoveEntry(entryID)
	})
}

// Submit sends a timesheet for review and notifies the reviewers
func (s *TimesheetService) Submit(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID) (*TimesheetResponse, error) {
	resp, ts, err := s.transition(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		return ts.Submit(actor.UserID)
	})
	if err != nil {
		return nil, err
	}
	if len(s.reviewers) > 0 {
		s.notify(ctx, ts, notification.Message{
			To:          s.reviewers,
			Subject:     fmt.Sprintf("Timesheet %s submitted for review", ts.Number),
			TextBody:    fmt.Sprintf("Timesheet %s (%s to %s, %s hours) is waiting for review.", ts.Number, day(ts.PeriodStart), day(ts.PeriodEnd), ts.TotalHours()),
			TemplateKey: "timesheet_submitted",
		})
	}
	return resp, nil
}

// Approve accepts a submitted timesheet and notifies the provider
func (s *TimesheetService) Approve(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID) (*TimesheetResponse, error) {
	resp, ts, err := s.review(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		return ts.Approve(actor.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.notifyProvider(ctx, ts, fmt.Sprintf("Timesheet %s approved", ts.Number),
		fmt.Sprintf("Your timesheet %s for %s to %s has been approved.", ts.Number, day(ts.PeriodStart), day(ts.PeriodEnd)),
		"timesheet_approved")
	return resp, nil
}

// Reject returns a submitted timesheet to the provider with a reason
func (s *TimesheetService) Reject(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID, req RejectTimesheetRequest) (*TimesheetResponse, error) {
	resp, ts, err := s.review(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		return ts.Reject(actor.UserID, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	s.notifyProvider(ctx, ts, fmt.Sprintf("Timesheet %s needs changes", ts.Number),
		fmt.Sprintf("Your timesheet %s was returned: %s", ts.Number, ts.RejectionReason),
		"timesheet_rejected")
	return resp, nil
}

// Reopen moves an approved timesheet back to draft
func (s *TimesheetService) Reopen(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID) (*TimesheetResponse, error) {
	resp, _, err := s.review(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		return ts.Reopen()
	})
	return resp, err
}

// Delete soft-deletes a draft or rejected timesheet
func (s *TimesheetService) Delete(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID) error {
	_, err := s.mutate(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		return ts.Delete()
	})
	if err == nil {
		s.logger.Info("Timesheet deleted", zap.String("timesheet_id", id.String()))
	}
	return err
}

func (s *TimesheetService) find(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID) (*timesheet.Timesheet, error) {
	ts, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if actor.restricted() && ts.ProviderID != *actor.ProviderID {
		return nil, shared.ErrForbidden
	}
	return ts, nil
}

func (s *TimesheetService) mutate(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID, apply func(*timesheet.Timesheet) error) (*TimesheetResponse, error) {
	resp, _, err := s.transition(ctx, tenantID, actor, id, apply)
	return resp, err
}

// review is transition restricted to approvers who are not the timesheet's provider
func (s *TimesheetService) review(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID, apply func(*timesheet.Timesheet) error) (*TimesheetResponse, *timesheet.Timesheet, error) {
	if !actor.CanApprove {
		return nil, nil, shared.ErrForbidden
	}
	return s.transition(ctx, tenantID, actor, id, func(ts *timesheet.Timesheet) error {
		if actor.ProviderID != nil && *actor.ProviderID == ts.ProviderID {
			return shared.NewDomainError("SELF_APPROVAL", "Cannot review your own timesheet")
		}
		return apply(ts)
	})
}

func (s *TimesheetService) transition(ctx context.Context, tenantID uuid.UUID, actor Actor, id uuid.UUID, apply func(*timesheet.Timesheet) error) (*TimesheetResponse, *timesheet.Timesheet, error) {
	ts, err := s.find(ctx, tenantID, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if err := apply(ts); err != nil {
		return nil, nil, err
	}
	if err := s.repo.SaveWithLock(ctx, ts); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to save timesheet: %w", err)
	}
	s.publish(ctx, ts)
	resp := ToTimesheetResponse(ts)
	return &resp, ts, nil
}

func (s *TimesheetService) ensureClients(ctx context.Context, tenantID uuid.UUID, entries ...EntryRequest) error {
	if len(entries) == 0 || s.clientRepo == nil {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if !seen[e.ClientID] {
			seen[e.ClientID] = true
			ids = append(ids, e.ClientID)
		}
	}
	clients, err := s.clientRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to load clients: %w", err)
	}
	found := make(map[uuid.UUID]bool, len(clients))
	for _, c := range clients {
		found[c.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return shared.InvalidInputf("client %s not found", id)
		}
	}
	return nil
}

func (s *TimesheetService) notifyProvider(ctx context.Context, ts *timesheet.Timesheet, subject, body, templateKey string) {
	if s.mailer == nil {
		return
	}
	provider, err := s.providerRepo.FindByIDForTenant(ctx, ts.TenantID, ts.ProviderID)
	if err != nil {
		s.logger.Warn("Failed to load provider for notification",
			zap.String("timesheet_id", ts.ID.String()), zap.Error(err))
		return
	}
	if provider.Email == "" {
		return
	}
	s.notify(ctx, ts, notification.Message{
		To:          []string{provider.Email},
		Subject:     subject,
		TextBody:    body,
		TemplateKey: templateKey,
	})
}

// notify queues an email. Queue failures are logged and never fail the workflow.
func (s *TimesheetService) notify(ctx context.Context, ts *timesheet.Timesheet, msg notification.Message) {
	if s.mailer == nil {
		return
	}
	if _, err := s.mailer.EnqueueMessage(ctx, ts.TenantID, msg); err != nil {
		s.logger.Warn("Failed to enqueue timesheet notification",
			zap.String("timesheet_id", ts.ID.String()),
			zap.String("template_key", msg.TemplateKey),
			zap.Error(err))
	}
}

func (s *TimesheetService) publish(ctx context.Context, ts *timesheet.Timesheet) {
	if err := shared.PublishAndClear(ctx, s.publisher, ts); err != nil {
		s.logger.Warn("Failed to publish timesheet events", zap.String("timesheet_id", ts.ID.String()), zap.Error(err))
	}
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}
