package timesheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Mocks
// =============================================================================

type MockTimesheetRepository struct {
	mock.Mock
}

func (m *MockTimesheetRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*timesheet.Timesheet, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timesheet.Timesheet), args.Error(1)
}

func (m *MockTimesheetRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]timesheet.Timesheet, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]timesheet.Timesheet), args.Error(1)
}

func (m *MockTimesheetRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTimesheetRepository) Save(ctx context.Context, ts *timesheet.Timesheet) error {
	return m.Called(ctx, ts).Error(0)
}

func (m *MockTimesheetRepository) SaveWithLock(ctx context.Context, ts *timesheet.Timesheet) error {
	return m.Called(ctx, ts).Error(0)
}

func (m *MockTimesheetRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockTimesheetRepository) FindBillableEntries(ctx context.Context, tenantID, clientID uuid.UUID, from, to time.Time) ([]timesheet.BillableEntry, error) {
	args := m.Called(ctx, tenantID, clientID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]timesheet.BillableEntry), args.Error(1)
}

func (m *MockTimesheetRepository) SumApprovedMinutesByProvider(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockTimesheetRepository) MarkEntriesInvoiced(ctx context.Context, tenantID uuid.UUID, entryIDs []uuid.UUID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, entryIDs, invoiceID).Error(0)
}

func (m *MockTimesheetRepository) ReleaseInvoicedEntries(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, invoiceID).Error(0)
}

type MockProviderRepository struct {
	mock.Mock
	directory.ProviderRepository
}

func (m *MockProviderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Provider, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Provider), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
	directory.ClientRepository
}

func (m *MockClientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]directory.Client, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]directory.Client), args.Error(1)
}

type recordingMailer struct {
	messages []notification.Message
	err      error
}

func (r *recordingMailer) EnqueueMessage(_ context.Context, tenantID uuid.UUID, msg notification.Message) (*notification.EmailQueueItem, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.messages = append(r.messages, msg)
	return notification.NewEmailQueueItem(tenantID, msg)
}

// =============================================================================
// Fixture
// =============================================================================

type fixture struct {
	ctx       context.Context
	tenantID  uuid.UUID
	repo      *MockTimesheetRepository
	providers *MockProviderRepository
	clients   *MockClientRepository
	mailer    *recordingMailer
	svc       *TimesheetService
	provider  *directory.Provider
	client    *directory.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:       context.Background(),
		tenantID:  uuid.New(),
		repo:      new(MockTimesheetRepository),
		providers: new(MockProviderRepository),
		clients:   new(MockClientRepository),
		mailer:    &recordingMailer{},
	}
	var err error
	f.provider, err = directory.NewProvider(f.tenantID, directory.ProviderDetails{
		FirstName: "Sam", LastName: "Reed", Email: "sam@example.com", PayRate: decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	f.client, err = directory.NewClient(f.tenantID, directory.ClientDetails{FirstName: "Ava", LastName: "Stone"})
	require.NoError(t, err)

	f.svc = NewTimesheetService(f.repo, f.providers, f.clients, f.mailer,
		[]string{"review@example.com"}, nil, zap.NewNop())
	return f
}

func (f *fixture) draft(t *testing.T) *timesheet.Timesheet {
	t.Helper()
	ts, err := timesheet.NewTimesheet(f.tenantID, "TS-202610-00001", f.provider.ID,
		date(2026, 10, 1), date(2026, 10, 15))
	require.NoError(t, err)
	_, err = ts.AddEntry(timesheet.EntryInput{
		ClientID: f.client.ID, ServiceDate: date(2026, 10, 2), Minutes: 95, Billable: true,
	})
	require.NoError(t, err)
	ts.ClearDomainEvents()
	f.repo.On("FindByIDForTenant", f.ctx, f.tenantID, ts.ID).Return(ts, nil)
	return ts
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

// =============================================================================
// Tests
// =============================================================================

func TestTimesheetService_Create(t *testing.T) {
	f := newFixture(t)
	f.providers.On("FindByIDForTenant", f.ctx, f.tenantID, f.provider.ID).Return(f.provider, nil)
	f.repo.On("GenerateNumber", f.ctx, f.tenantID).Return("TS-202610-00007", nil)
	f.clients.On("FindByIDs", f.ctx, f.tenantID, []uuid.UUID{f.client.ID}).Return([]directory.Client{*f.client}, nil)
	f.repo.On("Save", f.ctx, mock.AnythingOfType("*timesheet.Timesheet")).Return(nil)

	actor := Actor{UserID: uuid.New(), ProviderID: &f.provider.ID}
	resp, err := f.svc.Create(f.ctx, f.tenantID, actor, CreateTimesheetRequest{
		PeriodStart: date(2026, 10, 1),
		PeriodEnd:   date(2026, 10, 15),
		Entries: []EntryRequest{
			{ClientID: f.client.ID, ServiceDate: date(2026, 10, 3), Minutes: 60},
			{ClientID: f.client.ID, ServiceDate: date(2026, 10, 4), Minutes: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "TS-202610-00007", resp.Number)
	assert.Equal(t, f.provider.ID, resp.ProviderID)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, 110, resp.TotalMinutes)
	assert.Equal(t, 7, resp.TotalUnits)
	assert.Equal(t, 7, resp.BillableUnits)
	assert.Len(t, resp.Entries, 2)
}

func TestTimesheetService_Create_OtherProviderForbidden(t *testing.T) {
	f := newFixture(t)
	own := uuid.New()

	_, err := f.svc.Create(f.ctx, f.tenantID, Actor{UserID: uuid.New(), ProviderID: &own}, CreateTimesheetRequest{
		ProviderID:  f.provider.ID,
		PeriodStart: date(2026, 10, 1),
		PeriodEnd:   date(2026, 10, 15),
	})
	assertDomainCode(t, err, "FORBIDDEN")
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTimesheetService_Create_ApproverForOtherProvider(t *testing.T) {
	f := newFixture(t)
	own := uuid.New()
	f.providers.On("FindByIDForTenant", f.ctx, f.tenantID, f.provider.ID).Return(f.provider, nil)
	f.repo.On("GenerateNumber", f.ctx, f.tenantID).Return("TS-202610-00008", nil)
	f.repo.On("Save", f.ctx, mock.AnythingOfType("*timesheet.Timesheet")).Return(nil)

	resp, err := f.svc.Create(f.ctx, f.tenantID, Actor{UserID: uuid.New(), ProviderID: &own, CanApprove: true}, CreateTimesheetRequest{
		ProviderID:  f.provider.ID,
		PeriodStart: date(2026, 10, 1),
		PeriodEnd:   date(2026, 10, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, f.provider.ID, resp.ProviderID)
}

func TestTimesheetService_Create_UnknownClient(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()
	f.providers.On("FindByIDForTenant", f.ctx, f.tenantID, f.provider.ID).Return(f.provider, nil)
	f.repo.On("GenerateNumber", f.ctx, f.tenantID).Return("TS-202610-00009", nil)
	f.clients.On("FindByIDs", f.ctx, f.tenantID, []uuid.UUID{missing}).Return([]directory.Client{}, nil)

	_, err := f.svc.Create(f.ctx, f.tenantID, Actor{UserID: uuid.New(), CanApprove: true}, CreateTimesheetRequest{
		ProviderID:  f.provider.ID,
		PeriodStart: date(2026, 10, 1),
		PeriodEnd:   date(2026, 10, 15),
		Entries:     []EntryRequest{{ClientID: missing, ServiceDate: date(2026, 10, 2), Minutes: 30}},
	})
	assertDomainCode(t, err, "INVALID_INPUT")
}

func TestTimesheetService_SubmitApproveFlow(t *testing.T) {
	f := newFixture(t)
	ts := f.draft(t)
	f.repo.On("SaveWithLock", f.ctx, ts).Return(nil)
	f.providers.On("FindByIDForTenant", f.ctx, f.tenantID, f.provider.ID).Return(f.provider, nil)

	submitter := Actor{UserID: uuid.New(), ProviderID: &f.provider.ID}
	resp, err := f.svc.Submit(f.ctx, f.tenantID, submitter, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", resp.Status)
	require.Len(t, f.mailer.messages, 1)
	assert.Equal(t, []string{"review@example.com"}, f.mailer.messages[0].To)
	assert.Equal(t, "timesheet_submitted", f.mailer.messages[0].TemplateKey)

	_, err = f.svc.Approve(f.ctx, f.tenantID, submitter, ts.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	selfApprover := Actor{UserID: uuid.New(), ProviderID: &f.provider.ID, CanApprove: true}
	_, err = f.svc.Approve(f.ctx, f.tenantID, selfApprover, ts.ID)
	assertDomainCode(t, err, "SELF_APPROVAL")

	approver := Actor{UserID: uuid.New(), CanApprove: true}
	resp, err = f.svc.Approve(f.ctx, f.tenantID, approver, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	assert.Equal(t, &approver.UserID, resp.ReviewedBy)
	require.Len(t, f.mailer.messages, 2)
	assert.Equal(t, []string{"sam@example.com"}, f.mailer.messages[1].To)

	resp, err = f.svc.Reopen(f.ctx, f.tenantID, approver, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", resp.Status)
}

func TestTimesheetService_Reject(t *testing.T) {
	f := newFixture(t)
	ts := f.draft(t)
	require.NoError(t, ts.Submit(uuid.New()))
	f.repo.On("SaveWithLock", f.ctx, ts).Return(nil)
	f.providers.On("FindByIDForTenant", f.ctx, f.tenantID, f.provider.ID).Return(f.provider, nil)
	approver := Actor{UserID: uuid.New(), CanApprove: true}

	_, err := f.svc.Reject(f.ctx, f.tenantID, approver, ts.ID, RejectTimesheetRequest{Reason: "  "})
	assertDomainCode(t, err, "INVALID_REASON")

	resp, err := f.svc.Reject(f.ctx, f.tenantID, approver, ts.ID, RejectTimesheetRequest{Reason: "Missing session notes"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", resp.Status)
	assert.Equal(t, "Missing session notes", resp.RejectionReason)
	require.Len(t, f.mailer.messages, 1)
	assert.Contains(t, f.mailer.messages[0].TextBody, "Missing session notes")
}

func TestTimesheetService_MailerFailureDoesNotFailSubmit(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("queue down")
	ts := f.draft(t)
	f.repo.On("SaveWithLock", f.ctx, ts).Return(nil)

	resp, err := f.svc.Submit(f.ctx, f.tenantID, Actor{UserID: uuid.New()}, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", resp.Status)
}

func TestTimesheetService_Entries(t *testing.T) {
	f := newFixture(t)
	ts := f.draft(t)
	f.repo.On("SaveWithLock", f.ctx, ts).Return(nil)
	f.clients.On("FindByIDs", f.ctx, f.tenantID, []uuid.UUID{f.client.ID}).Return([]directory.Client{*f.client}, nil)
	actor := Actor{UserID: uuid.New(), ProviderID: &f.provider.ID}

	resp, err := f.svc.AddEntry(f.ctx, f.tenantID, actor, ts.ID, EntryRequest{
		ClientID: f.client.ID, ServiceDate: date(2026, 10, 5), Minutes: 14,
	})
	require.NoError(t, err)
	assert.Equal(t, 109, resp.TotalMinutes)
	assert.Equal(t, 6, resp.TotalUnits)

	_, err = f.svc.AddEntry(f.ctx, f.tenantID, actor, ts.ID, EntryRequest{
		ClientID: f.client.ID, ServiceDate: date(2026, 11, 5), Minutes: 30,
	})
	assert.Error(t, err)

	entryID := resp.Entries[0].ID
	notBillable := false
	resp, err = f.svc.UpdateEntry(f.ctx, f.tenantID, actor, ts.ID, entryID, EntryRequest{
		ClientID: f.client.ID, ServiceDate: date(2026, 10, 2), Minutes: 120, Billable: &notBillable,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.TotalUnits)
	assert.Equal(t, 0, resp.BillableUnits)

	resp, err = f.svc.RemoveEntry(f.ctx, f.tenantID, actor, ts.ID, resp.Entries[1].ID)
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 1)
}

func TestTimesheetService_RestrictedActorCannotSeeOthers(t *testing.T) {
	f := newFixture(t)
	ts := f.draft(t)
	other := uuid.New()

	_, err := f.svc.GetByID(f.ctx, f.tenantID, Actor{UserID: uuid.New(), ProviderID: &other}, ts.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	err = f.svc.Delete(f.ctx, f.tenantID, Actor{UserID: uuid.New(), ProviderID: &other}, ts.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestTimesheetService_List_ForcesOwnProvider(t *testing.T) {
	f := newFixture(t)
	own := uuid.New()
	from := date(2026, 10, 1)

	match := mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters["provider_id"] == own &&
			filter.Filters["status"] == "approved" &&
			filter.Filters["period_from"] == from
	})
	f.repo.On("FindAllForTenant", f.ctx, f.tenantID, match).Return([]timesheet.Timesheet{}, nil)
	f.repo.On("CountForTenant", f.ctx, f.tenantID, match).Return(int64(0), nil)

	_, total, err := f.svc.List(f.ctx, f.tenantID, Actor{UserID: uuid.New(), ProviderID: &own}, TimesheetListFilter{
		ProviderID: uuid.NewString(),
		Status:     "approved",
		From:       &from,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	f.repo.AssertExpectations(t)
}

func TestTimesheetService_ConcurrencyConflict(t *testing.T) {
	f := newFixture(t)
	ts := f.draft(t)
	f.repo.On("SaveWithLock", f.ctx, ts).Return(shared.ErrConcurrencyConflict)

	_, err := f.svc.Submit(f.ctx, f.tenantID, Actor{UserID: uuid.New()}, ts.ID)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Empty(t, f.mailer.messages)
}
