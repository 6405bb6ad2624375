package billing

import (
	"context"
	"testing"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/directory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

type communityFixture struct {
	ctx       context.Context
	tenantID  uuid.UUID
	classes   *MockClassRepository
	invoices  *MockCommunityInvoiceRepository
	clients   *MockClientRepository
	providers *MockProviderRepository
	docs      *fakeDocuments
	mailer    *fakeMailer
	svc       *CommunityService
}

func newCommunityFixture() *communityFixture {
	f := &communityFixture{
		ctx:       context.Background(),
		tenantID:  uuid.New(),
		classes:   new(MockClassRepository),
		invoices:  new(MockCommunityInvoiceRepository),
		clients:   new(MockClientRepository),
		providers: new(MockProviderRepository),
		docs:      &fakeDocuments{},
		mailer:    &fakeMailer{},
	}
	scope := NewNoOpTransactionScope(nil, nil, f.invoices)
	f.svc = NewCommunityService(f.classes, f.invoices, f.clients, f.providers, scope,
		f.docs, f.mailer, DefaultOptions(), nil, zap.NewNop())
	return f
}

func (f *communityFixture) class(t *testing.T, capacity int) *billing.CommunityClass {
	t.Helper()
	c, err := billing.NewCommunityClass(f.tenantID, billing.ClassDetails{
		Name:          "Social skills group",
		ScheduledAt:   day(2026, 10, 14),
		DurationHours: decimal.RequireFromString("1.5"),
		RatePerUnit:   decimal.NewFromInt(10),
		Capacity:      capacity,
	})
	require.NoError(t, err)
	c.ClearDomainEvents()
	f.classes.On("FindByIDForTenant", f.ctx, f.tenantID, c.ID).Return(c, nil)
	f.classes.On("Save", f.ctx, c).Return(nil)
	return c
}

func (f *communityFixture) client(t *testing.T, email string) *directory.Client {
	t.Helper()
	c, err := directory.NewClient(f.tenantID, directory.ClientDetails{FirstName: "Sam", LastName: "Reed", Email: email})
	require.NoError(t, err)
	f.clients.On("FindByIDForTenant", f.ctx, f.tenantID, c.ID).Return(c, nil)
	return c
}

func TestCommunityService_CreateClass_InactiveInstructor(t *testing.T) {
	f := newCommunityFixture()
	p, err := directory.NewProvider(f.tenantID, directory.ProviderDetails{FirstName: "Jo", LastName: "Park", Email: "jo@example.com"})
	require.NoError(t, err)
	require.NoError(t, p.Deactivate())
	f.providers.On("FindByIDForTenant", f.ctx, f.tenantID, p.ID).Return(p, nil)

	_, err = f.svc.CreateClass(f.ctx, f.tenantID, CreateClassRequest{
		Name:          "Group",
		InstructorID:  &p.ID,
		ScheduledAt:   day(2026, 10, 14),
		DurationHours: decimal.NewFromInt(1),
	})
	assertDomainCode(t, err, "INVALID_INPUT")
	f.classes.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCommunityService_Enroll(t *testing.T) {
	f := newCommunityFixture()
	class := f.class(t, 1)
	first := f.client(t, "a@example.com")
	second := f.client(t, "b@example.com")

	resp, err := f.svc.Enroll(f.ctx, f.tenantID, class.ID, EnrollRequest{ClientID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Enrolled)

	_, err = f.svc.Enroll(f.ctx, f.tenantID, class.ID, EnrollRequest{ClientID: first.ID})
	assertDomainCode(t, err, "ALREADY_ENROLLED")

	_, err = f.svc.Enroll(f.ctx, f.tenantID, class.ID, EnrollRequest{ClientID: second.ID})
	assertDomainCode(t, err, "CLASS_FULL")

	resp, err = f.svc.Unenroll(f.ctx, f.tenantID, class.ID, first.ID)
	require.NoError(t, err)
	assert.Zero(t, resp.Enrolled)
}

func TestCommunityService_Enroll_InactiveClient(t *testing.T) {
	f := newCommunityFixture()
	class := f.class(t, 0)
	client := f.client(t, "a@example.com")
	require.NoError(t, client.SetInactive())

	_, err := f.svc.Enroll(f.ctx, f.tenantID, class.ID, EnrollRequest{ClientID: client.ID})
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestCommunityService_GenerateInvoices(t *testing.T) {
	f := newCommunityFixture()
	class := f.class(t, 0)
	billed := f.client(t, "billed@example.com")
	fresh := f.client(t, "Fresh@Example.com")
	require.NoError(t, class.Enroll(billed.ID))
	require.NoError(t, class.Enroll(fresh.ID))

	_, err := f.svc.GenerateInvoices(f.ctx, f.tenantID, class.ID)
	assertDomainCode(t, err, "INVALID_STATE")

	require.NoError(t, class.Complete())
	f.clients.On("FindByIDs", f.ctx, f.tenantID, class.AttendeeIDs).Return([]directory.Client{*billed, *fresh}, nil)
	f.invoices.On("FindBilledClientIDs", f.ctx, f.tenantID, class.ID).Return([]uuid.UUID{billed.ID}, nil)
	f.invoices.On("GenerateNumber", f.ctx, f.tenantID).Return("CI-202610-00001", nil).Once()
	f.invoices.On("Save", f.ctx, mock.AnythingOfType("*billing.CommunityInvoice")).Return(nil)

	out, err := f.svc.GenerateInvoices(f.ctx, f.tenantID, class.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, fresh.ID, out[0].ClientID)
	assert.Equal(t, "fresh@example.com", out[0].BillToEmail)
	assert.Equal(t, "6", out[0].Units.String())
	assert.Equal(t, "60", out[0].Amount.String())
	assert.Equal(t, "draft", out[0].Status)
	f.invoices.AssertNumberOfCalls(t, "Save", 1)
}

func TestCommunityService_SendInvoice(t *testing.T) {
	f := newCommunityFixture()
	class := f.class(t, 0)
	client := f.client(t, "sam@example.com")
	require.NoError(t, class.Enroll(client.ID))
	require.NoError(t, class.Complete())

	ci, err := billing.NewCommunityInvoice("CI-202610-00002", class, client.ID)
	require.NoError(t, err)
	require.NoError(t, ci.SetBillToEmail(client.Email))
	f.invoices.On("FindByIDForTenant", f.ctx, f.tenantID, ci.ID).Return(ci, nil)
	f.invoices.On("Save", f.ctx, ci).Return(nil)

	resp, err := f.svc.SendInvoice(f.ctx, f.tenantID, ci.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Invoice.Status)
	require.Len(t, f.docs.requests, 1)
	assert.Equal(t, "community_invoice", f.docs.requests[0].Kind)
	require.Len(t, f.mailer.messages, 1)
	assert.Equal(t, "community_invoice_sent", f.mailer.messages[0].TemplateKey)
	assert.Contains(t, f.mailer.messages[0].TextBody, "1.50 hours")
	assert.NotNil(t, resp.Delivery.EmailID)

	paid, err := f.svc.RecordInvoicePayment(f.ctx, f.tenantID, ci.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(60)})
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)

	assertDomainCode(t, f.svc.DeleteInvoice(f.ctx, f.tenantID, ci.ID), "INVALID_STATE")
}
