package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type invoiceFixture struct {
	ctx        context.Context
	tenantID   uuid.UUID
	invoices   *MockInvoiceRepository
	timesheets *MockTimesheetRepository
	clients    *MockClientRepository
	insurances *MockInsuranceRepository
	docs       *fakeDocuments
	mailer     *fakeMailer
	svc        *InvoiceService
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		ctx:        context.Background(),
		tenantID:   uuid.New(),
		invoices:   new(MockInvoiceRepository),
		timesheets: new(MockTimesheetRepository),
		clients:    new(MockClientRepository),
		insurances: new(MockInsuranceRepository),
		docs:       &fakeDocuments{},
		mailer:     &fakeMailer{},
	}
	scope := NewNoOpTransactionScope(f.invoices, f.timesheets, nil)
	f.svc = NewInvoiceService(f.invoices, f.timesheets, f.clients, f.insurances, scope,
		f.docs, f.mailer, Options{PaymentTermsDays: 30, CompanyName: "Acme Care", Currency: "USD"}, nil, zap.NewNop())
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func billableEntry(minutes int, date time.Time) timesheet.BillableEntry {
	units := minutes / 15
	return timesheet.BillableEntry{
		Entry: timesheet.Entry{
			ID:          uuid.New(),
			ClientID:    uuid.New(),
			ServiceDate: date,
			ServiceCode: "97153",
			Minutes:     minutes,
			Units:       units,
			Billable:    true,
		},
		TimesheetNumber: "TS-202610-00001",
		ProviderID:      uuid.New(),
	}
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestInvoiceService_Generate_InsuranceRate(t *testing.T) {
	f := newInvoiceFixture()
	ins, err := directory.NewInsurance(f.tenantID, directory.InsuranceDetails{
		Name: "Blue Shield", PayerID: "BS1", Email: "claims@blue.example", RatePerUnit: decimal.RequireFromString("18.75"),
	})
	require.NoError(t, err)
	client, err := directory.NewClient(f.tenantID, directory.ClientDetails{FirstName: "Ava", LastName: "Stone", DefaultRate: decimal.NewFromInt(99)})
	require.NoError(t, err)
	client.AssignInsurance(&ins.ID, "M1")

	from, to := day(2026, 10, 1), day(2026, 10, 31)
	e1 := billableEntry(95, day(2026, 10, 2)) // 6 units
	e2 := billableEntry(60, day(2026, 10, 3)) // 4 units
	short := billableEntry(10, day(2026, 10, 4))

	f.clients.On("FindByIDForTenant", f.ctx, f.tenantID, client.ID).Return(client, nil)
	f.insurances.On("FindByIDForTenant", f.ctx, f.tenantID, ins.ID).Return(ins, nil)
	f.timesheets.On("FindBillableEntries", f.ctx, f.tenantID, client.ID, from, to).
		Return([]timesheet.BillableEntry{e1, e2, short}, nil)
	f.invoices.On("GenerateNumber", f.ctx, f.tenantID).Return("INV-202610-00001", nil)
	f.invoices.On("Save", f.ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)
	f.timesheets.On("MarkEntriesInvoiced", f.ctx, f.tenantID, []uuid.UUID{e1.ID, e2.ID}, mock.AnythingOfType("uuid.UUID")).Return(nil)

	resp, err := f.svc.Generate(f.ctx, f.tenantID, GenerateInvoiceRequest{ClientID: client.ID, PeriodStart: from, PeriodEnd: to})
	require.NoError(t, err)
	assert.Equal(t, "INV-202610-00001", resp.Number)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, &ins.ID, resp.InsuranceID)
	assert.Equal(t, "claims@blue.example", resp.BillToEmail)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "112.5", resp.Lines[0].Amount.String())
	assert.Equal(t, "75", resp.Lines[1].Amount.String())
	assert.Equal(t, "187.5", resp.TotalAmount.String())
	f.timesheets.AssertExpectations(t)
}

func TestInvoiceService_Generate_PrivatePayAndErrors(t *testing.T) {
	from, to := day(2026, 10, 1), day(2026, 10, 31)

	t.Run("zero private rate", func(t *testing.T) {
		f := newInvoiceFixture()
		client, err := directory.NewClient(f.tenantID, directory.ClientDetails{FirstName: "Ava", LastName: "Stone"})
		require.NoError(t, err)
		f.clients.On("FindByIDForTenant", f.ctx, f.tenantID, client.ID).Return(client, nil)

		_, err = f.svc.Generate(f.ctx, f.tenantID, GenerateInvoiceRequest{ClientID: client.ID, PeriodStart: from, PeriodEnd: to})
		assertDomainCode(t, err, "INVALID_INPUT")
	})

	t.Run("no eligible entries", func(t *testing.T) {
		f := newInvoiceFixture()
		client, err := directory.NewClient(f.tenantID, directory.ClientDetails{FirstName: "Ava", LastName: "Stone", DefaultRate: decimal.NewFromInt(20)})
		require.NoError(t, err)
		f.clients.On("FindByIDForTenant", f.ctx, f.tenantID, client.ID).Return(client, nil)
		f.timesheets.On("FindBillableEntries", f.ctx, f.tenantID, client.ID, from, to).Return([]timesheet.BillableEntry{}, nil)
		f.invoices.On("GenerateNumber", f.ctx, f.tenantID).Return("INV-202610-00002", nil)

		_, err = f.svc.Generate(f.ctx, f.tenantID, GenerateInvoiceRequest{ClientID: client.ID, PeriodStart: from, PeriodEnd: to})
		assertDomainCode(t, err, "INVALID_INPUT")
		f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inverted period", func(t *testing.T) {
		f := newInvoiceFixture()
		_, err := f.svc.Generate(f.ctx, f.tenantID, GenerateInvoiceRequest{ClientID: uuid.New(), PeriodStart: to, PeriodEnd: from})
		assertDomainCode(t, err, "INVALID_PERIOD")
	})

	t.Run("private pay bills the client", func(t *testing.T) {
		f := newInvoiceFixture()
		client, err := directory.NewClient(f.tenantID, directory.ClientDetails{
			FirstName: "Ava", LastName: "Stone", Email: "ava@example.com", DefaultRate: decimal.NewFromInt(20),
		})
		require.NoError(t, err)
		e := billableEntry(30, day(2026, 10, 9))
		f.clients.On("FindByIDForTenant", f.ctx, f.tenantID, client.ID).Return(client, nil)
		f.timesheets.On("FindBillableEntries", f.ctx, f.tenantID, client.ID, from, to).Return([]timesheet.BillableEntry{e}, nil)
		f.invoices.On("GenerateNumber", f.ctx, f.tenantID).Return("INV-202610-00003", nil)
		f.invoices.On("Save", f.ctx, mock.Anything).Return(nil)
		f.timesheets.On("MarkEntriesInvoiced", f.ctx, f.tenantID, []uuid.UUID{e.ID}, mock.Anything).Return(nil)

		resp, err := f.svc.Generate(f.ctx, f.tenantID, GenerateInvoiceRequest{ClientID: client.ID, PeriodStart: from, PeriodEnd: to})
		require.NoError(t, err)
		assert.Nil(t, resp.InsuranceID)
		assert.Equal(t, "Ava Stone", resp.BillToName)
		assert.Equal(t, "40", resp.TotalAmount.String())
	})
}

func draftInvoice(t *testing.T, f *invoiceFixture, email string) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(f.tenantID, "INV-202610-00009", uuid.New(), day(2026, 10, 1), day(2026, 10, 31))
	require.NoError(t, err)
	require.NoError(t, inv.SetBillTo(nil, "Ava Stone", email))
	entryID := uuid.New()
	_, err = inv.AddLine(billing.LineInput{
		TimesheetEntryID: &entryID, ServiceDate: day(2026, 10, 2), Description: "Session", Minutes: 60, Rate: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	inv.ClearDomainEvents()
	f.invoices.On("FindByIDForTenant", f.ctx, f.tenantID, inv.ID).Return(inv, nil)
	return inv
}

func TestInvoiceService_Send(t *testing.T) {
	f := newInvoiceFixture()
	inv := draftInvoice(t, f, "ava@example.com")
	f.invoices.On("SaveWithLock", f.ctx, inv).Return(nil)

	resp, err := f.svc.Send(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Invoice.Status)
	require.NotNil(t, resp.Invoice.DueDate)
	assert.Equal(t, 30, int(resp.Invoice.DueDate.Sub(*resp.Invoice.IssueDate).Hours()/24))

	require.Len(t, f.docs.requests, 1)
	assert.Equal(t, "invoice", f.docs.requests[0].Kind)
	require.NotNil(t, resp.Delivery.DocumentID)
	require.NotNil(t, resp.Delivery.EmailID)
	assert.Empty(t, resp.Delivery.Warning)

	require.Len(t, f.mailer.messages, 1)
	msg := f.mailer.messages[0]
	assert.Equal(t, []string{"ava@example.com"}, msg.To)
	assert.Equal(t, resp.Delivery.DocumentID, msg.DocumentID)
	assert.Contains(t, msg.Subject, "INV-202610-00009")
	assert.Contains(t, msg.TextBody, "100.00 USD")
}

func TestInvoiceService_Send_PDFFailure(t *testing.T) {
	f := newInvoiceFixture()
	f.docs.failWith = "chrome crashed"
	inv := draftInvoice(t, f, "ava@example.com")
	f.invoices.On("SaveWithLock", f.ctx, inv).Return(nil)

	resp, err := f.svc.Send(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Invoice.Status)
	assert.Nil(t, resp.Delivery.EmailID)
	assert.Contains(t, resp.Delivery.Warning, "chrome crashed")
	assert.Empty(t, f.mailer.messages)
}

func TestInvoiceService_Send_NoRecipient(t *testing.T) {
	f := newInvoiceFixture()
	inv := draftInvoice(t, f, "")

	_, err := f.svc.Send(f.ctx, f.tenantID, inv.ID)
	assertDomainCode(t, err, "NO_RECIPIENT")
	assert.Empty(t, f.docs.requests)
}

func TestInvoiceService_PaymentFlow(t *testing.T) {
	f := newInvoiceFixture()
	inv := draftInvoice(t, f, "ava@example.com")
	require.NoError(t, inv.Send(day(2026, 11, 1), 30))
	f.invoices.On("SaveWithLock", f.ctx, inv).Return(nil)

	_, err := f.svc.RecordPayment(f.ctx, f.tenantID, inv.ID, RecordPaymentRequest{Amount: decimal.Zero})
	assertDomainCode(t, err, "INVALID_AMOUNT")

	_, err = f.svc.RecordPayment(f.ctx, f.tenantID, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(101)})
	assertDomainCode(t, err, "EXCEEDS_OUTSTANDING")

	resp, err := f.svc.RecordPayment(f.ctx, f.tenantID, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Status)
	assert.Equal(t, "60", resp.OutstandingAmount.String())

	resp, err = f.svc.RecordPayment(f.ctx, f.tenantID, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(60)})
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)

	_, err = f.svc.Void(f.ctx, f.tenantID, inv.ID, VoidRequest{Reason: "duplicate"})
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestInvoiceService_VoidReleasesEntries(t *testing.T) {
	f := newInvoiceFixture()
	inv := draftInvoice(t, f, "ava@example.com")
	f.invoices.On("SaveWithLock", f.ctx, inv).Return(nil)
	f.timesheets.On("ReleaseInvoicedEntries", f.ctx, f.tenantID, inv.ID).Return(nil)

	resp, err := f.svc.Void(f.ctx, f.tenantID, inv.ID, VoidRequest{Reason: "wrong payer"})
	require.NoError(t, err)
	assert.Equal(t, "void", resp.Status)
	assert.Equal(t, "wrong payer", resp.VoidReason)
	f.timesheets.AssertCalled(t, "ReleaseInvoicedEntries", f.ctx, f.tenantID, inv.ID)
}

func TestInvoiceService_VoidRollsBackOnReleaseFailure(t *testing.T) {
	f := newInvoiceFixture()
	inv := draftInvoice(t, f, "ava@example.com")
	f.invoices.On("SaveWithLock", f.ctx, inv).Return(nil)
	f.timesheets.On("ReleaseInvoicedEntries", f.ctx, f.tenantID, inv.ID).Return(errors.New("db down"))

	_, err := f.svc.Void(f.ctx, f.tenantID, inv.ID, VoidRequest{Reason: "wrong payer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to release timesheet entries")
}

func TestInvoiceService_ManualLines(t *testing.T) {
	f := newInvoiceFixture()
	inv := draftInvoice(t, f, "ava@example.com")
	f.invoices.On("SaveWithLock", f.ctx, inv).Return(nil)

	resp, err := f.svc.AddLine(f.ctx, f.tenantID, inv.ID, AddLineRequest{
		ServiceDate: day(2026, 10, 20),
		Description: "Parent training",
		Units:       decimal.RequireFromString("2.5"),
		Rate:        decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "175", resp.TotalAmount.String())

	manual := resp.Lines[1].ID
	resp, err = f.svc.RemoveLine(f.ctx, f.tenantID, inv.ID, manual)
	require.NoError(t, err)
	assert.Equal(t, "100", resp.TotalAmount.String())
	f.timesheets.AssertNotCalled(t, "ReleaseInvoicedEntries", mock.Anything, mock.Anything, mock.Anything)

	generated := resp.Lines[0].ID
	f.timesheets.On("ReleaseInvoicedEntries", f.ctx, f.tenantID, inv.ID).Return(nil)
	resp, err = f.svc.RemoveLine(f.ctx, f.tenantID, inv.ID, generated)
	require.NoError(t, err)
	assert.Empty(t, resp.Lines)
	f.timesheets.AssertNotCalled(t, "MarkEntriesInvoiced", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_DeleteOnlyDraft(t *testing.T) {
	f := newInvoiceFixture()
	inv := draftInvoice(t, f, "ava@example.com")
	f.invoices.On("SaveWithLock", f.ctx, inv).Return(nil)
	f.timesheets.On("ReleaseInvoicedEntries", f.ctx, f.tenantID, inv.ID).Return(nil)

	require.NoError(t, f.svc.Delete(f.ctx, f.tenantID, inv.ID))
	assert.True(t, inv.IsDeleted())

	sent := draftInvoice(t, f, "ava@example.com")
	require.NoError(t, sent.Send(day(2026, 11, 1), 30))
	assertDomainCode(t, f.svc.Delete(f.ctx, f.tenantID, sent.ID), "INVALID_STATE")
}

func TestInvoiceService_List_InvalidClient(t *testing.T) {
	f := newInvoiceFixture()
	_, _, err := f.svc.List(f.ctx, f.tenantID, InvoiceListFilter{ClientID: "nope"})
	assertDomainCode(t, err, "INVALID_INPUT")
}
