package billing

import (
	"context"
	"time"

	appdocument "github.com/carehours/backend/internal/application/document"
	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *billing.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, inv *billing.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvoiceRepository) AttachDocument(ctx context.Context, tenantID, id, documentID uuid.UUID) error {
	return m.Called(ctx, tenantID, id, documentID).Error(0)
}

func (m *MockInvoiceRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockTimesheetRepository mocks the entry stamping calls used by billing
type MockTimesheetRepository struct {
	mock.Mock
	timesheet.Repository
}

func (m *MockTimesheetRepository) FindBillableEntries(ctx context.Context, tenantID, clientID uuid.UUID, from, to time.Time) ([]timesheet.BillableEntry, error) {
	args := m.Called(ctx, tenantID, clientID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]timesheet.BillableEntry), args.Error(1)
}

func (m *MockTimesheetRepository) MarkEntriesInvoiced(ctx context.Context, tenantID uuid.UUID, entryIDs []uuid.UUID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, entryIDs, invoiceID).Error(0)
}

func (m *MockTimesheetRepository) ReleaseInvoicedEntries(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, invoiceID).Error(0)
}

type MockClientRepository struct {
	mock.Mock
	directory.ClientRepository
}

func (m *MockClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]directory.Client, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]directory.Client), args.Error(1)
}

type MockInsuranceRepository struct {
	mock.Mock
	directory.InsuranceRepository
}

func (m *MockInsuranceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Insurance, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Insurance), args.Error(1)
}

type MockClassRepository struct {
	mock.Mock
}

func (m *MockClassRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.CommunityClass, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CommunityClass), args.Error(1)
}

func (m *MockClassRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.CommunityClass, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.CommunityClass), args.Error(1)
}

func (m *MockClassRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClassRepository) Save(ctx context.Context, class *billing.CommunityClass) error {
	return m.Called(ctx, class).Error(0)
}

type MockCommunityInvoiceRepository struct {
	mock.Mock
}

func (m *MockCommunityInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.CommunityInvoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CommunityInvoice), args.Error(1)
}

func (m *MockCommunityInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.CommunityInvoice, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.CommunityInvoice), args.Error(1)
}

func (m *MockCommunityInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommunityInvoiceRepository) FindBilledClientIDs(ctx context.Context, tenantID, classID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockCommunityInvoiceRepository) Save(ctx context.Context, ci *billing.CommunityInvoice) error {
	return m.Called(ctx, ci).Error(0)
}

func (m *MockCommunityInvoiceRepository) AttachDocument(ctx context.Context, tenantID, id, documentID uuid.UUID) error {
	return m.Called(ctx, tenantID, id, documentID).Error(0)
}

func (m *MockCommunityInvoiceRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// fakeDocuments returns a generated document unless failWith is set
type fakeDocuments struct {
	requests []appdocument.GenerateDocumentRequest
	failWith string
}

func (f *fakeDocuments) Generate(_ context.Context, _ uuid.UUID, req appdocument.GenerateDocumentRequest) (*appdocument.DocumentResponse, error) {
	f.requests = append(f.requests, req)
	resp := &appdocument.DocumentResponse{ID: uuid.New(), Kind: req.Kind, OwnerID: req.OwnerID, Status: "generated"}
	if f.failWith != "" {
		resp.Status = "failed"
		resp.Error = f.failWith
	}
	return resp, nil
}

type fakeMailer struct {
	messages []notification.Message
}

func (f *fakeMailer) EnqueueMessage(_ context.Context, tenantID uuid.UUID, msg notification.Message) (*notification.EmailQueueItem, error) {
	f.messages = append(f.messages, msg)
	return notification.NewEmailQueueItem(tenantID, msg)
}
