package billing

import (
	"context"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/timesheet"
)

// TransactionScope provides transactional access to the repositories touched
// by invoicing. Everything done through the repositories handed to fn is
// committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the billing repositories within a transaction.
//
// Timesheet entries carry the invoice stamp, so generating, voiding and
// deleting an invoice must write both the invoice and its source entries.
type TransactionalRepositories interface {
	InvoiceRepo() billing.InvoiceRepository
	TimesheetRepo() timesheet.Repository
	CommunityInvoiceRepo() billing.CommunityInvoiceRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used in unit tests.
type NoOpTransactionScope struct {
	invoiceRepo          billing.InvoiceRepository
	timesheetRepo        timesheet.Repository
	communityInvoiceRepo billing.CommunityInvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	timesheetRepo timesheet.Repository,
	communityInvoiceRepo billing.CommunityInvoiceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo:          invoiceRepo,
		timesheetRepo:        timesheetRepo,
		communityInvoiceRepo: communityInvoiceRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// TimesheetRepo returns the timesheet repository.
func (s *NoOpTransactionScope) TimesheetRepo() timesheet.Repository {
	return s.timesheetRepo
}

// CommunityInvoiceRepo returns the community invoice repository.
func (s *NoOpTransactionScope) CommunityInvoiceRepo() billing.CommunityInvoiceRepository {
	return s.communityInvoiceRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
