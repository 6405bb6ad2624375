package persistence

import (
	"context"

	appbilling "github.com/carehours/backend/internal/application/billing"
	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/timesheet"
	"gorm.io/gorm"
)

// GormBillingTransactionScope implements billing TransactionScope using GORM transactions.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope.
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBillingRepositories{tx: tx})
	})
}

// gormBillingRepositories hands out repositories bound to one transaction.
type gormBillingRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormBillingRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// TimesheetRepo returns the timesheet repository scoped to the current transaction.
func (r *gormBillingRepositories) TimesheetRepo() timesheet.Repository {
	return NewGormTimesheetRepository(r.tx)
}

// CommunityInvoiceRepo returns the community invoice repository scoped to the current transaction.
func (r *gormBillingRepositories) CommunityInvoiceRepo() billing.CommunityInvoiceRepository {
	return NewGormCommunityInvoiceRepository(r.tx)
}

var _ appbilling.TransactionScope = (*GormBillingTransactionScope)(nil)
var _ appbilling.TransactionalRepositories = (*gormBillingRepositories)(nil)
