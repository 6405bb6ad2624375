package telemetry

import (
	"context"
	"fmt"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics turns workflow events into OTLP counters. It is subscribed
// to the event bus like any other handler.
type BusinessMetrics struct {
	timesheets     metric.Int64Counter
	billableUnits  metric.Int64Counter
	invoices       metric.Int64Counter
	invoicedAmount metric.Float64Counter
	payments       metric.Float64Counter
	payrollHours   metric.Float64Counter
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)
	if m.timesheets, err = meter.Int64Counter("carehours.timesheets.transitions",
		metric.WithDescription("Timesheet workflow transitions"), metric.WithUnit("{timesheet}")); err != nil {
		return nil, fmt.Errorf("timesheet counter: %w", err)
	}
	if m.billableUnits, err = meter.Int64Counter("carehours.timesheets.approved_units",
		metric.WithDescription("Billable units on approved timesheets"), metric.WithUnit("{unit}")); err != nil {
		return nil, fmt.Errorf("units counter: %w", err)
	}
	if m.invoices, err = meter.Int64Counter("carehours.invoices.transitions",
		metric.WithDescription("Invoice workflow transitions"), metric.WithUnit("{invoice}")); err != nil {
		return nil, fmt.Errorf("invoice counter: %w", err)
	}
	if m.invoicedAmount, err = meter.Float64Counter("carehours.invoices.sent_amount",
		metric.WithDescription("Total amount of invoices sent"), metric.WithUnit("{currency}")); err != nil {
		return nil, fmt.Errorf("invoiced amount counter: %w", err)
	}
	if m.payments, err = meter.Float64Counter("carehours.invoices.paid_amount",
		metric.WithDescription("Payments recorded against invoices"), metric.WithUnit("{currency}")); err != nil {
		return nil, fmt.Errorf("payment counter: %w", err)
	}
	if m.payrollHours, err = meter.Float64Counter("carehours.payroll.processed_hours",
		metric.WithDescription("Hours in processed payroll imports"), metric.WithUnit("h")); err != nil {
		return nil, fmt.Errorf("payroll counter: %w", err)
	}
	return &m, nil
}

// EventTypes lists the events that move a counter
func (m *BusinessMetrics) EventTypes() []string {
	return []string{
		timesheet.EventTypeTimesheetSubmitted,
		timesheet.EventTypeTimesheetApproved,
		timesheet.EventTypeTimesheetRejected,
		billing.EventTypeInvoiceSent,
		billing.EventTypeInvoicePaid,
		billing.EventTypeInvoiceVoided,
		billing.EventTypeCommunityInvoiceSent,
		billing.EventTypeCommunityInvoicePaid,
		payroll.EventTypePayrollProcessed,
	}
}

// Handle records the event. Unknown payload types are ignored.
func (m *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := AttrTenantID.String(event.TenantID().String())
	transition := attribute.String("event", event.EventType())

	switch e := event.(type) {
	case *timesheet.TimesheetEvent:
		m.timesheets.Add(ctx, 1, metric.WithAttributes(tenant, transition))
		if e.EventType() == timesheet.EventTypeTimesheetApproved {
			m.billableUnits.Add(ctx, int64(e.BillableUnits), metric.WithAttributes(tenant))
		}
	case *billing.InvoiceEvent:
		kind := attribute.String("invoice.kind", "service")
		m.invoices.Add(ctx, 1, metric.WithAttributes(tenant, transition, kind))
		switch e.EventType() {
		case billing.EventTypeInvoiceSent:
			m.invoicedAmount.Add(ctx, e.TotalAmount.InexactFloat64(), metric.WithAttributes(tenant, kind))
		case billing.EventTypeInvoicePaid:
			m.payments.Add(ctx, e.PaidAmount.InexactFloat64(), metric.WithAttributes(tenant, kind))
		}
	case *billing.CommunityInvoiceEvent:
		kind := attribute.String("invoice.kind", "community")
		m.invoices.Add(ctx, 1, metric.WithAttributes(tenant, transition, kind))
		switch e.EventType() {
		case billing.EventTypeCommunityInvoiceSent:
			m.invoicedAmount.Add(ctx, e.Amount.InexactFloat64(), metric.WithAttributes(tenant, kind))
		case billing.EventTypeCommunityInvoicePaid:
			m.payments.Add(ctx, e.Amount.InexactFloat64(), metric.WithAttributes(tenant, kind))
		}
	case *payroll.PayrollEvent:
		m.payrollHours.Add(ctx, e.TotalHours.InexactFloat64(), metric.WithAttributes(tenant))
	}
	return nil
}
