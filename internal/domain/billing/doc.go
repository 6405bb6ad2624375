// Package billing provides the invoicing bounded context.
//
// Key Aggregates:
//   - Invoice: bills a client (or the client's insurance) for approved timesheet minutes
//   - CommunityClass: a scheduled group session with enrolled clients
//   - CommunityInvoice: bills one attendee for one completed community class
//
// Invoices and community invoices share the draft -> sent -> paid workflow,
// with void available before payment completes.
package billing
