package billing

// InvoiceStatus is shared by invoices and community invoices
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
	InvoiceStatusVoid  InvoiceStatus = "void"
)

// IsValid checks if the status is a known value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true for paid and void
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// CanSend reports whether the invoice can be sent
func (s InvoiceStatus) CanSend() bool {
	return s == InvoiceStatusDraft
}

// CanApplyPayment reports whether payments can be recorded
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusSent
}

// CanVoid reports whether the invoice can be voided
func (s InvoiceStatus) CanVoid() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent
}
