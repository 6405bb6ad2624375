package notification

import (
	"regexp"
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EmailStatus represents the delivery state of a queued email
type EmailStatus string

const (
	EmailStatusPending   EmailStatus = "pending"
	EmailStatusSending   EmailStatus = "sending"
	EmailStatusSent      EmailStatus = "sent"
	EmailStatusFailed    EmailStatus = "failed"
	EmailStatusCancelled EmailStatus = "cancelled"
)

// IsValid checks if the status is a known value
func (s EmailStatus) IsValid() bool {
	switch s {
	case EmailStatusPending, EmailStatusSending, EmailStatusSent, EmailStatusFailed, EmailStatusCancelled:
		return true
	}
	return false
}

const (
	// DefaultMaxAttempts is used when an item is enqueued without a limit
	DefaultMaxAttempts = 5
	// MaxBackoff caps the retry delay
	MaxBackoff = time.Hour
	// DeliveryInterrupted is the error recorded on reclaimed items
	DeliveryInterrupted = "delivery interrupted"
)

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailQueueItem is a row in the outgoing email queue
type EmailQueueItem struct {
	shared.BaseAggregateRoot
	TenantID          uuid.UUID
	To                []string
	Cc                []string
	Subject           string
	HTMLBody          string
	TextBody          string
	TemplateKey       string
	DocumentID        *uuid.UUID
	Status            EmailStatus
	Attempts          int
	MaxAttempts       int
	NextAttemptAt     time.Time
	LastError         string
	SentAt            *time.Time
	ProviderMessageID string
}

// Message carries the content of an email to enqueue
type Message struct {
	To          []string
	Cc          []string
	Subject     string
	HTMLBody    string
	TextBody    string
	TemplateKey string
	DocumentID  *uuid.UUID
}

// NewEmailQueueItem validates and creates a pending email
func NewEmailQueueItem(tenantID uuid.UUID, msg Message) (*EmailQueueItem, error) {
	to, err := normalizeAddresses(msg.To)
	if err != nil {
		return nil, err
	}
	if len(to) == 0 {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "At least one recipient is required")
	}
	cc, err := normalizeAddresses(msg.Cc)
	if err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}
	if len(subject) > 300 {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot exceed 300 characters")
	}
	if msg.HTMLBody == "" && msg.TextBody == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "Email body cannot be empty")
	}

	item := &EmailQueueItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		To:                to,
		Cc:                cc,
		Subject:           subject,
		HTMLBody:          msg.HTMLBody,
		TextBody:          msg.TextBody,
		TemplateKey:       msg.TemplateKey,
		DocumentID:        msg.DocumentID,
		Status:            EmailStatusPending,
		MaxAttempts:       DefaultMaxAttempts,
	}
	item.NextAttemptAt = item.CreatedAt
	return item, nil
}

// IsDue reports whether a pending item should be attempted at now
func (e *EmailQueueItem) IsDue(now time.Time) bool {
	return e.Status == EmailStatusPending && !e.NextAttemptAt.After(now)
}

// MarkSending claims the item for delivery
func (e *EmailQueueItem) MarkSending() error {
	if e.Status != EmailStatusPending {
		return shared.InvalidStatef("Cannot send email in %s status", e.Status)
	}
	e.Status = EmailStatusSending
	e.Attempts++
	e.Touch()
	return nil
}

// Reclaim takes back an item left sending by an interrupted drain run. The
// interrupted attempt counts, so an item out of attempts becomes failed.
func (e *EmailQueueItem) Reclaim() error {
	if e.Status != EmailStatusSending {
		return shared.InvalidStatef("Cannot reclaim email in %s status", e.Status)
	}
	e.LastError = DeliveryInterrupted
	e.Touch()
	if e.Attempts >= e.MaxAttempts {
		e.Status = EmailStatusFailed
		return nil
	}
	e.Status = EmailStatusPending
	return nil
}

// MarkSent records a successful delivery
func (e *EmailQueueItem) MarkSent(messageID string) error {
	if e.Status != EmailStatusSending {
		return shared.InvalidStatef("Cannot complete email in %s status", e.Status)
	}
	now := time.Now()
	e.Status = EmailStatusSent
	e.SentAt = &now
	e.ProviderMessageID = messageID
	e.LastError = ""
	e.Touch()
	return nil
}

// MarkFailed records a delivery failure. The item returns to pending with a
// backoff delay, or becomes failed once attempts are exhausted.
func (e *EmailQueueItem) MarkFailed(reason string, base time.Duration, now time.Time) error {
	if e.Status != EmailStatusSending {
		return shared.InvalidStatef("Cannot fail email in %s status", e.Status)
	}
	e.LastError = reason
	e.Touch()
	if e.Attempts >= e.MaxAttempts {
		e.Status = EmailStatusFailed
		return nil
	}
	e.Status = EmailStatusPending
	e.NextAttemptAt = now.Add(Backoff(base, e.Attempts))
	return nil
}

// Cancel stops a pending email from being sent
func (e *EmailQueueItem) Cancel() error {
	if e.Status != EmailStatusPending {
		return shared.InvalidStatef("Cannot cancel email in %s status", e.Status)
	}
	e.Status = EmailStatusCancelled
	e.Touch()
	return nil
}

// Retry requeues a failed email with a fresh attempt budget
func (e *EmailQueueItem) Retry() error {
	if e.Status != EmailStatusFailed {
		return shared.InvalidStatef("Cannot retry email in %s status", e.Status)
	}
	e.Status = EmailStatusPending
	e.Attempts = 0
	e.LastError = ""
	e.NextAttemptAt = time.Now()
	e.Touch()
	return nil
}

// Backoff returns base * 2^(attempts-1), capped at MaxBackoff
func Backoff(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = time.Minute
	}
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}

func normalizeAddresses(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, addr := range in {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" {
			continue
		}
		if !addressPattern.MatchString(addr) {
			return nil, shared.NewDomainError("INVALID_RECIPIENT", "Invalid email address: "+addr)
		}
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out, nil
}
