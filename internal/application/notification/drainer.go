package notification

import (
	"context"
	"fmt"
	"time"

	documentapp "github.com/carehours/backend/internal/application/document"
	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/infrastructure/mail"
	"github.com/carehours/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DrainJobName is the scheduler name of the drainer
const DrainJobName = "email_drain"

// AttachmentLoader loads a generated document for attaching to an email
type AttachmentLoader interface {
	LoadAttachment(ctx context.Context, tenantID, id uuid.UUID) (*documentapp.Attachment, error)
}

// DrainerConfig holds drainer settings
type DrainerConfig struct {
	BatchSize    int
	RetryBase    time.Duration
	SendTimeout  time.Duration
	SendingLease time.Duration
}

// DrainResult counts what one drain run did
type DrainResult struct {
	Claimed int
	Sent    int
	Retried int
	Failed  int
}

// Drainer claims due queue rows and delivers them
type Drainer struct {
	repo        notification.EmailQueueRepository
	sender      mail.Sender
	attachments AttachmentLoader
	config      DrainerConfig
	now         func() time.Time
	logger      *zap.Logger
}

// NewDrainer creates a new Drainer
func NewDrainer(repo notification.EmailQueueRepository, sender mail.Sender, attachments AttachmentLoader, cfg DrainerConfig, logger *zap.Logger) *Drainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Minute
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.SendingLease <= cfg.SendTimeout {
		cfg.SendingLease = 10 * time.Minute
	}
	return &Drainer{
		repo:        repo,
		sender:      sender,
		attachments: attachments,
		config:      cfg,
		now:         time.Now,
		logger:      logger,
	}
}

// Name returns the scheduler job name
func (d *Drainer) Name() string { return DrainJobName }

// Run drains one batch; it satisfies the scheduler job interface
func (d *Drainer) Run(ctx context.Context) error {
	_, err := d.Drain(ctx)
	return err
}

// Drain claims up to BatchSize due emails and sends each one. Delivery
// failures are recorded on the rows; only claim errors are returned.
func (d *Drainer) Drain(ctx context.Context) (result DrainResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "email", "drain", telemetry.AttrJob.String(DrainJobName))
	defer func() { telemetry.EndSpan(span, err) }()

	items, err := d.repo.ClaimDue(ctx, d.now(), d.config.SendingLease, d.config.BatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to claim emails: %w", err)
	}
	result.Claimed = len(items)
	span.SetAttributes(telemetry.AttrBatchSize.Int(result.Claimed))

	for i := range items {
		item := &items[i]
		switch d.deliver(ctx, item) {
		case notification.EmailStatusSent:
			result.Sent++
		case notification.EmailStatusFailed:
			result.Failed++
		default:
			result.Retried++
		}
	}

	telemetry.RecordEmailOutcome(telemetry.EmailOutcomeSent, result.Sent)
	telemetry.RecordEmailOutcome(telemetry.EmailOutcomeRetried, result.Retried)
	telemetry.RecordEmailOutcome(telemetry.EmailOutcomeFailed, result.Failed)
	d.updateQueueDepth(ctx)

	if result.Claimed > 0 {
		d.logger.Info("Email queue drained",
			zap.String("sender", d.sender.Name()),
			zap.Int("claimed", result.Claimed),
			zap.Int("sent", result.Sent),
			zap.Int("retried", result.Retried),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

// deliver sends one claimed item and persists the outcome
func (d *Drainer) deliver(ctx context.Context, item *notification.EmailQueueItem) notification.EmailStatus {
	log := d.logger.With(
		zap.String("email_id", item.ID.String()),
		zap.String("tenant_id", item.TenantID.String()),
		zap.Int("attempt", item.Attempts))

	messageID, err := d.send(ctx, item)
	if err != nil {
		if markErr := item.MarkFailed(err.Error(), d.config.RetryBase, d.now()); markErr != nil {
			log.Error("Failed to record email failure", zap.Error(markErr))
		}
		log.Warn("Email delivery failed",
			zap.String("status", string(item.Status)),
			zap.Time("next_attempt_at", item.NextAttemptAt),
			zap.Error(err))
	} else if markErr := item.MarkSent(messageID); markErr != nil {
		log.Error("Failed to record email delivery", zap.Error(markErr))
	}

	if err := d.repo.Save(ctx, item); err != nil {
		log.Error("Failed to save email status", zap.String("status", string(item.Status)), zap.Error(err))
	}
	return item.Status
}

func (d *Drainer) send(ctx context.Context, item *notification.EmailQueueItem) (string, error) {
	email := &mail.Email{
		To:      item.To,
		Cc:      item.Cc,
		Subject: item.Subject,
		HTML:    item.HTMLBody,
		Text:    item.TextBody,
	}
	if item.DocumentID != nil {
		if d.attachments == nil {
			return "", fmt.Errorf("attachment %s: no document loader configured", item.DocumentID)
		}
		att, err := d.attachments.LoadAttachment(ctx, item.TenantID, *item.DocumentID)
		if err != nil {
			return "", fmt.Errorf("attachment %s: %w", item.DocumentID, err)
		}
		email.Attachments = []mail.Attachment{{FileName: att.FileName, ContentType: att.ContentType, Data: att.Data}}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()
	return d.sender.Send(sendCtx, email)
}

func (d *Drainer) updateQueueDepth(ctx context.Context) {
	counts, err := d.repo.CountByStatus(ctx)
	if err != nil {
		d.logger.Warn("Failed to count email queue", zap.Error(err))
		return
	}
	depth := make(map[string]int64, len(counts))
	for status, n := range counts {
		depth[string(status)] = n
	}
	telemetry.SetEmailQueueDepth(depth)
}
