package billing

import (
	"context"

	appdocument "github.com/carehours/backend/internal/application/document"
	"github.com/carehours/backend/internal/domain/document"
	"github.com/carehours/backend/internal/domain/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentGenerator renders a business record to a stored PDF
type DocumentGenerator interface {
	Generate(ctx context.Context, tenantID uuid.UUID, req appdocument.GenerateDocumentRequest) (*appdocument.DocumentResponse, error)
}

// Mailer queues outgoing email
type Mailer interface {
	EnqueueMessage(ctx context.Context, tenantID uuid.UUID, msg notification.Message) (*notification.EmailQueueItem, error)
}

// Options holds invoicing defaults
type Options struct {
	PaymentTermsDays int
	CompanyName      string
	Currency         string
}

// DefaultOptions returns net-30 terms in USD
func DefaultOptions() Options {
	return Options{PaymentTermsDays: 30, CompanyName: "CareHours", Currency: "USD"}
}

// deliverer renders the invoice PDF and queues the email that carries it.
// Neither step fails the send: the invoice is already issued when they run.
type deliverer struct {
	docs   DocumentGenerator
	mailer Mailer
	logger *zap.Logger
}

type deliveryRequest struct {
	kind        document.Kind
	ownerID     uuid.UUID
	to          string
	subject     string
	body        string
	templateKey string
}

func (d deliverer) deliver(ctx context.Context, tenantID uuid.UUID, req deliveryRequest) Delivery {
	log := d.logger.With(zap.String("kind", string(req.kind)), zap.String("owner_id", req.ownerID.String()))
	var out Delivery

	if d.docs != nil {
		doc, err := d.docs.Generate(ctx, tenantID, appdocument.GenerateDocumentRequest{Kind: string(req.kind), OwnerID: req.ownerID})
		switch {
		case err != nil:
			log.Warn("Invoice PDF generation failed", zap.Error(err))
			out.Warning = "PDF generation failed: " + err.Error()
			return out
		case doc.Status != string(document.StatusGenerated):
			log.Warn("Invoice PDF generation failed", zap.String("error", doc.Error))
			out.DocumentID = &doc.ID
			out.Warning = "PDF generation failed: " + doc.Error
			return out
		}
		out.DocumentID = &doc.ID
	}

	if d.mailer == nil {
		return out
	}
	item, err := d.mailer.EnqueueMessage(ctx, tenantID, notification.Message{
		To:          []string{req.to},
		Subject:     req.subject,
		TextBody:    req.body,
		TemplateKey: req.templateKey,
		DocumentID:  out.DocumentID,
	})
	if err != nil {
		log.Warn("Failed to enqueue invoice email", zap.Error(err))
		out.Warning = "Email could not be queued: " + err.Error()
		return out
	}
	out.EmailID = &item.ID
	return out
}
