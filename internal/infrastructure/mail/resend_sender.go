package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendSender delivers email through the Resend API
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
	logger  *zap.Logger
}

// ResendOption configures a ResendSender
type ResendOption func(*ResendSender)

// WithBaseURL points the client at another API host
func WithBaseURL(u *url.URL) ResendOption {
	return func(s *ResendSender) {
		s.client.BaseURL = u
	}
}

// NewResendSender creates a ResendSender
func NewResendSender(cfg config.EmailConfig, logger *zap.Logger, opts ...ResendOption) (*ResendSender, error) {
	if cfg.ResendAPIKey == "" {
		return nil, errors.New("resend API key is required")
	}
	if cfg.From == "" {
		return nil, errors.New("sender address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ResendSender{
		client:  resend.NewClient(cfg.ResendAPIKey),
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the sender name
func (s *ResendSender) Name() string { return SenderResend }

// Send delivers the email and returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipients
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      email.To,
		Cc:      email.Cc,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: s.replyTo,
	}
	for _, a := range email.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:     a.Data,
			Filename:    a.FileName,
			ContentType: a.ContentType,
		})
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	s.logger.Debug("Email delivered", zap.String("message_id", sent.Id), zap.Int("recipients", len(email.To)))
	return sent.Id, nil
}
