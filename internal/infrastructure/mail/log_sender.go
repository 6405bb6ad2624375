package mail

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender writes emails to the log instead of delivering them
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the sender name
func (s *LogSender) Name() string { return SenderLog }

// Send logs the email and returns a generated message ID
func (s *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(email.To) == 0 {
		return "", ErrNoRecipients
	}

	names := make([]string, len(email.Attachments))
	for i, a := range email.Attachments {
		names[i] = a.FileName
	}
	id := "log-" + uuid.NewString()
	s.logger.Info("Email sent",
		zap.String("message_id", id),
		zap.Strings("to", email.To),
		zap.Strings("cc", email.Cc),
		zap.String("subject", email.Subject),
		zap.Int("html_bytes", len(email.HTML)),
		zap.Strings("attachments", names))
	return id, nil
}
