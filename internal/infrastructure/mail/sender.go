// Package mail delivers outgoing email through a configured provider.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/carehours/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Sender names
const (
	SenderLog    = "log"
	SenderResend = "resend"
)

// ErrNoRecipients is returned when an email has no To address
var ErrNoRecipients = errors.New("mail: no recipients")

// Attachment is a file sent with an email
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Email is a fully rendered message ready for delivery
type Email struct {
	To          []string
	Cc          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers an email and returns the provider message ID
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
	Name() string
}

// NewSender creates the sender selected by cfg.Sender
func NewSender(cfg config.EmailConfig, logger *zap.Logger) (Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Sender {
	case "", SenderLog:
		return NewLogSender(logger), nil
	case SenderResend:
		return NewResendSender(cfg, logger)
	}
	return nil, fmt.Errorf("unknown email sender %q", cfg.Sender)
}
