package notification

import (
	"time"

	"github.com/carehours/backend/internal/domain/notification"
	"github.com/google/uuid"
)

// EnqueueEmailRequest queues an email for delivery
type EnqueueEmailRequest struct {
	To          []string   `json:"to" binding:"required,min=1,dive,email"`
	Cc          []string   `json:"cc" binding:"omitempty,dive,email"`
	Subject     string     `json:"subject" binding:"required,max=300"`
	HTMLBody    string     `json:"html_body"`
	TextBody    string     `json:"text_body"`
	TemplateKey string     `json:"template_key" binding:"max=100"`
	DocumentID  *uuid.UUID `json:"document_id"`
}

// EmailListFilter filters the email queue listing
type EmailListFilter struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status      string `form:"status" binding:"omitempty,oneof=pending sending sent failed cancelled"`
	TemplateKey string `form:"template_key"`
}

// EmailResponse represents a queued email
type EmailResponse struct {
	ID                uuid.UUID  `json:"id"`
	To                []string   `json:"to"`
	Cc                []string   `json:"cc,omitempty"`
	Subject           string     `json:"subject"`
	TemplateKey       string     `json:"template_key,omitempty"`
	DocumentID        *uuid.UUID `json:"document_id,omitempty"`
	Status            string     `json:"status"`
	Attempts          int        `json:"attempts"`
	MaxAttempts       int        `json:"max_attempts"`
	NextAttemptAt     time.Time  `json:"next_attempt_at"`
	LastError         string     `json:"last_error,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToEmailResponse converts a queue item to a response DTO
func ToEmailResponse(e *notification.EmailQueueItem) EmailResponse {
	return EmailResponse{
		ID:                e.ID,
		To:                e.To,
		Cc:                e.Cc,
		Subject:           e.Subject,
		TemplateKey:       e.TemplateKey,
		DocumentID:        e.DocumentID,
		Status:            string(e.Status),
		Attempts:          e.Attempts,
		MaxAttempts:       e.MaxAttempts,
		NextAttemptAt:     e.NextAttemptAt,
		LastError:         e.LastError,
		SentAt:            e.SentAt,
		ProviderMessageID: e.ProviderMessageID,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}
