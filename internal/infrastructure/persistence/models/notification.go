package models

import (
	"encoding/json"
	"time"

	"github.com/carehours/backend/internal/domain/notification"
	"github.com/google/uuid"
)

// EmailQueueModel is the persistence model for an EmailQueueItem.
// Recipient lists are stored as JSON arrays.
type EmailQueueModel struct {
	AggregateModel
	TenantID          uuid.UUID                `gorm:"type:uuid;not null;index"`
	ToJSON            string                   `gorm:"column:to_addresses;type:jsonb;not null;default:'[]'"`
	CcJSON            string                   `gorm:"column:cc_addresses;type:jsonb;not null;default:'[]'"`
	Subject           string                   `gorm:"type:varchar(300);not null"`
	HTMLBody          string                   `gorm:"column:html_body;type:text"`
	TextBody          string                   `gorm:"type:text"`
	TemplateKey       string                   `gorm:"type:varchar(100);index"`
	DocumentID        *uuid.UUID               `gorm:"type:uuid"`
	Status            notification.EmailStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Attempts          int                      `gorm:"not null;default:0"`
	MaxAttempts       int                      `gorm:"not null;default:5"`
	NextAttemptAt     time.Time                `gorm:"not null"`
	LastError         string                   `gorm:"type:text"`
	SentAt            *time.Time               `gorm:"column:sent_at"`
	ProviderMessageID string                   `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (EmailQueueModel) TableName() string {
	return "email_queue"
}

// ToDomain converts the persistence model to a domain EmailQueueItem.
func (m *EmailQueueModel) ToDomain() *notification.EmailQueueItem {
	item := &notification.EmailQueueItem{
		TenantID:          m.TenantID,
		To:                decodeStrings(m.ToJSON),
		Cc:                decodeStrings(m.CcJSON),
		Subject:           m.Subject,
		HTMLBody:          m.HTMLBody,
		TextBody:          m.TextBody,
		TemplateKey:       m.TemplateKey,
		DocumentID:        m.DocumentID,
		Status:            m.Status,
		Attempts:          m.Attempts,
		MaxAttempts:       m.MaxAttempts,
		NextAttemptAt:     m.NextAttemptAt,
		LastError:         m.LastError,
		SentAt:            m.SentAt,
		ProviderMessageID: m.ProviderMessageID,
	}
	m.PopulateAggregateRoot(&item.BaseAggregateRoot)
	return item
}

// FromDomain populates the persistence model from a domain EmailQueueItem.
func (m *EmailQueueModel) FromDomain(item *notification.EmailQueueItem) {
	m.FromDomainAggregateRoot(item.BaseAggregateRoot)
	m.TenantID = item.TenantID
	m.ToJSON = encodeStrings(item.To)
	m.CcJSON = encodeStrings(item.Cc)
	m.Subject = item.Subject
	m.HTMLBody = item.HTMLBody
	m.TextBody = item.TextBody
	m.TemplateKey = item.TemplateKey
	m.DocumentID = item.DocumentID
	m.Status = item.Status
	m.Attempts = item.Attempts
	m.MaxAttempts = item.MaxAttempts
	m.NextAttemptAt = item.NextAttemptAt
	m.LastError = item.LastError
	m.SentAt = item.SentAt
	m.ProviderMessageID = item.ProviderMessageID
}

// EmailQueueModelFromDomain creates a new persistence model from a domain EmailQueueItem.
func EmailQueueModelFromDomain(item *notification.EmailQueueItem) *EmailQueueModel {
	m := &EmailQueueModel{}
	m.FromDomain(item)
	return m
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStrings(raw string) []string {
	values := make([]string, 0)
	if raw == "" {
		return values
	}
	_ = json.Unmarshal([]byte(raw), &values)
	return values
}
