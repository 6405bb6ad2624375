package models

import (
	"time"

	"github.com/carehours/backend/internal/domain/document"
	"github.com/google/uuid"
)

// FormDocumentModel is the persistence model for the FormDocument aggregate root.
type FormDocumentModel struct {
	TenantAggregateModel
	Kind        document.Kind   `gorm:"type:varchar(30);not null;index"`
	OwnerType   string          `gorm:"type:varchar(50);not null"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title       string          `gorm:"type:varchar(200);not null"`
	FileName    string          `gorm:"type:varchar(255);not null"`
	ContentType string          `gorm:"type:varchar(100);not null"`
	StorageKey  string          `gorm:"type:varchar(500);not null"`
	Size        int64           `gorm:"not null;default:0"`
	Status      document.Status `gorm:"type:varchar(20);not null;default:'pending';index"`
	Error       string          `gorm:"type:text"`
	GeneratedAt *time.Time      `gorm:"column:generated_at"`
}

// TableName returns the table name for GORM
func (FormDocumentModel) TableName() string {
	return "form_documents"
}

// ToDomain converts the persistence model to a domain FormDocument.
func (m *FormDocumentModel) ToDomain() *document.FormDocument {
	doc := &document.FormDocument{
		SoftDeletable: m.SoftDeletable(),
		Kind:          m.Kind,
		OwnerType:     m.OwnerType,
		OwnerID:       m.OwnerID,
		Title:         m.Title,
		FileName:      m.FileName,
		ContentType:   m.ContentType,
		StorageKey:    m.StorageKey,
		Size:          m.Size,
		Status:        m.Status,
		Error:         m.Error,
		GeneratedAt:   m.GeneratedAt,
	}
	m.PopulateTenantAggregateRoot(&doc.TenantAggregateRoot)
	return doc
}

// FromDomain populates the persistence model from a domain FormDocument.
func (m *FormDocumentModel) FromDomain(d *document.FormDocument) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.FromDomainSoftDeletable(d.SoftDeletable)
	m.Kind = d.Kind
	m.OwnerType = d.OwnerType
	m.OwnerID = d.OwnerID
	m.Title = d.Title
	m.FileName = d.FileName
	m.ContentType = d.ContentType
	m.StorageKey = d.StorageKey
	m.Size = d.Size
	m.Status = d.Status
	m.Error = d.Error
	m.GeneratedAt = d.GeneratedAt
}

// FormDocumentModelFromDomain creates a new persistence model from a domain FormDocument.
func FormDocumentModelFromDomain(d *document.FormDocument) *FormDocumentModel {
	m := &FormDocumentModel{}
	m.FromDomain(d)
	return m
}
