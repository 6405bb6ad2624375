package models

import (
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// PopulateAggregateRoot populates a domain BaseAggregateRoot from the model
func (m *AggregateModel) PopulateAggregateRoot(a *shared.BaseAggregateRoot) {
	a.BaseEntity = m.BaseModel.ToDomain()
	a.Version = m.Version
}

// TenantAggregateModel provides common persistence fields for tenant-scoped aggregate roots.
// Every tenant aggregate in this service is soft-deletable, so DeletedAt lives here
// and gorm adds the deleted_at IS NULL condition to queries.
type TenantAggregateModel struct {
	AggregateModel
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid;index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// FromDomainTenantAggregateRoot populates TenantAggregateModel from domain TenantAggregateRoot
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

// FromDomainSoftDeletable copies the deletion stamp
func (m *TenantAggregateModel) FromDomainSoftDeletable(s shared.SoftDeletable) {
	m.DeletedAt = DeletedAtFromDomain(s.DeletedAt)
}

// PopulateTenantAggregateRoot populates a domain TenantAggregateRoot from persistence model
func (m *TenantAggregateModel) PopulateTenantAggregateRoot(t *shared.TenantAggregateRoot) {
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	t.TenantID = m.TenantID
	t.CreatedBy = m.CreatedBy
}

// SoftDeletable returns the domain deletion marker
func (m *TenantAggregateModel) SoftDeletable() shared.SoftDeletable {
	return shared.SoftDeletable{DeletedAt: DeletedAtToDomain(m.DeletedAt)}
}

// DeletedAtFromDomain converts a nullable time into gorm's soft delete column
func DeletedAtFromDomain(t *time.Time) gorm.DeletedAt {
	if t == nil {
		return gorm.DeletedAt{}
	}
	return gorm.DeletedAt{Time: *t, Valid: true}
}

// DeletedAtToDomain converts gorm's soft delete column into a nullable time
func DeletedAtToDomain(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
