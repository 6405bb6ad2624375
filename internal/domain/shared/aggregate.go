package shared

import "github.com/google/uuid"

// AggregateRoot is an entity that collects domain events until its
// repository has persisted it
type AggregateRoot interface {
	Entity
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot holds the optimistic lock version and pending events.
// Repositories compare Version in their UPDATE and bump it on success.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns a copy of the pending events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	if len(a.pending) == 0 {
		return nil
	}
	return append([]DomainEvent(nil), a.pending...)
}

func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }

// TenantAggregateRoot is the root of every tenant-owned CareHours record
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), TenantID: tenantID}
}

// SetCreatedBy records the creating user; uuid.Nil leaves it unset
func (t *TenantAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	if userID != uuid.Nil {
		t.CreatedBy = &userID
	}
}

func (t *TenantAggregateRoot) GetTenantID() uuid.UUID { return t.TenantID }

