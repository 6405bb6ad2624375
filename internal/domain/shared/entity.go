package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with an identity of its own
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries the ID and the audit timestamps mapped by every table
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

// Touch stamps UpdatedAt; domain methods call it on every state change
func (e *BaseEntity) Touch() { e.UpdatedAt = time.Now() }

// SoftDeletable records are hidden by a deleted_at filter instead of being
// removed. Numbered documents keep their rows so numbers are never reused.
type SoftDeletable struct {
	DeletedAt *time.Time
}

func (s *SoftDeletable) IsDeleted() bool { return s.DeletedAt != nil }

func (s *SoftDeletable) MarkDeleted() {
	now := time.Now()
	s.DeletedAt = &now
}
