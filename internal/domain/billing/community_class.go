package billing

import (
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClassStatus represents the lifecycle of a community class
type ClassStatus string

const (
	ClassStatusScheduled ClassStatus = "scheduled"
	ClassStatusCompleted ClassStatus = "completed"
	ClassStatusCancelled ClassStatus = "cancelled"
)

// IsValid checks if the status is a known value
func (s ClassStatus) IsValid() bool {
	switch s {
	case ClassStatusScheduled, ClassStatusCompleted, ClassStatusCancelled:
		return true
	}
	return false
}

// CommunityClass is a group session billed per attendee by the hour
type CommunityClass struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Name          string
	Description   string
	InstructorID  *uuid.UUID
	ScheduledAt   time.Time
	DurationHours decimal.Decimal
	RatePerUnit   decimal.Decimal
	Capacity      int
	Status        ClassStatus
	AttendeeIDs   []uuid.UUID
	CompletedAt   *time.Time
	CancelledAt   *time.Time
}

// ClassDetails carries the editable fields of a class
type ClassDetails struct {
	Name          string
	Description   string
	InstructorID  *uuid.UUID
	ScheduledAt   time.Time
	DurationHours decimal.Decimal
	RatePerUnit   decimal.Decimal
	Capacity      int
}

// NewCommunityClass creates a scheduled class
func NewCommunityClass(tenantID uuid.UUID, d ClassDetails) (*CommunityClass, error) {
	c := &CommunityClass{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              ClassStatusScheduled,
		AttendeeIDs:         make([]uuid.UUID, 0),
	}
	if err := c.apply(d); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewClassEvent(EventTypeClassCreated, c))
	return c, nil
}

// Update changes the class details while scheduled
func (c *CommunityClass) Update(d ClassDetails) error {
	if c.Status != ClassStatusScheduled {
		return shared.InvalidStatef("Cannot edit class in %s status", c.Status)
	}
	if d.Capacity > 0 && d.Capacity < len(c.AttendeeIDs) {
		return shared.NewDomainError("CAPACITY_TOO_LOW", "Capacity cannot be below the current enrollment")
	}
	if err := c.apply(d); err != nil {
		return err
	}
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Enroll adds a client to the class
func (c *CommunityClass) Enroll(clientID uuid.UUID) error {
	if c.Status != ClassStatusScheduled {
		return shared.InvalidStatef("Cannot enroll into class in %s status", c.Status)
	}
	if clientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if c.IsEnrolled(clientID) {
		return shared.NewDomainError("ALREADY_ENROLLED", "Client is already enrolled")
	}
	if c.IsFull() {
		return shared.NewDomainError("CLASS_FULL", "Class has reached its capacity")
	}
	c.AttendeeIDs = append(c.AttendeeIDs, clientID)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Unenroll removes a client from the class
func (c *CommunityClass) Unenroll(clientID uuid.UUID) error {
	if c.Status != ClassStatusScheduled {
		return shared.InvalidStatef("Cannot change enrollment of class in %s status", c.Status)
	}
	for i, id := range c.AttendeeIDs {
		if id == clientID {
			c.AttendeeIDs = append(c.AttendeeIDs[:i], c.AttendeeIDs[i+1:]...)
			c.Touch()
			c.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("NOT_ENROLLED", "Client is not enrolled")
}

// Complete marks the class as held
func (c *CommunityClass) Complete() error {
	if c.Status != ClassStatusScheduled {
		return shared.InvalidStatef("Cannot complete class in %s status", c.Status)
	}
	now := time.Now()
	c.Status = ClassStatusCompleted
	c.CompletedAt = &now
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewClassEvent(EventTypeClassCompleted, c))
	return nil
}

// Cancel calls the class off
func (c *CommunityClass) Cancel() error {
	if c.Status != ClassStatusScheduled {
		return shared.InvalidStatef("Cannot cancel class in %s status", c.Status)
	}
	now := time.Now()
	c.Status = ClassStatusCancelled
	c.CancelledAt = &now
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewClassEvent(EventTypeClassCancelled, c))
	return nil
}

// Delete soft-deletes a class that is not completed
func (c *CommunityClass) Delete() error {
	if c.Status == ClassStatusCompleted {
		return shared.InvalidStatef("Cannot delete a completed class")
	}
	c.MarkDeleted()
	c.Touch()
	c.IncrementVersion()
	return nil
}

// IsEnrolled reports whether the client attends the class
func (c *CommunityClass) IsEnrolled(clientID uuid.UUID) bool {
	for _, id := range c.AttendeeIDs {
		if id == clientID {
			return true
		}
	}
	return false
}

// IsFull reports whether capacity is reached. Zero capacity means unlimited.
func (c *CommunityClass) IsFull() bool {
	return c.Capacity > 0 && len(c.AttendeeIDs) >= c.Capacity
}

func (c *CommunityClass) apply(d ClassDetails) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Class name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Class name cannot exceed 200 characters")
	}
	if d.ScheduledAt.IsZero() {
		return shared.NewDomainError("INVALID_SCHEDULE", "Scheduled time is required")
	}
	if !d.DurationHours.IsPositive() {
		return shared.NewDomainError("INVALID_DURATION", "Duration must be positive")
	}
	if d.DurationHours.GreaterThan(decimal.NewFromInt(24)) {
		return shared.NewDomainError("INVALID_DURATION", "Duration cannot exceed 24 hours")
	}
	if d.RatePerUnit.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Rate cannot be negative")
	}
	if d.Capacity < 0 {
		return shared.NewDomainError("INVALID_CAPACITY", "Capacity cannot be negative")
	}

	c.Name = name
	c.Description = strings.TrimSpace(d.Description)
	c.InstructorID = d.InstructorID
	c.ScheduledAt = d.ScheduledAt
	c.DurationHours = d.DurationHours
	c.RatePerUnit = d.RatePerUnit
	c.Capacity = d.Capacity
	return nil
}
