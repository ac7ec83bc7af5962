package eventrepo

import (
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"

	"github.com/google/uuid"
)

// EventDTO represents the database model for the durable event log.
type EventDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventType   string    `gorm:"not null;index"`
	EntityType  string    `gorm:"not null"`
	EntityID    string    `gorm:"not null;index"`
	Payload     []byte    `gorm:"type:jsonb"`
	Status      string    `gorm:"not null;index"`
	RetryCount  int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;index"`
	ProcessedAt *time.Time
	LastError   string
}

// TableName overrides the default GORM table name.
func (EventDTO) TableName() string {
	return "events"
}

// eventStatusFromString parses the persisted status name.
func eventStatusFromString(s string) outbox.EventStatus {
	switch s {
	case "Open":
		return outbox.StatusOpen
	case "Processing":
		return outbox.StatusProcessing
	case "Completed":
		return outbox.StatusCompleted
	case "Failed":
		return outbox.StatusFailed
	default:
		return outbox.StatusUnknown
	}
}

// fromDomain converts a domain Event into its database representation.
func fromDomain(event *outbox.Event) EventDTO {
	dto := EventDTO{
		ID:         event.ID().Bytes(),
		EventType:  event.EventType(),
		EntityType: event.EntityType(),
		EntityID:   event.EntityID(),
		Payload:    event.Payload(),
		Status:     event.Status().String(),
		RetryCount: event.RetryCount(),
		CreatedAt:  event.CreatedAt(),
		LastError:  event.LastError(),
	}

	if processed := event.ProcessedAt(); !processed.IsZero() {
		dto.ProcessedAt = &processed
	}

	return dto
}

// toDomain reconstructs the domain Event from its database representation.
func (dto EventDTO) toDomain() (*outbox.Event, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var processedAt time.Time
	if dto.ProcessedAt != nil {
		processedAt = *dto.ProcessedAt
	}

	return outbox.RestoreEvent(
		id,
		dto.EventType,
		dto.EntityType,
		dto.EntityID,
		dto.Payload,
		eventStatusFromString(dto.Status),
		dto.RetryCount,
		dto.CreatedAt,
		processedAt,
		dto.LastError,
	)
}
