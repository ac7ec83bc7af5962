package orderrepo

import (
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database model for persisting Order aggregates.
// Statuses are stored by name so the table stays readable in plain SQL.
type OrderDTO struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID   *uuid.UUID `gorm:"type:uuid"`
	Method     string     `gorm:"not null"`
	Quantity   int        `gorm:"not null"`
	TargetDate *time.Time
	Status     string `gorm:"not null;index"`
	Progress   int    `gorm:"not null;default:0"`
	Version    int    `gorm:"not null;default:0"`
}

// TableName overrides the default GORM table name.
func (OrderDTO) TableName() string {
	return "orders"
}

// fromDomain converts a domain Order into its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:       aggregate.ID().Bytes(),
		Method:   aggregate.Method(),
		Quantity: aggregate.Quantity(),
		Status:   aggregate.Status().String(),
		Progress: aggregate.Progress(),
		Version:  aggregate.Version(),
	}

	if client := aggregate.Client(); client != nil {
		id := client.Bytes()
		dto.ClientID = &id
	}

	if target := aggregate.TargetDate(); !target.IsZero() {
		dto.TargetDate = &target
	}

	return dto
}

// toDomain reconstructs the domain Order from its database representation.
func (dto OrderDTO) toDomain() (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var clientID *kernel.UUID
	if dto.ClientID != nil {
		client, clientErr := kernel.UUIDFromBytes(dto.ClientID[:])
		if clientErr != nil {
			return nil, clientErr
		}
		clientID = &client
	}

	var targetDate time.Time
	if dto.TargetDate != nil {
		targetDate = *dto.TargetDate
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id,
		clientID,
		dto.Method,
		dto.Quantity,
		targetDate,
		status,
		dto.Progress,
		dto.Version,
	)
}
