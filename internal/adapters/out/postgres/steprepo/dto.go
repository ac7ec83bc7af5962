package steprepo

import (
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/routing"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StepDTO represents the database model for persisting routing steps.
// Dependencies are stored as a Postgres text array; join type and status by
// name.
type StepDTO struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name         string         `gorm:"not null"`
	Workcenter   string         `gorm:"not null"`
	Sequence     int            `gorm:"not null"`
	DependsOn    pq.StringArray `gorm:"type:text[]"`
	JoinType     string         `gorm:"not null"`
	Status       string         `gorm:"not null"`
	PlannedStart *time.Time
	PlannedEnd   *time.Time
}

// TableName overrides the default GORM table name.
func (StepDTO) TableName() string {
	return "routing_steps"
}

// stepStatusFromString parses the persisted status name.
func stepStatusFromString(s string) routing.StepStatus {
	switch s {
	case "Planned":
		return routing.StepPlanned
	case "Ready":
		return routing.StepReady
	case "InProgress":
		return routing.StepInProgress
	case "Done":
		return routing.StepDone
	default:
		return routing.StepUnknown
	}
}

// fromDomain converts a domain Step into its database representation.
func fromDomain(step *routing.Step) StepDTO {
	dto := StepDTO{
		ID:         step.ID().Bytes(),
		OrderID:    step.OrderID().Bytes(),
		Name:       step.Name(),
		Workcenter: step.Workcenter(),
		Sequence:   step.Sequence(),
		DependsOn:  pq.StringArray(step.DependsOn()),
		JoinType:   step.JoinType().String(),
		Status:     step.Status().String(),
	}

	if start := step.PlannedStart(); !start.IsZero() {
		dto.PlannedStart = &start
	}
	if end := step.PlannedEnd(); !end.IsZero() {
		dto.PlannedEnd = &end
	}

	return dto
}

// toDomain reconstructs the domain Step from its database representation.
func (dto StepDTO) toDomain() (*routing.Step, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	joinType, err := routing.JoinTypeFromString(dto.JoinType)
	if err != nil {
		return nil, err
	}

	var plannedStart, plannedEnd time.Time
	if dto.PlannedStart != nil {
		plannedStart = *dto.PlannedStart
	}
	if dto.PlannedEnd != nil {
		plannedEnd = *dto.PlannedEnd
	}

	return routing.RestoreStep(
		id,
		orderID,
		dto.Name,
		dto.Workcenter,
		dto.Sequence,
		dto.DependsOn,
		joinType,
		stepStatusFromString(dto.Status),
		plannedStart,
		plannedEnd,
	)
}
