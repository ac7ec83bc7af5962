package queries

import (
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
)

var ErrGetFailedEventsQueryIsNotConstructed = errors.New(
	"GetFailedEventsQuery must be created via NewGetFailedEventsQuery constructor",
)

// GetFailedEventsQuery retrieves events that exhausted their retry budget.
// The operational dashboard for events needing manual intervention.
type GetFailedEventsQuery struct {
	guard kernel.ConstructorGuard
}

// NewGetFailedEventsQuery creates a query for terminally failed events.
func NewGetFailedEventsQuery() GetFailedEventsQuery {
	return GetFailedEventsQuery{guard: kernel.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetFailedEventsQuery) Validate() error {
	return q.guard.Validate(ErrGetFailedEventsQueryIsNotConstructed)
}

// GetFailedEventsQueryResponse is one parked event.
type GetFailedEventsQueryResponse struct {
	ID         kernel.UUID
	EventType  string
	EntityType string
	EntityID   string
	RetryCount int
	LastError  string
	CreatedAt  time.Time
}
