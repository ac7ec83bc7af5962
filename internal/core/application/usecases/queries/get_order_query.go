// Package queries contains read-only operations in the CQRS architecture.
// Query handlers read the database directly through raw SQL, bypassing the
// aggregates: they answer questions, they never mutate.
package queries

import (
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves one order's current state.
type GetOrderQuery struct {
	orderID kernel.UUID

	guard kernel.ConstructorGuard
}

// NewGetOrderQuery creates a query for a single order.
func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{
		orderID: orderID,
		guard:   kernel.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrderID returns the requested order's identifier.
func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetOrderQueryResponse is the order's read-model projection, including its
// routing steps in sequence order (empty until planning runs).
type GetOrderQueryResponse struct {
	ID         kernel.UUID
	ClientID   *kernel.UUID
	Method     string
	Quantity   int
	TargetDate time.Time
	Status     string
	Progress   int
	Version    int
	Steps      []GetOrderQueryStep
}

// GetOrderQueryStep is one routing step in the order projection.
type GetOrderQueryStep struct {
	Name         string
	Workcenter   string
	Sequence     int
	Status       string
	PlannedStart time.Time
	PlannedEnd   time.Time
}
