package queries

import (
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
)

var ErrGetAuditTrailQueryIsNotConstructed = errors.New(
	"GetAuditTrailQuery must be created via NewGetAuditTrailQuery constructor",
)

// GetAuditTrailQuery retrieves an order's transition history, newest first.
type GetAuditTrailQuery struct {
	orderID kernel.UUID

	guard kernel.ConstructorGuard
}

// NewGetAuditTrailQuery creates a query for an order's audit trail.
func NewGetAuditTrailQuery(orderID kernel.UUID) (GetAuditTrailQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetAuditTrailQuery{}, err
	}

	return GetAuditTrailQuery{
		orderID: orderID,
		guard:   kernel.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetAuditTrailQuery) Validate() error {
	return q.guard.Validate(ErrGetAuditTrailQueryIsNotConstructed)
}

// OrderID returns the order whose trail is requested.
func (q GetAuditTrailQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetAuditTrailQueryResponse is one trail entry: who moved the order from
// where to where, and when.
type GetAuditTrailQueryResponse struct {
	ID        kernel.UUID
	ActorID   string
	Before    string
	After     string
	Metadata  map[string]string
	CreatedAt time.Time
}
