package ports

import (
	"context"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/routing"
)

// RoutingStepRepository defines persistence operations for routing steps.
// Steps are written in batches during planning and updated individually by
// floor signals; a replan removes the order's previous batch first so steps
// from an abandoned template cannot linger in the graph.
type RoutingStepRepository interface {
	// AddBatch saves a freshly built routing in one write.
	AddBatch(ctx context.Context, steps []*routing.Step) error

	// DeleteByOrder removes every step of an order's current routing.
	// Deleting an order with no routing is a no-op.
	DeleteByOrder(ctx context.Context, orderID kernel.UUID) error

	// Update saves a single step's changed status or schedule.
	Update(ctx context.Context, step *routing.Step) error

	// GetByOrder retrieves an order's steps ordered by sequence.
	GetByOrder(ctx context.Context, orderID kernel.UUID) ([]*routing.Step, error)
}
