package ports

import (
	"context"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
)

// OrderRepository defines persistence operations for the Order aggregate.
type OrderRepository interface {
	// Add saves a new order.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update saves an existing order using an optimistic version check:
	// the row is written only if its stored version equals the aggregate's
	// version, and the version is incremented atomically. A lost race
	// returns ConcurrentModificationError; the caller reloads and retries.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by ID.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
}
