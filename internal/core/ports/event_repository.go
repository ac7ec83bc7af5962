package ports

import (
	"context"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"
)

// EventRepository defines persistence operations for the durable event log.
type EventRepository interface {
	// Add saves a new event. The write is idempotent on the event ID
	// (insert-if-absent), so re-emitting a derived event with a
	// deterministic ID is a no-op.
	Add(ctx context.Context, event *outbox.Event) error

	// Update saves an event's changed status and processing metadata.
	Update(ctx context.Context, event *outbox.Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id kernel.UUID) (*outbox.Event, error)

	// GetOpenBatch retrieves up to limit Open events ordered by creation
	// time, oldest first. The sweep's work queue.
	GetOpenBatch(ctx context.Context, limit int) ([]*outbox.Event, error)

	// GetStuckProcessing retrieves Processing events whose claim is older
	// than the threshold. The reaper's work queue.
	GetStuckProcessing(ctx context.Context, olderThan time.Time) ([]*outbox.Event, error)
}
