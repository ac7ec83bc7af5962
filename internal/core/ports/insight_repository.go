package ports

import (
	"context"

	"production/internal/core/domain/model/insight"
)

// InsightRepository defines persistence operations for derived insights.
type InsightRepository interface {
	// Upsert saves an insight, replacing any existing row with the same ID.
	// Combined with deterministic IDs this makes handler side effects
	// idempotent under replay.
	Upsert(ctx context.Context, aggregate *insight.Insight) error
}
