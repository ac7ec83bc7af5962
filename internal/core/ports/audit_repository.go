package ports

import (
	"context"

	"production/internal/core/domain/model/audit"
)

// AuditRepository defines persistence operations for the write-once audit
// trail. Entries are inserted inside the same transaction as the mutation
// they describe and never change afterwards.
type AuditRepository interface {
	// Add appends an audit entry.
	Add(ctx context.Context, entry *audit.Entry) error

	// GetByEntity retrieves an entity's trail ordered by creation time,
	// newest first.
	GetByEntity(ctx context.Context, entityType, entityID string) ([]*audit.Entry, error)
}
