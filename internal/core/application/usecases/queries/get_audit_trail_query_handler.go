package queries

import (
	"context"
	"encoding/json"

	"production/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAuditTrailQueryHandler retrieves an order's transition history.
type GetAuditTrailQueryHandler struct {
	db *gorm.DB
}

// NewGetAuditTrailQueryHandler creates a handler for audit trail queries.
// Requires a GORM database connection for query execution.
func NewGetAuditTrailQueryHandler(db *gorm.DB) GetAuditTrailQueryHandler {
	return GetAuditTrailQueryHandler{db: db}
}

// Handle executes the query. An order with no recorded transitions yields
// an empty trail, not an error.
func (h GetAuditTrailQueryHandler) Handle(
	ctx context.Context,
	query GetAuditTrailQuery,
) ([]GetAuditTrailQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	trail := make([]GetAuditTrailQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			actor_id,
			before_status,
			after_status,
			metadata,
			created_at
		FROM audit_entries
		WHERE entity_type = 'order' AND entity_id = ?
		ORDER BY created_at DESC
	`, query.OrderID().String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry    GetAuditTrailQueryResponse
			id       uuid.UUID
			metadata []byte
		)

		err = rows.Scan(
			&id,
			&entry.ActorID,
			&entry.Before,
			&entry.After,
			&metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		entryID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		entry.ID = entryID

		if len(metadata) > 0 {
			if err = json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, err
			}
		}

		trail = append(trail, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trail, nil
}
