package queries

import (
	"context"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetFailedEventsQueryHandler retrieves terminally failed events.
type GetFailedEventsQueryHandler struct {
	db *gorm.DB
}

// NewGetFailedEventsQueryHandler creates a handler for failed-event queries.
// Requires a GORM database connection for query execution.
func NewGetFailedEventsQueryHandler(db *gorm.DB) GetFailedEventsQueryHandler {
	return GetFailedEventsQueryHandler{db: db}
}

// Handle executes the query. Results are ordered oldest first so the
// longest-stuck events surface at the top.
func (h GetFailedEventsQueryHandler) Handle(
	ctx context.Context,
	query GetFailedEventsQuery,
) ([]GetFailedEventsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	events := make([]GetFailedEventsQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			event_type,
			entity_type,
			entity_id,
			retry_count,
			last_error,
			created_at
		FROM events
		WHERE status = ?
		ORDER BY created_at
	`, outbox.StatusFailed.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			event GetFailedEventsQueryResponse
			id    uuid.UUID
		)

		err = rows.Scan(
			&id,
			&event.EventType,
			&event.EntityType,
			&event.EntityID,
			&event.RetryCount,
			&event.LastError,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		eventID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		event.ID = eventID

		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
