package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler retrieves one order's projection from the database.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single-order lookups.
// Requires a GORM database connection for query execution.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the lookup. Returns ObjectNotFoundError when no order
// exists under the requested ID.
func (h GetOrderQueryHandler) Handle(
	ctx context.Context,
	query GetOrderQuery,
) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			client_id,
			method,
			quantity,
			target_date,
			status,
			progress,
			version
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Row()

	var (
		resp       GetOrderQueryResponse
		id         uuid.UUID
		clientID   sql.Null[uuid.UUID]
		targetDate sql.NullTime
	)

	err := row.Scan(
		&id,
		&clientID,
		&resp.Method,
		&resp.Quantity,
		&targetDate,
		&resp.Status,
		&resp.Progress,
		&resp.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	resp.ID = orderID

	if clientID.Valid {
		client, err := kernel.UUIDFromBytes(clientID.V[:])
		if err != nil {
			return GetOrderQueryResponse{}, err
		}
		resp.ClientID = &client
	}
	if targetDate.Valid {
		resp.TargetDate = targetDate.Time
	} else {
		resp.TargetDate = time.Time{}
	}

	steps, err := h.loadSteps(ctx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	resp.Steps = steps

	return resp, nil
}

// loadSteps reads the order's routing projection. No routing yet is an
// empty slice, not an error.
func (h GetOrderQueryHandler) loadSteps(
	ctx context.Context,
	orderID kernel.UUID,
) ([]GetOrderQueryStep, error) {
	steps := make([]GetOrderQueryStep, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			name,
			workcenter,
			sequence,
			status,
			planned_start,
			planned_end
		FROM routing_steps
		WHERE order_id = ?
		ORDER BY sequence
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			step         GetOrderQueryStep
			plannedStart sql.NullTime
			plannedEnd   sql.NullTime
		)

		err = rows.Scan(
			&step.Name,
			&step.Workcenter,
			&step.Sequence,
			&step.Status,
			&plannedStart,
			&plannedEnd,
		)
		if err != nil {
			return nil, err
		}

		if plannedStart.Valid {
			step.PlannedStart = plannedStart.Time
		}
		if plannedEnd.Valid {
			step.PlannedEnd = plannedEnd.Time
		}

		steps = append(steps, step)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return steps, nil
}
