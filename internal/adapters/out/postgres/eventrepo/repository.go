// Package eventrepo provides the GORM-based persistence adapter for the
// durable event log. Inserts are idempotent on the event ID so derived
// events re-emitted during replay collapse into a single row.
package eventrepo

import (
	"context"
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"
	"production/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventRepository persists events through GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates an event repository bound to the given
// connection, which may be a transaction.
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Add saves a new event. An existing row with the same ID is left
// untouched, which makes deterministic re-emits no-ops.
func (r *GormEventRepository) Add(ctx context.Context, event *outbox.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	dto := fromDomain(event)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&dto).Error
}

// Update saves an event's changed status and processing metadata.
func (r *GormEventRepository) Update(ctx context.Context, event *outbox.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	dto := fromDomain(event)

	result := r.db.WithContext(ctx).
		Model(&EventDTO{}).
		Where("id = ?", dto.ID).
		Updates(map[string]any{
			"status":       dto.Status,
			"retry_count":  dto.RetryCount,
			"processed_at": dto.ProcessedAt,
			"last_error":   dto.LastError,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("event id", event.ID().String())
	}

	return nil
}

// Get retrieves an event by ID.
func (r *GormEventRepository) Get(ctx context.Context, id kernel.UUID) (*outbox.Event, error) {
	var dto EventDTO

	err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("event id", id.String())
		}
		return nil, err
	}

	return dto.toDomain()
}

// GetOpenBatch retrieves up to limit Open events, oldest first.
func (r *GormEventRepository) GetOpenBatch(ctx context.Context, limit int) ([]*outbox.Event, error) {
	var dtos []EventDTO

	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusOpen.String()).
		Order("created_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainBatch(dtos)
}

// GetStuckProcessing retrieves Processing events claimed before olderThan.
func (r *GormEventRepository) GetStuckProcessing(
	ctx context.Context,
	olderThan time.Time,
) ([]*outbox.Event, error) {
	var dtos []EventDTO

	err := r.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", outbox.StatusProcessing.String(), olderThan).
		Order("processed_at").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainBatch(dtos)
}

func toDomainBatch(dtos []EventDTO) ([]*outbox.Event, error) {
	events := make([]*outbox.Event, 0, len(dtos))
	for _, dto := range dtos {
		event, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
