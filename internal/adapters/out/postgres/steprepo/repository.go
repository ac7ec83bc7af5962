// Package steprepo provides the GORM-based persistence adapter for routing
// steps. Steps are written in batches when a routing is planned; a replan
// deletes the order's previous batch first, so the stored graph always
// matches exactly one template expansion.
package steprepo

import (
	"context"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/routing"
	"production/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRoutingStepRepository persists routing steps through GORM.
type GormRoutingStepRepository struct {
	db *gorm.DB
}

// NewGormRoutingStepRepository creates a routing step repository bound to
// the given connection, which may be a transaction.
func NewGormRoutingStepRepository(db *gorm.DB) *GormRoutingStepRepository {
	return &GormRoutingStepRepository{db: db}
}

// AddBatch saves a freshly built routing in one write. Conflicting IDs are
// overwritten, so a replan supersedes the previous schedule.
func (r *GormRoutingStepRepository) AddBatch(ctx context.Context, steps []*routing.Step) error {
	if len(steps) == 0 {
		return nil
	}

	dtos := make([]StepDTO, 0, len(steps))
	for _, step := range steps {
		if err := step.Validate(); err != nil {
			return err
		}
		dtos = append(dtos, fromDomain(step))
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&dtos).Error
}

// DeleteByOrder removes every step of an order's current routing.
func (r *GormRoutingStepRepository) DeleteByOrder(ctx context.Context, orderID kernel.UUID) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Delete(&StepDTO{}).Error
}

// Update saves a single step's changed status or schedule.
func (r *GormRoutingStepRepository) Update(ctx context.Context, step *routing.Step) error {
	if err := step.Validate(); err != nil {
		return err
	}

	dto := fromDomain(step)

	result := r.db.WithContext(ctx).
		Model(&StepDTO{}).
		Where("id = ?", dto.ID).
		Updates(map[string]any{
			"status":        dto.Status,
			"planned_start": dto.PlannedStart,
			"planned_end":   dto.PlannedEnd,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("step id", step.ID().String())
	}

	return nil
}

// GetByOrder retrieves an order's steps ordered by sequence.
func (r *GormRoutingStepRepository) GetByOrder(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*routing.Step, error) {
	var dtos []StepDTO

	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("sequence").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	steps := make([]*routing.Step, 0, len(dtos))
	for _, dto := range dtos {
		step, convErr := dto.toDomain()
		if convErr != nil {
			return nil, convErr
		}
		steps = append(steps, step)
	}

	return steps, nil
}
