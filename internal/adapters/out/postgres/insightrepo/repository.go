// Package insightrepo provides the GORM-based persistence adapter for
// derived insights. Writes are upserts keyed by the deterministic insight
// ID, so replayed event handling collapses into one row.
package insightrepo

import (
	"context"
	"time"

	"production/internal/core/domain/model/insight"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsightDTO represents the database model for derived insights.
type InsightDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind       string    `gorm:"not null;index"`
	EntityType string    `gorm:"not null"`
	EntityID   string    `gorm:"not null;index"`
	Message    string
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName overrides the default GORM table name.
func (InsightDTO) TableName() string {
	return "insights"
}

// GormInsightRepository persists insights through GORM.
type GormInsightRepository struct {
	db *gorm.DB
}

// NewGormInsightRepository creates an insight repository bound to the given
// connection, which may be a transaction.
func NewGormInsightRepository(db *gorm.DB) *GormInsightRepository {
	return &GormInsightRepository{db: db}
}

// Upsert saves an insight, replacing any existing row with the same ID.
func (r *GormInsightRepository) Upsert(ctx context.Context, aggregate *insight.Insight) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := InsightDTO{
		ID:         aggregate.ID().Bytes(),
		Kind:       aggregate.Kind(),
		EntityType: aggregate.EntityType(),
		EntityID:   aggregate.EntityID(),
		Message:    aggregate.Message(),
		CreatedAt:  aggregate.CreatedAt(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&dto).Error
}
