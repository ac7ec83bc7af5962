// Package auditrepo provides the GORM-based persistence adapter for the
// write-once audit trail. Entries are inserted in the same transaction as
// the mutation they describe and never updated.
package auditrepo

import (
	"context"

	"production/internal/core/domain/model/audit"

	"gorm.io/gorm"
)

// GormAuditRepository persists audit entries through GORM.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates an audit repository bound to the given
// connection, which may be a transaction.
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Add appends an audit entry.
func (r *GormAuditRepository) Add(ctx context.Context, entry *audit.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(entry)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Create(&dto).Error
}

// GetByEntity retrieves an entity's trail, newest first.
func (r *GormAuditRepository) GetByEntity(
	ctx context.Context,
	entityType, entityID string,
) ([]*audit.Entry, error) {
	var dtos []EntryDTO

	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*audit.Entry, 0, len(dtos))
	for _, dto := range dtos {
		entry, convErr := dto.toDomain()
		if convErr != nil {
			return nil, convErr
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
