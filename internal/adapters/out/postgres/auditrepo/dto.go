package auditrepo

import (
	"encoding/json"
	"time"

	"production/internal/core/domain/model/audit"
	"production/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// EntryDTO represents the database model for audit trail entries. The
// before/after snapshots are stored as plain strings so the trail reads
// without joins.
type EntryDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityType   string    `gorm:"not null;index:idx_audit_entity"`
	EntityID     string    `gorm:"not null;index:idx_audit_entity"`
	ActorID      string    `gorm:"not null"`
	BeforeStatus string
	AfterStatus  string
	Metadata     []byte    `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName overrides the default GORM table name.
func (EntryDTO) TableName() string {
	return "audit_entries"
}

// fromDomain converts a domain Entry into its database representation.
func fromDomain(entry *audit.Entry) (EntryDTO, error) {
	dto := EntryDTO{
		ID:           entry.ID().Bytes(),
		EntityType:   entry.EntityType(),
		EntityID:     entry.EntityID(),
		ActorID:      entry.ActorID(),
		BeforeStatus: entry.Before(),
		AfterStatus:  entry.After(),
		CreatedAt:    entry.CreatedAt(),
	}

	if metadata := entry.Metadata(); len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return EntryDTO{}, err
		}
		dto.Metadata = encoded
	}

	return dto, nil
}

// toDomain reconstructs the domain Entry from its database representation.
func (dto EntryDTO) toDomain() (*audit.Entry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if len(dto.Metadata) > 0 {
		if err = json.Unmarshal(dto.Metadata, &metadata); err != nil {
			return nil, err
		}
	}

	return audit.NewEntry(
		id,
		dto.EntityType,
		dto.EntityID,
		dto.ActorID,
		dto.BeforeStatus,
		dto.AfterStatus,
		metadata,
		dto.CreatedAt,
	)
}
