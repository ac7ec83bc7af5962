// Package audit provides the write-once audit trail entries recorded
// alongside every state mutation. Entries are created inside the same
// transactional unit as the mutation they describe and are never updated
// or deleted afterwards.
package audit

import (
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/pkg/errs"
)

// ErrEntryIsNotConstructed is returned when an Entry was not created through
// the NewEntry factory method.
var ErrEntryIsNotConstructed = errors.New("Entry must be created via NewEntry constructor")

// Entry records one state mutation: who did it, to what, and the before and
// after snapshots. Snapshots are stored as strings (for order transitions,
// the status names) so the trail stays readable without replaying code.
type Entry struct {
	id         kernel.UUID
	entityType string
	entityID   string
	actorID    string
	before     string
	after      string
	metadata   map[string]string
	createdAt  time.Time

	isConstructed bool
}

// NewEntry creates an audit entry.
//
// Validation rules:
//   - id must be a valid UUID
//   - entityType, entityID and actorID are required
//   - createdAt must not be zero
func NewEntry(
	id kernel.UUID,
	entityType string,
	entityID string,
	actorID string,
	before string,
	after string,
	metadata map[string]string,
	createdAt time.Time,
) (*Entry, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if entityType == "" {
		return nil, errs.NewValueIsRequiredError("entity type")
	}
	if entityID == "" {
		return nil, errs.NewValueIsRequiredError("entity id")
	}
	if actorID == "" {
		return nil, errs.NewValueIsRequiredError("actor id")
	}
	if createdAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("created at")
	}

	copied := make(map[string]string, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}

	return &Entry{
		id:            id,
		entityType:    entityType,
		entityID:      entityID,
		actorID:       actorID,
		before:        before,
		after:         after,
		metadata:      copied,
		createdAt:     createdAt,
		isConstructed: true,
	}, nil
}

// Validate ensures the Entry was properly constructed.
func (e *Entry) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEntryIsNotConstructed
	}
	return nil
}

// ID returns the entry's unique identifier.
func (e *Entry) ID() kernel.UUID { return e.id }

// EntityType returns the kind of entity mutated, e.g. "order".
func (e *Entry) EntityType() string { return e.entityType }

// EntityID returns the mutated entity's identifier.
func (e *Entry) EntityID() string { return e.entityID }

// ActorID returns who performed the mutation.
func (e *Entry) ActorID() string { return e.actorID }

// Before returns the snapshot before the mutation.
func (e *Entry) Before() string { return e.before }

// After returns the snapshot after the mutation.
func (e *Entry) After() string { return e.after }

// Metadata returns the free-form annotations. The returned map is a copy.
func (e *Entry) Metadata() map[string]string {
	out := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		out[k] = v
	}
	return out
}

// CreatedAt returns when the mutation happened.
func (e *Entry) CreatedAt() time.Time { return e.createdAt }
