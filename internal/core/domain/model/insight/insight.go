// Package insight provides derived operational facts created by event
// handlers: one short record per noteworthy floor event, used for audit and
// learning. Insights are written idempotently - their identifiers are
// derived deterministically from the source event, so replayed handling
// collapses into a single row.
package insight

import (
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/pkg/errs"
)

// ErrInsightIsNotConstructed is returned when an Insight was not created
// through the NewInsight factory method.
var ErrInsightIsNotConstructed = errors.New("Insight must be created via NewInsight constructor")

// Insight is one derived fact about an entity, e.g. "fabric issued: 120m in
// 2 batches" on an order.
type Insight struct {
	id         kernel.UUID
	kind       string
	entityType string
	entityID   string
	message    string
	createdAt  time.Time

	isConstructed bool
}

// NewInsight creates an insight. The id should be derived from the source
// event (kernel.DerivedUUID) so repeated handling upserts the same row.
func NewInsight(
	id kernel.UUID,
	kind string,
	entityType string,
	entityID string,
	message string,
	createdAt time.Time,
) (*Insight, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if kind == "" {
		return nil, errs.NewValueIsRequiredError("insight kind")
	}
	if entityID == "" {
		return nil, errs.NewValueIsRequiredError("entity id")
	}
	if createdAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("created at")
	}

	return &Insight{
		id:            id,
		kind:          kind,
		entityType:    entityType,
		entityID:      entityID,
		message:       message,
		createdAt:     createdAt,
		isConstructed: true,
	}, nil
}

// Validate ensures the Insight was properly constructed.
func (i *Insight) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrInsightIsNotConstructed
	}
	return nil
}

// ID returns the insight's identifier.
func (i *Insight) ID() kernel.UUID { return i.id }

// Kind returns the insight's classification, e.g. "fabric_issued".
func (i *Insight) Kind() string { return i.kind }

// EntityType returns the referenced entity's kind.
func (i *Insight) EntityType() string { return i.entityType }

// EntityID returns the referenced entity's identifier.
func (i *Insight) EntityID() string { return i.entityID }

// Message returns the human-readable fact.
func (i *Insight) Message() string { return i.message }

// CreatedAt returns when the insight was derived.
func (i *Insight) CreatedAt() time.Time { return i.createdAt }
