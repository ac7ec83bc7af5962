package outbox

import (
	"errors"
	"fmt"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/pkg/errs"
)

var (
	// ErrEventIsNotConstructed is returned when an Event was not created
	// through the NewEvent or RestoreEvent factory methods.
	ErrEventIsNotConstructed = errors.New("Event must be created via NewEvent constructor")

	// ErrRetriesExhausted is returned when a failed event has used up its
	// retry budget and must not be re-driven automatically.
	ErrRetriesExhausted = errors.New("event retries exhausted")
)

// MaxRetries bounds automatic re-processing of a failing event. Beyond this
// the event stays FAILED terminally and is surfaced as an operational alert;
// unbounded retry is a defect, not persistence.
const MaxRetries = 5

// EventStatus represents the processing state of a persisted event.
type EventStatus int

const (
	// StatusUnknown represents an invalid or undefined event status.
	StatusUnknown EventStatus = iota

	// StatusOpen means the event awaits processing (or re-processing).
	StatusOpen

	// StatusProcessing means a dispatcher has claimed the event.
	StatusProcessing

	// StatusCompleted means every handler ran successfully.
	StatusCompleted

	// StatusFailed means processing failed; the event keeps its error and
	// retry count for operational visibility.
	StatusFailed
)

// getEventStatusStrings returns a map of EventStatus values to their string
// representations.
func getEventStatusStrings() map[EventStatus]string {
	return map[EventStatus]string{
		StatusUnknown:    "Unknown",
		StatusOpen:       "Open",
		StatusProcessing: "Processing",
		StatusCompleted:  "Completed",
		StatusFailed:     "Failed",
	}
}

// Validate checks if the EventStatus value is valid.
func (s EventStatus) Validate() error {
	if _, ok := getEventStatusStrings()[s]; !ok || s == StatusUnknown {
		return errs.NewValueIsInvalidErrorWithCause("event status is invalid",
			fmt.Errorf("%d is not a valid event status", s))
	}
	return nil
}

// String returns the human-readable name of the event status.
func (s EventStatus) String() string {
	if str, ok := getEventStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Event is a persisted system event: the durable half of the event bus.
// Every emit writes one Event row before any handler runs, so a crash
// between emit and handling loses nothing - the background sweep finds the
// row and re-drives it. Append-only except for status and processing
// metadata.
type Event struct {
	id          kernel.UUID
	eventType   string
	entityType  string
	entityID    string
	payload     []byte
	status      EventStatus
	retryCount  int
	createdAt   time.Time
	processedAt time.Time
	lastError   string

	isConstructed bool
}

// NewEvent creates a persisted event in Open status. payload carries the
// JSON encoding of one of the typed payloads in this package.
func NewEvent(
	id kernel.UUID,
	eventType string,
	entityType string,
	entityID string,
	payload []byte,
	createdAt time.Time,
) (*Event, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if eventType == "" {
		return nil, errs.NewValueIsRequiredError("event type")
	}
	if createdAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("created at")
	}

	return &Event{
		id:            id,
		eventType:     eventType,
		entityType:    entityType,
		entityID:      entityID,
		payload:       payload,
		status:        StatusOpen,
		createdAt:     createdAt,
		isConstructed: true,
	}, nil
}

// RestoreEvent reconstructs an Event from persistence.
func RestoreEvent(
	id kernel.UUID,
	eventType string,
	entityType string,
	entityID string,
	payload []byte,
	status EventStatus,
	retryCount int,
	createdAt time.Time,
	processedAt time.Time,
	lastError string,
) (*Event, error) {
	e, err := NewEvent(id, eventType, entityType, entityID, payload, createdAt)
	if err != nil {
		return nil, err
	}
	if err = status.Validate(); err != nil {
		return nil, err
	}
	if retryCount < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("retry count is invalid",
			fmt.Errorf("%d is negative", retryCount))
	}

	e.status = status
	e.retryCount = retryCount
	e.processedAt = processedAt
	e.lastError = lastError
	return e, nil
}

// Validate ensures the Event was properly constructed.
func (e *Event) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEventIsNotConstructed
	}
	return nil
}

// ID returns the event's unique identifier. Handlers use it as the dedup
// key for idempotent side effects.
func (e *Event) ID() kernel.UUID { return e.id }

// EventType returns the tagged event type, e.g. "fabric.issued".
func (e *Event) EventType() string { return e.eventType }

// EntityType returns the referenced entity's kind, e.g. "order".
func (e *Event) EntityType() string { return e.entityType }

// EntityID returns the referenced entity's identifier.
func (e *Event) EntityID() string { return e.entityID }

// Payload returns the JSON-encoded typed payload.
func (e *Event) Payload() []byte { return e.payload }

// Status returns the processing state.
func (e *Event) Status() EventStatus { return e.status }

// RetryCount returns how many processing attempts have failed so far.
func (e *Event) RetryCount() int { return e.retryCount }

// CreatedAt returns when the event was emitted.
func (e *Event) CreatedAt() time.Time { return e.createdAt }

// ProcessedAt returns the time of the latest processing activity: the claim
// time while Processing, the finish time once terminal. Zero while Open and
// untouched.
func (e *Event) ProcessedAt() time.Time { return e.processedAt }

// LastError returns the captured error message of the latest failed attempt.
func (e *Event) LastError() string { return e.lastError }

// MarkProcessing claims the event for a dispatch attempt. Only an Open
// event can be claimed; the claim time feeds the reaper's staleness check.
func (e *Event) MarkProcessing(now time.Time) error {
	if e.status != StatusOpen {
		return errs.NewValueIsInvalidErrorWithCause("event status is invalid",
			fmt.Errorf("%s cannot be claimed", e.status))
	}

	e.status = StatusProcessing
	e.processedAt = now
	return nil
}

// MarkCompleted records a successful dispatch.
func (e *Event) MarkCompleted(now time.Time) error {
	if e.status != StatusProcessing {
		return errs.NewValueIsInvalidErrorWithCause("event status is invalid",
			fmt.Errorf("%s cannot complete", e.status))
	}

	e.status = StatusCompleted
	e.processedAt = now
	e.lastError = ""
	return nil
}

// MarkFailed records a failed dispatch attempt. While retry budget remains
// the event returns to Open so the next sweep re-drives it; once the budget
// is exhausted it stays Failed terminally and the caller should raise an
// operational alert.
func (e *Event) MarkFailed(now time.Time, cause error) error {
	if e.status != StatusProcessing {
		return errs.NewValueIsInvalidErrorWithCause("event status is invalid",
			fmt.Errorf("%s cannot fail", e.status))
	}

	e.retryCount++
	e.processedAt = now
	if cause != nil {
		e.lastError = cause.Error()
	}

	if e.retryCount >= MaxRetries {
		e.status = StatusFailed
		return nil
	}

	e.status = StatusOpen
	return nil
}

// Requeue returns a stuck Processing event to Open without consuming retry
// budget: the attempt never reported an outcome, so it does not count.
// Used by the reaper for events whose claim has gone stale.
func (e *Event) Requeue() error {
	if e.status != StatusProcessing {
		return errs.NewValueIsInvalidErrorWithCause("event status is invalid",
			fmt.Errorf("%s cannot be requeued", e.status))
	}

	e.status = StatusOpen
	return nil
}

// RetriesExhausted reports whether the event is terminally failed.
func (e *Event) RetriesExhausted() bool {
	return e.status == StatusFailed && e.retryCount >= MaxRetries
}
