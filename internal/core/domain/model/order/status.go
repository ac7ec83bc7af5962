package order

import (
	"fmt"

	"production/internal/pkg/errs"
)

// Status represents the lifecycle state of a production order.
// The full set of legal transitions is owned by the state machine's
// transition table; Status itself only knows which values exist, which are
// terminal, and how to render them.
//
// Lifecycle (happy path):
//
//	Intake -> DesignPending -> DesignApproval -> ProductionPlanned
//	       -> InProgress -> QualityControl -> Packing
//	       -> ReadyForDelivery -> Delivered -> Closed
//
// OnHold and Cancelled are reachable from any non-terminal state; an order
// on hold resumes back to the state it was in before the hold. Closed and
// Cancelled are terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Intake is the initial status when an order is first registered.
	Intake

	// DesignPending indicates the order is waiting for design assets.
	DesignPending

	// DesignApproval indicates uploaded designs await sign-off.
	DesignApproval

	// ProductionPlanned indicates routing steps have been laid out and the
	// order is ready to enter the production floor.
	ProductionPlanned

	// InProgress indicates the order is being worked on the floor.
	InProgress

	// QualityControl indicates finished goods are being inspected.
	QualityControl

	// Packing indicates goods passed inspection and are being packed.
	Packing

	// ReadyForDelivery indicates packed goods await dispatch.
	ReadyForDelivery

	// Delivered indicates goods reached the client.
	Delivered

	// Closed is the terminal success state.
	Closed

	// OnHold parks the order; the prior status is recorded in the audit
	// trail and restored on resume.
	OnHold

	// Cancelled is the terminal abort state.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
// All statuses are included for string conversion.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:           "Unknown",
		Intake:            "Intake",
		DesignPending:     "DesignPending",
		DesignApproval:    "DesignApproval",
		ProductionPlanned: "ProductionPlanned",
		InProgress:        "InProgress",
		QualityControl:    "QualityControl",
		Packing:           "Packing",
		ReadyForDelivery:  "ReadyForDelivery",
		Delivered:         "Delivered",
		Closed:            "Closed",
		OnHold:            "OnHold",
		Cancelled:         "Cancelled",
	}
}

// Validate checks if the Status value is valid.
//
// Returns:
//   - nil if the status is a defined lifecycle state
//   - error with details if the status is invalid
//
// This method is used to ensure Status values from external sources
// (e.g., database, API) are valid before use.
func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status.
// It implements the fmt.Stringer interface and is safe to call on any
// Status value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether the status admits no further transitions.
// Closed and Cancelled are the only terminal states.
func (s Status) IsTerminal() bool {
	return s == Closed || s == Cancelled
}

// IsLive reports whether the status is a valid, non-terminal state.
// Live statuses are the set from which hold and cancel are legal.
func (s Status) IsLive() bool {
	return s.Validate() == nil && !s.IsTerminal()
}

// LiveStatuses returns every valid non-terminal status in lifecycle order.
// The state machine expands its hold and cancel definitions over this set,
// one explicit definition per status, so the transition table stays total.
func LiveStatuses() []Status {
	return []Status{
		Intake,
		DesignPending,
		DesignApproval,
		ProductionPlanned,
		InProgress,
		QualityControl,
		Packing,
		ReadyForDelivery,
		Delivered,
		OnHold,
	}
}

// StatusFromString parses a status from its string representation.
// Used when reconstructing statuses from API input or persisted snapshots.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid",
		fmt.Errorf("%q is not a valid status", s))
}
