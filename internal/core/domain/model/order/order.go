package order

import (
	"errors"
	"fmt"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder factory method. This ensures all orders are properly validated.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrStatusIsTerminal is returned when a status change is attempted on an
	// order that already reached Closed or Cancelled.
	ErrStatusIsTerminal = errors.New("order status is terminal")
)

// Order represents a production order in the system. It is the aggregate root
// that manages the order lifecycle from intake through design, planning,
// floor execution, inspection and delivery.
//
// Order follows these invariants:
//   - Must have a valid unique identifier
//   - Must name a production method and carry a positive quantity
//   - status is mutated only through ChangeStatus, and ChangeStatus is
//     called only by a committed state machine transition
//   - Can only be created through NewOrder or RestoreOrder
//
// The Order struct uses private fields to ensure encapsulation and maintains
// its invariants through validated methods. The version field backs the
// optimistic concurrency check in the repository: two concurrent transitions
// on the same order cannot both commit against the same version.
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// clientID references the ordering client (nil until intake is complete)
	clientID *kernel.UUID

	// method names the production method, e.g. "SILKSCREEN"
	method string

	// quantity is the number of pieces ordered (must be positive)
	quantity int

	// targetDate is the promised delivery date (zero when not promised)
	targetDate time.Time

	// status represents the current state in the order lifecycle
	status Status

	// progress is a coarse completion percentage maintained by floor handlers
	progress int

	// version is the optimistic concurrency token, incremented on update
	version int

	// isConstructed ensures the order was created via a constructor
	isConstructed bool
}

// NewOrder creates a new Order instance with validation. This is the only way
// to create a fresh Order, ensuring all business invariants are maintained.
//
// Parameters:
//   - id: Unique identifier for the order (must be valid UUID)
//   - method: Production method key (required)
//   - quantity: Number of pieces (must be positive)
//   - targetDate: Promised delivery date; zero time means no promise yet
//
// Returns:
//   - *Order: The created order in Intake status if all validations pass
//   - error: Validation error if any parameter is invalid
func NewOrder(id kernel.UUID, method string, quantity int, targetDate time.Time) (*Order, error) {
	o := &Order{
		status:        Intake,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setMethod(method),
		o.setQuantity(quantity),
	); err != nil {
		return nil, err
	}

	o.targetDate = targetDate
	return o, nil
}

// RestoreOrder reconstructs an Order from persistence. Unlike NewOrder it
// accepts the persisted status, progress and version as-is, after validating
// them. It is intended for repository use only.
func RestoreOrder(
	id kernel.UUID,
	clientID *kernel.UUID,
	method string,
	quantity int,
	targetDate time.Time,
	status Status,
	progress int,
	version int,
) (*Order, error) {
	o := &Order{
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setMethod(method),
		o.setQuantity(quantity),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	if clientID != nil {
		if err := clientID.Validate(); err != nil {
			return nil, err
		}
		c := *clientID
		o.clientID = &c
	}

	if version < 0 {
		return nil, errs.NewVersionIsInvalidError("order version",
			fmt.Errorf("%d is negative", version))
	}

	o.targetDate = targetDate
	o.status = status
	o.progress = progress
	o.version = version
	return o, nil
}

// Validate ensures the Order instance was properly constructed through a
// constructor. This prevents bypassing validation by directly instantiating
// the struct.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares two orders by their unique identifiers.
// Orders are considered equal if they have the same ID.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Client returns the ordering client's ID, or nil if intake has not yet
// attached one.
func (o *Order) Client() *kernel.UUID {
	return o.clientID
}

// Method returns the production method key.
func (o *Order) Method() string {
	return o.method
}

// Quantity returns the number of pieces ordered.
func (o *Order) Quantity() int {
	return o.quantity
}

// TargetDate returns the promised delivery date. A zero time means no
// delivery promise has been made yet.
func (o *Order) TargetDate() time.Time {
	return o.targetDate
}

// Status returns the current status of the order.
func (o *Order) Status() Status {
	return o.status
}

// Progress returns the coarse completion percentage (0-100).
func (o *Order) Progress() int {
	return o.progress
}

// Version returns the optimistic concurrency token.
func (o *Order) Version() int {
	return o.version
}

// AssignClient attaches the ordering client to the order.
//
// Returns an error if the client ID is invalid. Reassignment is allowed
// while the order is live; the intake guard only requires that a client is
// present before the order leaves Intake.
func (o *Order) AssignClient(clientID kernel.UUID) error {
	if err := clientID.Validate(); err != nil {
		return err
	}

	o.clientID = &clientID
	return nil
}

// ChangeStatus moves the order to the given status.
//
// This method enforces only the aggregate-level invariants:
//   - the next status must be a defined lifecycle state
//   - the current status must not be terminal
//
// Which (from, action) pairs are legal, which roles may request them and
// which guards must pass is the state machine's responsibility; no other
// code path may call ChangeStatus.
func (o *Order) ChangeStatus(next Status) error {
	if err := next.Validate(); err != nil {
		return err
	}

	if o.status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrStatusIsTerminal, o.status)
	}

	o.status = next
	return nil
}

// SetProgress updates the coarse completion percentage.
// Progress is maintained by production-floor handlers and is advisory; it
// does not gate transitions.
func (o *Order) SetProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return errs.NewValueIsOutOfRangeError("progress", progress, 0, 100)
	}

	o.progress = progress
	return nil
}

// setID validates and sets the order's unique identifier.
// This is a private method used only during construction.
func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

// setMethod validates and sets the production method key.
// This is a private method used only during construction.
func (o *Order) setMethod(method string) error {
	if method == "" {
		return errs.NewValueIsRequiredError("method")
	}
	o.method = method
	return nil
}

// setQuantity validates and sets the order quantity.
// Quantity must be positive (greater than 0).
// This is a private method used only during construction.
func (o *Order) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	o.quantity = quantity
	return nil
}
