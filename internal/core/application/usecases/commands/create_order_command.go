package commands

import (
	"errors"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/services"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrMethodIsRequired  = errors.New("production method is required")
	ErrQuantityIsInvalid = errors.New("quantity must be greater than 0")
)

// CreateOrderCommand represents a request to register a new production
// order. Carries the commercial intake data the risk assessment needs in
// addition to the order's own fields.
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID           kernel.UUID
	clientID          *kernel.UUID
	method            string
	quantity          int
	targetDate        time.Time
	quotedUnitPrice   float64
	estimatedUnitCost float64
	materials         []services.MaterialRequirement

	guard kernel.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new order.
// clientID may be nil; the order then stays in intake until one is
// assigned. targetDate may be zero when no delivery promise exists yet.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	clientID *kernel.UUID,
	method string,
	quantity int,
	targetDate time.Time,
	quotedUnitPrice float64,
	estimatedUnitCost float64,
	materials []services.MaterialRequirement,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: kernel.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setClientID(clientID),
		cmd.setMethod(method),
		cmd.setQuantity(quantity),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	cmd.targetDate = targetDate
	cmd.quotedUnitPrice = quotedUnitPrice
	cmd.estimatedUnitCost = estimatedUnitCost
	cmd.materials = make([]services.MaterialRequirement, len(materials))
	copy(cmd.materials, materials)

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ClientID returns the ordering client, or nil if intake is incomplete.
func (c CreateOrderCommand) ClientID() *kernel.UUID {
	return c.clientID
}

// Method returns the production method key.
func (c CreateOrderCommand) Method() string {
	return c.method
}

// Quantity returns the number of pieces ordered.
func (c CreateOrderCommand) Quantity() int {
	return c.quantity
}

// TargetDate returns the promised delivery date; zero means no promise.
func (c CreateOrderCommand) TargetDate() time.Time {
	return c.targetDate
}

// QuotedUnitPrice returns the agreed price per piece.
func (c CreateOrderCommand) QuotedUnitPrice() float64 {
	return c.quotedUnitPrice
}

// EstimatedUnitCost returns the costing estimate per piece.
func (c CreateOrderCommand) EstimatedUnitCost() float64 {
	return c.estimatedUnitCost
}

// Materials returns the bill of materials for the intake assessment.
// The returned slice is a copy.
func (c CreateOrderCommand) Materials() []services.MaterialRequirement {
	materials := make([]services.MaterialRequirement, len(c.materials))
	copy(materials, c.materials)
	return materials
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setClientID(clientID *kernel.UUID) error {
	if clientID == nil {
		return nil
	}
	if err := clientID.Validate(); err != nil {
		return err
	}

	copied := *clientID
	c.clientID = &copied
	return nil
}

func (c *CreateOrderCommand) setMethod(method string) error {
	if method == "" {
		return ErrMethodIsRequired
	}

	c.method = method
	return nil
}

func (c *CreateOrderCommand) setQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrQuantityIsInvalid
	}

	c.quantity = quantity
	return nil
}
