package commands

import (
	"errors"

	"production/internal/core/domain/model/kernel"
)

var (
	ErrPlanRoutingCommandIsNotConstructed = errors.New(
		"PlanRoutingCommand must be created via NewPlanRoutingCommand constructor",
	)
	ErrTemplateKeyIsRequired = errors.New("template key is required")
)

// PlanRoutingCommand represents a request to expand a routing template into
// a scheduled step batch for an order. Re-planning replaces the previous
// batch entirely, whatever template it came from.
type PlanRoutingCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	templateKey string

	guard kernel.ConstructorGuard
}

// NewPlanRoutingCommand creates a command to plan an order's routing.
func NewPlanRoutingCommand(orderID kernel.UUID, templateKey string) (PlanRoutingCommand, error) {
	cmd := PlanRoutingCommand{
		guard: kernel.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTemplateKey(templateKey),
	); err != nil {
		return PlanRoutingCommand{}, err
	}

	return cmd, nil
}

// NewPlanDefaultRoutingCommand creates a command that plans with the default
// template for the order's production method; the handler resolves the key
// from the catalog.
func NewPlanDefaultRoutingCommand(orderID kernel.UUID) (PlanRoutingCommand, error) {
	cmd := PlanRoutingCommand{
		guard: kernel.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return PlanRoutingCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c PlanRoutingCommand) Validate() error {
	return c.guard.Validate(ErrPlanRoutingCommandIsNotConstructed)
}

// OrderID returns the order to plan.
func (c PlanRoutingCommand) OrderID() kernel.UUID {
	return c.orderID
}

// TemplateKey returns the routing template to expand. Empty means the
// default template for the order's production method.
func (c PlanRoutingCommand) TemplateKey() string {
	return c.templateKey
}

func (c *PlanRoutingCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *PlanRoutingCommand) setTemplateKey(templateKey string) error {
	if templateKey == "" {
		return ErrTemplateKeyIsRequired
	}

	c.templateKey = templateKey
	return nil
}
