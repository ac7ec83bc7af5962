package commands

import (
	"context"

	"production/internal/core/application/eventbus"
	"production/internal/core/domain/model/assessment"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/domain/services"
)

// CreateOrderCommandHandler handles order registration. The order row and
// its announcement event commit in one transaction; the intake risk
// assessment runs afterwards and is returned to the caller, never persisted
// as a gate - it is advice at this point in the lifecycle.
type CreateOrderCommandHandler struct {
	uowFactory IntakeUoWFactory
	bus        *eventbus.Bus
	engine     services.AssessmentEngine
}

// NewCreateOrderCommandHandler creates a handler for order registration.
func NewCreateOrderCommandHandler(
	uowFactory IntakeUoWFactory,
	bus *eventbus.Bus,
	engine services.AssessmentEngine,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		bus:        bus,
		engine:     engine,
	}
}

// Handle registers the order and returns its intake assessment.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (assessment.Assessment, error) {
	if err := cmd.Validate(); err != nil {
		return assessment.Assessment{}, err
	}

	aggregate, err := order.NewOrder(cmd.OrderID(), cmd.Method(), cmd.Quantity(), cmd.TargetDate())
	if err != nil {
		return assessment.Assessment{}, err
	}
	if cmd.ClientID() != nil {
		if err = aggregate.AssignClient(*cmd.ClientID()); err != nil {
			return assessment.Assessment{}, err
		}
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return assessment.Assessment{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, aggregate); err != nil {
		return assessment.Assessment{}, err
	}

	event, err := h.bus.Append(ctx, uow.EventRepository(), kernel.NewUUID(), outbox.OrderCreated{
		OrderID:  cmd.OrderID().String(),
		Method:   cmd.Method(),
		Quantity: cmd.Quantity(),
	})
	if err != nil {
		return assessment.Assessment{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return assessment.Assessment{}, err
	}

	h.bus.Dispatch(ctx, event.ID())

	clientID := ""
	if cmd.ClientID() != nil {
		clientID = cmd.ClientID().String()
	}

	return h.engine.Assess(ctx, services.Intake{
		OrderID:           cmd.OrderID().String(),
		ClientID:          clientID,
		Method:            cmd.Method(),
		Quantity:          cmd.Quantity(),
		TargetDate:        cmd.TargetDate(),
		QuotedUnitPrice:   cmd.QuotedUnitPrice(),
		EstimatedUnitCost: cmd.EstimatedUnitCost(),
		Materials:         cmd.Materials(),
	}), nil
}
