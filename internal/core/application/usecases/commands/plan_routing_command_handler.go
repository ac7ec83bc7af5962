package commands

import (
	"context"
	"fmt"

	"production/internal/core/application/eventbus"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/domain/services"
	"production/internal/pkg/errs"
)

// PlanRoutingCommandHandler expands a routing template into steps for an
// order. The step batch and the routing.changed event commit atomically.
// Re-planning drops the order's previous batch in the same transaction, so
// steps from an abandoned template never survive into the new graph.
type PlanRoutingCommandHandler struct {
	uowFactory PlanningUoWFactory
	builder    services.RoutingGraphBuilder
	bus        *eventbus.Bus
}

// NewPlanRoutingCommandHandler creates a handler for routing planning.
func NewPlanRoutingCommandHandler(
	uowFactory PlanningUoWFactory,
	builder services.RoutingGraphBuilder,
	bus *eventbus.Bus,
) PlanRoutingCommandHandler {
	return PlanRoutingCommandHandler{
		uowFactory: uowFactory,
		builder:    builder,
		bus:        bus,
	}
}

// Handle plans the routing. The order must be in ProductionPlanned (initial
// plan) or InProgress (re-plan after a routing change on the floor).
func (h *PlanRoutingCommandHandler) Handle(ctx context.Context, cmd PlanRoutingCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if status := aggregate.Status(); status != order.ProductionPlanned && status != order.InProgress {
		return errs.NewValueIsInvalidErrorWithCause("order status",
			fmt.Errorf("routing cannot be planned while the order is %s", status))
	}

	templateKey := cmd.TemplateKey()
	if templateKey == "" {
		template, err := h.builder.DefaultTemplate(aggregate.Method())
		if err != nil {
			return err
		}
		templateKey = template.Key
	}

	steps, err := h.builder.Build(templateKey, cmd.OrderID(), aggregate.TargetDate())
	if err != nil {
		return err
	}

	if err = uow.RoutingStepRepository().DeleteByOrder(ctx, cmd.OrderID()); err != nil {
		return err
	}
	if err = uow.RoutingStepRepository().AddBatch(ctx, steps); err != nil {
		return err
	}

	event, err := h.bus.Append(ctx, uow.EventRepository(), kernel.NewUUID(), outbox.RoutingChanged{
		OrderID:     cmd.OrderID().String(),
		TemplateKey: templateKey,
		StepCount:   len(steps),
	})
	if err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.bus.Dispatch(ctx, event.ID())
	return nil
}
