package commands

import (
	"context"
	"fmt"

	"production/internal/core/application/eventbus"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/domain/model/routing"
	"production/internal/pkg/errs"
)

// Production-floor progress tops out below 100: the remainder belongs to
// inspection and packing, which report through their own events.
const maxFloorProgress = 80

// ReportStepProgressCommandHandler applies a floor signal to a routing
// step. Completing a step promotes every dependent step whose join
// condition is now satisfied, moves the order's coarse progress and
// announces the change as a bundle.updated event - all in one transaction.
type ReportStepProgressCommandHandler struct {
	uowFactory PlanningUoWFactory
	bus        *eventbus.Bus
}

// NewReportStepProgressCommandHandler creates a handler for floor signals.
func NewReportStepProgressCommandHandler(
	uowFactory PlanningUoWFactory,
	bus *eventbus.Bus,
) ReportStepProgressCommandHandler {
	return ReportStepProgressCommandHandler{
		uowFactory: uowFactory,
		bus:        bus,
	}
}

// Handle records the step progress. Reporting work on a step whose
// dependencies are not done returns routing.ErrStepIsNotReady.
func (h *ReportStepProgressCommandHandler) Handle(ctx context.Context, cmd ReportStepProgressCommand) error {
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
	if aggregate.Status() != order.InProgress {
		return errs.NewValueIsInvalidErrorWithCause("order status",
			fmt.Errorf("step progress cannot be reported while the order is %s", aggregate.Status()))
	}

	stepRepo := uow.RoutingStepRepository()
	steps, err := stepRepo.GetByOrder(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	step := findStep(steps, cmd.StepName())
	if step == nil {
		return errs.NewObjectNotFoundError("routing step", cmd.StepName())
	}

	switch cmd.Outcome() {
	case OutcomeStarted:
		if err = step.Start(); err != nil {
			return err
		}
		if err = stepRepo.Update(ctx, step); err != nil {
			return err
		}
	case OutcomeCompleted:
		if err = step.Complete(); err != nil {
			return err
		}
		if err = stepRepo.Update(ctx, step); err != nil {
			return err
		}

		promoted, err := routing.PromoteReadySteps(steps)
		if err != nil {
			return err
		}
		for _, next := range promoted {
			if err = stepRepo.Update(ctx, next); err != nil {
				return err
			}
		}

		if err = h.advanceOrderProgress(ctx, uow, aggregate, steps); err != nil {
			return err
		}
	}

	event, err := h.bus.Append(ctx, uow.EventRepository(), kernel.NewUUID(), outbox.BundleUpdated{
		OrderID:  cmd.OrderID().String(),
		BundleID: cmd.BundleID(),
		StepName: cmd.StepName(),
		Status:   step.Status().String(),
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

// advanceOrderProgress maps completed steps onto the order's coarse
// progress: an even share of the floor's progress band per step.
func (h *ReportStepProgressCommandHandler) advanceOrderProgress(
	ctx context.Context,
	uow PlanningUoW,
	aggregate *order.Order,
	steps []*routing.Step,
) error {
	done := 0
	for _, s := range steps {
		if s.Status() == routing.StepDone {
			done++
		}
	}

	progress := done * maxFloorProgress / len(steps)
	if progress <= aggregate.Progress() {
		return nil
	}

	if err := aggregate.SetProgress(progress); err != nil {
		return err
	}
	return uow.OrderRepository().Update(ctx, aggregate)
}

func findStep(steps []*routing.Step, name string) *routing.Step {
	for _, s := range steps {
		if s.Name() == name {
			return s
		}
	}
	return nil
}
