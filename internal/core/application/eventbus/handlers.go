package eventbus

import (
	"context"
	"fmt"
	"time"

	"production/internal/core/domain/model/insight"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/ports"
)

// Floor signal thresholds and the progress marks they map to.
const (
	qcPassRateThreshold = 95.0
	progressAfterQCPass = 90
	progressAfterRework = 60
)

// Choreography wires the cross-module reactions onto a bus: fabric issue
// unblocks cutting, QC outcomes branch into packing or rework, committed
// transitions queue client notifications. Each reaction is an idempotent
// handler keyed by the source event's ID.
type Choreography struct {
	bus        *Bus
	uowFactory ports.UnitOfWorkFactory
	now        func() time.Time
}

// NewChoreography creates the standard handler set for a bus.
func NewChoreography(bus *Bus, uowFactory ports.UnitOfWorkFactory) *Choreography {
	return &Choreography{
		bus:        bus,
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// Register subscribes every handler and returns a function that removes
// them all.
func (c *Choreography) Register() func() {
	unsubscribes := []func(){
		c.bus.Subscribe(outbox.TypeOrderCreated, c.onOrderCreated),
		c.bus.Subscribe(outbox.TypeFabricIssued, c.onFabricIssued),
		c.bus.Subscribe(outbox.TypeQCCompleted, c.onQCCompleted),
		c.bus.Subscribe(outbox.TypeOrderStatusChanged, c.onOrderStatusChanged),
		c.bus.Subscribe(outbox.TypeReworkRequired, c.onReworkRequired),
		c.bus.Subscribe(outbox.TypeDesignUploaded, c.onDesignUploaded),
		c.bus.Subscribe(outbox.TypeDesignApproved, c.onDesignApproved),
		c.bus.Subscribe(outbox.TypeLayPlanned, c.onLayPlanned),
		c.bus.Subscribe(outbox.TypeBundleUpdated, c.onBundleUpdated),
		c.bus.Subscribe(outbox.TypeRoutingChanged, c.onRoutingChanged),
	}

	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}

// onOrderCreated records the registration for the order's history.
func (c *Choreography) onOrderCreated(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.OrderCreated)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	return c.recordInsight(ctx, e, "order_created",
		fmt.Sprintf("order registered: %d pcs via %s", p.Quantity, p.Method))
}

// onFabricIssued records the issue as an insight and signals cutting that
// lay planning may start.
func (c *Choreography) onFabricIssued(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.FabricIssued)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	message := fmt.Sprintf("fabric issued: %.1fm in %d batches", p.TotalMeters, p.BatchCount)
	if err := c.recordInsight(ctx, e, "fabric_issued", message); err != nil {
		return err
	}

	return c.bus.EmitDerived(ctx, e.EventID, "cutting.ready",
		outbox.CuttingReady{OrderID: p.OrderID})
}

// onQCCompleted branches on the inspection outcome: a pass clears the goods
// for packing, a fail sends them back to the floor. Both branches move the
// order's progress mark.
func (c *Choreography) onQCCompleted(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.QCCompleted)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	passed := p.PassRate >= qcPassRateThreshold

	progress := progressAfterRework
	if passed {
		progress = progressAfterQCPass
	}
	if err := c.setOrderProgress(ctx, p.OrderID, progress); err != nil {
		return err
	}

	if passed {
		return c.bus.EmitDerived(ctx, e.EventID, "packing.ready",
			outbox.PackingReady{OrderID: p.OrderID})
	}
	return c.bus.EmitDerived(ctx, e.EventID, "rework.required",
		outbox.ReworkRequired{OrderID: p.OrderID, PassRate: p.PassRate})
}

// onOrderStatusChanged queues a client-facing notification for every
// committed transition. Delivery is a collaborator's job; the core only
// hands the message over.
func (c *Choreography) onOrderStatusChanged(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.OrderStatusChanged)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	return c.bus.EmitDerived(ctx, e.EventID, "notification.queued",
		outbox.NotificationQueued{
			OrderID: p.OrderID,
			Kind:    "status_update",
			Message: fmt.Sprintf("order moved from %s to %s", p.FromStatus, p.ToStatus),
		})
}

// onReworkRequired records the failed inspection and tells the client the
// order is delayed.
func (c *Choreography) onReworkRequired(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.ReworkRequired)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	message := fmt.Sprintf("rework required: pass rate %.1f%% below %.0f%%", p.PassRate, qcPassRateThreshold)
	if err := c.recordInsight(ctx, e, "rework_required", message); err != nil {
		return err
	}

	return c.bus.EmitDerived(ctx, e.EventID, "notification.queued",
		outbox.NotificationQueued{
			OrderID: p.OrderID,
			Kind:    "rework",
			Message: "quality inspection requires rework; delivery may shift",
		})
}

// onDesignUploaded records the new asset for the order's history.
func (c *Choreography) onDesignUploaded(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.DesignUploaded)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	return c.recordInsight(ctx, e, "design_uploaded",
		fmt.Sprintf("design asset %s uploaded (%s)", p.AssetID, p.FileName))
}

// onDesignApproved records the sign-off; planning takes over from here.
func (c *Choreography) onDesignApproved(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.DesignApproved)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	return c.recordInsight(ctx, e, "design_approved",
		fmt.Sprintf("design approved by %s", p.ApprovedBy))
}

// onLayPlanned records the lay plan so fabric consumption can be traced
// back from the floor.
func (c *Choreography) onLayPlanned(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.LayPlanned)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	return c.recordInsight(ctx, e, "lay_planned",
		fmt.Sprintf("lay planned: %d lays by %s", p.LayCount, p.PlannedBy))
}

// onBundleUpdated records floor progress per bundle.
func (c *Choreography) onBundleUpdated(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.BundleUpdated)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	return c.recordInsight(ctx, e, "bundle_updated",
		fmt.Sprintf("step %s is %s (bundle %s)", p.StepName, p.Status, p.BundleID))
}

// onRoutingChanged records the planned or superseded routing batch.
func (c *Choreography) onRoutingChanged(ctx context.Context, e Envelope) error {
	p, ok := e.Payload.(outbox.RoutingChanged)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", e.EventType)
	}

	return c.recordInsight(ctx, e, "routing_changed",
		fmt.Sprintf("routing planned from template %s: %d steps", p.TemplateKey, p.StepCount))
}

// recordInsight upserts an insight whose ID is derived from the event, so a
// replayed delivery rewrites the same row.
func (c *Choreography) recordInsight(ctx context.Context, e Envelope, kind, message string) error {
	derived, err := insight.NewInsight(
		kernel.DerivedUUID(e.EventID, "insight:"+kind),
		kind,
		e.EntityType,
		e.EntityID,
		message,
		c.now(),
	)
	if err != nil {
		return err
	}

	return c.inTx(ctx, func(uow ports.UnitOfWork) error {
		return uow.InsightRepository().Upsert(ctx, derived)
	})
}

// setOrderProgress moves the order's progress mark. Setting a value is
// naturally idempotent under replay.
func (c *Choreography) setOrderProgress(ctx context.Context, orderID string, progress int) error {
	id, err := kernel.UUIDFromString(orderID)
	if err != nil {
		return err
	}

	return c.inTx(ctx, func(uow ports.UnitOfWork) error {
		repo := uow.OrderRepository()

		aggregate, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err = aggregate.SetProgress(progress); err != nil {
			return err
		}
		return repo.Update(ctx, aggregate)
	})
}

func (c *Choreography) inTx(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := fn(uow); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}
	return uow.Commit(ctx)
}
