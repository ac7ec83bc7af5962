package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"production/internal/core/application/eventbus"
	"production/internal/core/domain/model/audit"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/domain/services"
	"production/internal/core/ports"
)

// Request asks the machine to apply one action to one order.
type Request struct {
	OrderID  kernel.UUID
	Action   Action
	ActorID  string
	Role     Role
	Metadata map[string]string
}

// Result reports the outcome of an executed request. Success=false with a
// Reason is a rejection: nothing changed and retrying without changing the
// world will be rejected again. PermissionDenied marks the rejection as a
// role problem rather than a state problem.
type Result struct {
	Success          bool
	From             order.Status
	To               order.Status
	Reason           string
	Blockers         []string
	PermissionDenied bool
}

// Hook observes committed transitions. Hooks run after the transaction
// commits; a failing or panicking hook is logged and cannot undo the
// transition.
type Hook func(ctx context.Context, req Request, res Result)

// RoutingPlanner plans the default routing for an order's production
// method. The approve-design side effect calls it once the transition has
// committed.
type RoutingPlanner func(ctx context.Context, orderID kernel.UUID) error

// Machine executes transition requests against the lifecycle table.
type Machine struct {
	uowFactory ports.UnitOfWorkFactory
	bus        *eventbus.Bus
	logger     *slog.Logger
	now        func() time.Time
	table      map[transitionKey]Definition
	hooks      []Hook
}

// NewMachine creates the machine with the standard lifecycle table. The
// assessment engine backs the production-start gate; the planner backs the
// approve-design side effect and may be nil when automatic planning is not
// wanted.
func NewMachine(
	uowFactory ports.UnitOfWorkFactory,
	bus *eventbus.Bus,
	engine services.AssessmentEngine,
	planRouting RoutingPlanner,
	logger *slog.Logger,
) *Machine {
	return &Machine{
		uowFactory: uowFactory,
		bus:        bus,
		logger:     logger,
		now:        time.Now,
		table:      buildTable(engine, planRouting),
	}
}

// WithClock replaces the machine clock. Intended for tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// AddHook registers a post-commit observer.
func (m *Machine) AddHook(h Hook) {
	m.hooks = append(m.hooks, h)
}

// Execute applies the requested action.
//
// On success the order update, its audit entry and the status-change event
// commit atomically; the event is dispatched and hooks run afterwards. On
// rejection the returned Result explains why and the error is nil. An error
// is returned only when infrastructure fails - including a lost optimistic
// concurrency race, which the caller resolves by reloading and retrying.
func (m *Machine) Execute(ctx context.Context, req Request) (Result, error) {
	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return Result{}, err
	}

	result, eventID, definition, err := m.execute(ctx, uow, req)
	if err != nil || !result.Success {
		_ = uow.Rollback(ctx)
		if !result.Success && err == nil {
			m.logger.Info("transition rejected",
				slog.String("order_id", req.OrderID.String()),
				slog.String("action", string(req.Action)),
				slog.String("role", string(req.Role)),
				slog.String("reason", result.Reason))
		}
		return result, err
	}

	if err = uow.Commit(ctx); err != nil {
		return Result{}, err
	}

	m.logger.Info("transition committed",
		slog.String("order_id", req.OrderID.String()),
		slog.String("action", string(req.Action)),
		slog.String("transition", definition.Description),
		slog.String("from", result.From.String()),
		slog.String("to", result.To.String()),
		slog.String("actor_id", req.ActorID))

	m.bus.Dispatch(ctx, eventID)
	m.runSideEffect(ctx, definition, req, result)
	m.runHooks(ctx, req, result)
	return result, nil
}

// execute runs the request inside the unit of work and returns the result,
// the persisted event's ID and the matched definition. The caller owns
// commit/rollback.
func (m *Machine) execute(ctx context.Context, uow ports.UnitOfWork, req Request) (Result, kernel.UUID, Definition, error) {
	aggregate, err := uow.OrderRepository().Get(ctx, req.OrderID)
	if err != nil {
		return Result{}, kernel.UUID{}, Definition{}, err
	}

	from := aggregate.Status()

	definition, defined := m.table[transitionKey{from: from, action: req.Action}]
	if !defined {
		return Result{
			From:     from,
			Reason:   fmt.Sprintf("action %q is not defined for status %s", req.Action, from),
			Blockers: m.availableTransitions(from),
		}, kernel.UUID{}, Definition{}, nil
	}

	if !definition.allows(req.Role) {
		return Result{
			From:             from,
			Reason:           fmt.Sprintf("role %q may not perform %q", req.Role, req.Action),
			PermissionDenied: true,
		}, kernel.UUID{}, Definition{}, nil
	}

	for _, guard := range definition.Guards {
		rejection, blockers, err := guard(ctx, uow, aggregate, req)
		if err != nil {
			return Result{}, kernel.UUID{}, Definition{}, err
		}
		if rejection != "" {
			return Result{From: from, Reason: rejection, Blockers: blockers}, kernel.UUID{}, Definition{}, nil
		}
	}

	target := definition.To
	if definition.ResolveTarget != nil {
		resolved, rejection, err := definition.ResolveTarget(ctx, uow, aggregate)
		if err != nil {
			return Result{}, kernel.UUID{}, Definition{}, err
		}
		if rejection != "" {
			return Result{From: from, Reason: rejection}, kernel.UUID{}, Definition{}, nil
		}
		target = resolved
	}

	if err = aggregate.ChangeStatus(target); err != nil {
		return Result{}, kernel.UUID{}, Definition{}, err
	}
	if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return Result{}, kernel.UUID{}, Definition{}, err
	}

	entry, err := audit.NewEntry(
		kernel.NewUUID(),
		"order",
		req.OrderID.String(),
		req.ActorID,
		from.String(),
		target.String(),
		m.auditMetadata(req),
		m.now(),
	)
	if err != nil {
		return Result{}, kernel.UUID{}, Definition{}, err
	}
	if err = uow.AuditRepository().Add(ctx, entry); err != nil {
		return Result{}, kernel.UUID{}, Definition{}, err
	}

	event, err := m.bus.Append(ctx, uow.EventRepository(), kernel.NewUUID(), outbox.OrderStatusChanged{
		OrderID:    req.OrderID.String(),
		FromStatus: from.String(),
		ToStatus:   target.String(),
		ActorID:    req.ActorID,
	})
	if err != nil {
		return Result{}, kernel.UUID{}, Definition{}, err
	}

	return Result{Success: true, From: from, To: target}, event.ID(), definition, nil
}

// availableTransitions describes what can be requested from a status, for
// rejection messages.
func (m *Machine) availableTransitions(from order.Status) []string {
	var available []string
	for key, definition := range m.table {
		if key.from == from {
			available = append(available,
				fmt.Sprintf("%s: %s", definition.Action, definition.Description))
		}
	}
	sort.Strings(available)
	return available
}

func (m *Machine) auditMetadata(req Request) map[string]string {
	metadata := map[string]string{
		"action": string(req.Action),
		"role":   string(req.Role),
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	return metadata
}

// runSideEffect invokes the definition's post-commit side effect. Failures
// and panics are logged; the committed status change stands either way and
// downstream state is reconciled through the event bus.
func (m *Machine) runSideEffect(ctx context.Context, definition Definition, req Request, res Result) {
	if definition.SideEffect == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("transition side effect panicked",
				slog.String("order_id", req.OrderID.String()),
				slog.String("action", string(req.Action)),
				slog.Any("panic", r))
		}
	}()

	if err := definition.SideEffect(ctx, req, res); err != nil {
		m.logger.Error("transition side effect failed",
			slog.String("order_id", req.OrderID.String()),
			slog.String("action", string(req.Action)),
			slog.String("error", err.Error()))
	}
}

func (m *Machine) runHooks(ctx context.Context, req Request, res Result) {
	for _, hook := range m.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("transition hook panicked",
						slog.String("order_id", req.OrderID.String()),
						slog.Any("panic", r))
				}
			}()
			hook(ctx, req, res)
		}()
	}
}
