package statemachine

import (
	"context"
	"fmt"

	"production/internal/core/domain/model/assessment"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/services"
	"production/internal/core/ports"
)

// Action names a lifecycle operation a caller can request. Actions are the
// table's second key: the same action from different statuses can mean
// different transitions.
type Action string

const (
	ActionSubmitForDesign    Action = "submit_for_design"
	ActionSubmitDesign       Action = "submit_design"
	ActionApproveDesign      Action = "approve_design"
	ActionRejectDesign       Action = "reject_design"
	ActionStartProduction    Action = "start_production"
	ActionCompleteProduction Action = "complete_production"
	ActionCompleteQC         Action = "complete_qc"
	ActionCompletePacking    Action = "complete_packing"
	ActionDispatch           Action = "dispatch"
	ActionClose              Action = "close"
	ActionHold               Action = "hold"
	ActionResume             Action = "resume"
	ActionCancel             Action = "cancel"
)

// Role names the caller's function in the process. Permission checks are
// membership tests against a definition's allowed roles.
type Role string

const (
	RoleSales      Role = "sales"
	RoleDesigner   Role = "designer"
	RoleClient     Role = "client"
	RolePlanner    Role = "planner"
	RoleProduction Role = "production"
	RoleQC         Role = "qc"
	RoleLogistics  Role = "logistics"
	RoleManager    Role = "manager"
)

// transitionKey identifies one table row.
type transitionKey struct {
	from   order.Status
	action Action
}

// Guard checks a business precondition against the loaded order inside the
// transition's transaction. A non-empty rejection refuses the transition;
// blockers carry structured detail for the caller. An error means the check
// itself could not run.
type Guard func(ctx context.Context, uow ports.UnitOfWork, o *order.Order, req Request) (rejection string, blockers []string, err error)

// SideEffect runs after the transition's transaction commits, best-effort:
// a failure is logged and reconciled downstream, never rolled back into the
// already-committed status change.
type SideEffect func(ctx context.Context, req Request, res Result) error

// Definition is one row of the transition table.
type Definition struct {
	From         order.Status
	Action       Action
	To           order.Status
	Description  string
	AllowedRoles []Role
	Guards       []Guard
	SideEffect   SideEffect

	// ResolveTarget computes a dynamic target status; set only for resume,
	// whose target is wherever the order was before it went on hold.
	ResolveTarget func(ctx context.Context, uow ports.UnitOfWork, o *order.Order) (order.Status, string, error)
}

// allows reports whether the role may request this transition.
func (d Definition) allows(role Role) bool {
	for _, allowed := range d.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// buildTable assembles the full lifecycle. Hold and cancel are not special
// cases in the executor: every live status gets its own explicit row, so
// the table is the complete truth about what can happen.
func buildTable(engine services.AssessmentEngine, planRouting RoutingPlanner) map[transitionKey]Definition {
	definitions := []Definition{
		{
			From:         order.Intake,
			Action:       ActionSubmitForDesign,
			To:           order.DesignPending,
			Description:  "send the order to the design team",
			AllowedRoles: []Role{RoleSales, RoleManager},
			Guards:       []Guard{guardClientAssigned},
		},
		{
			From:         order.DesignPending,
			Action:       ActionSubmitDesign,
			To:           order.DesignApproval,
			Description:  "submit the design for client approval",
			AllowedRoles: []Role{RoleDesigner, RoleManager},
		},
		{
			From:         order.DesignApproval,
			Action:       ActionApproveDesign,
			To:           order.ProductionPlanned,
			Description:  "approve the design and plan the default routing",
			AllowedRoles: []Role{RoleClient, RoleManager},
			SideEffect:   planRoutingSideEffect(planRouting),
		},
		{
			From:         order.DesignApproval,
			Action:       ActionRejectDesign,
			To:           order.DesignPending,
			Description:  "send the design back for rework",
			AllowedRoles: []Role{RoleClient, RoleManager},
		},
		{
			From:         order.ProductionPlanned,
			Action:       ActionStartProduction,
			To:           order.InProgress,
			Description:  "release the order to the production floor",
			AllowedRoles: []Role{RoleProduction, RolePlanner, RoleManager},
			Guards:       []Guard{guardRoutingPlanned, guardAssessmentNotRed(engine)},
		},
		{
			From:         order.InProgress,
			Action:       ActionCompleteProduction,
			To:           order.QualityControl,
			Description:  "hand the finished goods to quality control",
			AllowedRoles: []Role{RoleProduction, RoleManager},
		},
		{
			From:         order.QualityControl,
			Action:       ActionCompleteQC,
			To:           order.Packing,
			Description:  "sign off the inspection and clear for packing",
			AllowedRoles: []Role{RoleQC, RoleManager},
			Guards:       []Guard{guardQCPassed},
		},
		{
			From:         order.Packing,
			Action:       ActionCompletePacking,
			To:           order.ReadyForDelivery,
			Description:  "close the cartons and stage for delivery",
			AllowedRoles: []Role{RoleProduction, RoleLogistics, RoleManager},
		},
		{
			From:         order.ReadyForDelivery,
			Action:       ActionDispatch,
			To:           order.Delivered,
			Description:  "dispatch the shipment to the client",
			AllowedRoles: []Role{RoleLogistics, RoleManager},
		},
		{
			From:         order.Delivered,
			Action:       ActionClose,
			To:           order.Closed,
			Description:  "settle and archive the order",
			AllowedRoles: []Role{RoleSales, RoleManager},
		},
	}

	for _, live := range order.LiveStatuses() {
		if live != order.OnHold {
			definitions = append(definitions, Definition{
				From:         live,
				Action:       ActionHold,
				To:           order.OnHold,
				Description:  "pause all work on the order",
				AllowedRoles: []Role{RoleSales, RoleManager},
			})
		}

		definitions = append(definitions, Definition{
			From:         live,
			Action:       ActionCancel,
			To:           order.Cancelled,
			Description:  "cancel the order",
			AllowedRoles: []Role{RoleSales, RoleManager},
		})
	}

	definitions = append(definitions, Definition{
		From:          order.OnHold,
		Action:        ActionResume,
		Description:   "resume the order where it was paused",
		AllowedRoles:  []Role{RoleSales, RoleManager},
		ResolveTarget: resolveResumeTarget,
	})

	table := make(map[transitionKey]Definition, len(definitions))
	for _, d := range definitions {
		table[transitionKey{from: d.From, action: d.Action}] = d
	}
	return table
}

// planRoutingSideEffect plans the approved order's default routing. A nil
// planner leaves the definition without a side effect; planning then waits
// for an explicit PlanRoutingCommand.
func planRoutingSideEffect(planRouting RoutingPlanner) SideEffect {
	if planRouting == nil {
		return nil
	}
	return func(ctx context.Context, req Request, _ Result) error {
		return planRouting(ctx, req.OrderID)
	}
}

// guardClientAssigned refuses to send an order to design before a client is
// attached.
func guardClientAssigned(_ context.Context, _ ports.UnitOfWork, o *order.Order, _ Request) (string, []string, error) {
	if o.Client() == nil {
		return "no client is assigned to the order", nil, nil
	}
	return "", nil, nil
}

// guardRoutingPlanned refuses to start production before the order has a
// routing batch.
func guardRoutingPlanned(ctx context.Context, uow ports.UnitOfWork, o *order.Order, _ Request) (string, []string, error) {
	steps, err := uow.RoutingStepRepository().GetByOrder(ctx, o.ID())
	if err != nil {
		return "", nil, err
	}
	if len(steps) == 0 {
		return "no routing has been planned for the order", nil, nil
	}
	return "", nil, nil
}

// guardAssessmentNotRed re-runs the risk assessment at the production gate
// and refuses on a RED verdict, surfacing the blocking issues.
func guardAssessmentNotRed(engine services.AssessmentEngine) Guard {
	return func(ctx context.Context, _ ports.UnitOfWork, o *order.Order, _ Request) (string, []string, error) {
		clientID := ""
		if o.Client() != nil {
			clientID = o.Client().String()
		}

		result := engine.Assess(ctx, services.Intake{
			OrderID:    o.ID().String(),
			ClientID:   clientID,
			Method:     o.Method(),
			Quantity:   o.Quantity(),
			TargetDate: o.TargetDate(),
		})

		if result.Risk() == assessment.Red {
			return "risk assessment is RED", result.Blockers(), nil
		}
		return "", nil, nil
	}
}

// guardQCPassed refuses to leave quality control before a passing
// inspection outcome has been recorded. The QC handler marks a pass by
// moving progress to its post-inspection value; anything lower means rework
// is still pending.
func guardQCPassed(_ context.Context, _ ports.UnitOfWork, o *order.Order, _ Request) (string, []string, error) {
	if o.Progress() < 90 {
		return "no passing inspection outcome is recorded", nil, nil
	}
	return "", nil, nil
}

// resolveResumeTarget finds where the order was before it went on hold: the
// before-status of the most recent audit entry that put it OnHold.
func resolveResumeTarget(ctx context.Context, uow ports.UnitOfWork, o *order.Order) (order.Status, string, error) {
	trail, err := uow.AuditRepository().GetByEntity(ctx, "order", o.ID().String())
	if err != nil {
		return order.Unknown, "", err
	}

	for _, entry := range trail {
		if entry.After() != order.OnHold.String() {
			continue
		}

		target, err := order.StatusFromString(entry.Before())
		if err != nil {
			return order.Unknown, "", fmt.Errorf("audit trail holds unknown status %q: %w", entry.Before(), err)
		}
		return target, "", nil
	}

	return order.Unknown, "the audit trail has no record of the hold", nil
}
