// Package http provides the inbound REST adapter. It translates HTTP
// requests into commands, queries and state machine requests, and maps
// domain rejections onto status codes: a rejected transition is 409, a
// permission problem 403, a missing object 404. Infrastructure failures are
// 500 and carry no domain detail.
package http

import (
	"errors"
	"net/http"
	"time"

	"production/internal/core/application/eventbus"
	"production/internal/core/application/statemachine"
	"production/internal/core/application/usecases/commands"
	"production/internal/core/application/usecases/queries"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/domain/model/routing"
	"production/internal/core/domain/services"
	"production/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	machine *statemachine.Machine
	bus     *eventbus.Bus

	// Command handlers
	createOrderHandler        commands.CreateOrderCommandHandler
	planRoutingHandler        commands.PlanRoutingCommandHandler
	reportStepProgressHandler commands.ReportStepProgressCommandHandler

	// Query handlers
	getOrderHandler        queries.GetOrderQueryHandler
	getAuditTrailHandler   queries.GetAuditTrailQueryHandler
	getFailedEventsHandler queries.GetFailedEventsQueryHandler
}

// NewServer creates a new HTTP server with the required handlers.
func NewServer(
	machine *statemachine.Machine,
	bus *eventbus.Bus,
	createOrderHandler commands.CreateOrderCommandHandler,
	planRoutingHandler commands.PlanRoutingCommandHandler,
	reportStepProgressHandler commands.ReportStepProgressCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getAuditTrailHandler queries.GetAuditTrailQueryHandler,
	getFailedEventsHandler queries.GetFailedEventsQueryHandler,
) *Server {
	return &Server{
		machine:                   machine,
		bus:                       bus,
		createOrderHandler:        createOrderHandler,
		planRoutingHandler:        planRoutingHandler,
		reportStepProgressHandler: reportStepProgressHandler,
		getOrderHandler:           getOrderHandler,
		getAuditTrailHandler:      getAuditTrailHandler,
		getFailedEventsHandler:    getFailedEventsHandler,
	}
}

// RegisterRoutes binds the server's handlers to the echo router.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/transitions", s.ExecuteTransition)
	api.POST("/orders/:id/routing", s.PlanRouting)
	api.POST("/orders/:id/steps", s.ReportStepProgress)
	api.GET("/orders/:id/audit", s.GetAuditTrail)
	api.POST("/events", s.EmitEvent)
	api.GET("/events/failed", s.GetFailedEvents)
}

// CreateOrder handles POST /api/v1/orders - registers a new order and
// returns its intake risk assessment.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	orderID := kernel.NewUUID()

	var clientID *kernel.UUID
	if body.ClientID != nil {
		id, err := kernel.UUIDFromBytes(body.ClientID[:])
		if err != nil {
			return badRequest(ctx, "Invalid client id")
		}
		clientID = &id
	}

	var targetDate time.Time
	if body.TargetDate != nil {
		targetDate = *body.TargetDate
	}

	materials := make([]services.MaterialRequirement, 0, len(body.Materials))
	for _, m := range body.Materials {
		materials = append(materials, services.MaterialRequirement{
			Material: m.Material,
			Required: m.Required,
		})
	}

	cmd, err := commands.NewCreateOrderCommand(
		orderID, clientID, body.Method, body.Quantity,
		targetDate, body.QuotedUnitPrice, body.EstimatedUnitCost, materials)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	result, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, OrderCreated{
		ID:         orderID.Bytes(),
		Assessment: newAssessmentView(result),
	})
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	response := Order{
		ID:       result.ID.Bytes(),
		Method:   result.Method,
		Quantity: result.Quantity,
		Status:   result.Status,
		Progress: result.Progress,
		Version:  result.Version,
	}
	if result.ClientID != nil {
		id := result.ClientID.Bytes()
		response.ClientID = &id
	}
	if !result.TargetDate.IsZero() {
		target := result.TargetDate
		response.TargetDate = &target
	}

	response.Steps = make([]Step, 0, len(result.Steps))
	for _, step := range result.Steps {
		view := Step{
			Name:       step.Name,
			Workcenter: step.Workcenter,
			Sequence:   step.Sequence,
			Status:     step.Status,
		}
		if !step.PlannedStart.IsZero() {
			start := step.PlannedStart
			view.PlannedStart = &start
		}
		if !step.PlannedEnd.IsZero() {
			end := step.PlannedEnd
			view.PlannedEnd = &end
		}
		response.Steps = append(response.Steps, view)
	}

	return ctx.JSON(http.StatusOK, response)
}

// ExecuteTransition handles POST /api/v1/orders/:id/transitions - applies a
// lifecycle action through the state machine. A rejection is a 409 with the
// reason; it is not an error.
func (s *Server) ExecuteTransition(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var body TransitionRequest
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if body.Action == "" || body.ActorID == "" || body.Role == "" {
		return badRequest(ctx, "action, actor_id and role are required")
	}

	result, err := s.machine.Execute(ctx.Request().Context(), statemachine.Request{
		OrderID:  orderID,
		Action:   statemachine.Action(body.Action),
		ActorID:  body.ActorID,
		Role:     statemachine.Role(body.Role),
		Metadata: body.Metadata,
	})
	if err != nil {
		return mapError(ctx, err)
	}

	// A role rejection is a 403, distinct from the 409 a guard or state
	// rejection gets.
	if result.PermissionDenied {
		return mapError(ctx, errs.NewPermissionDeniedError(body.Role, body.Action))
	}

	response := TransitionResponse{
		Success:  result.Success,
		From:     result.From.String(),
		To:       result.To.String(),
		Reason:   result.Reason,
		Blockers: result.Blockers,
	}

	if !result.Success {
		return ctx.JSON(http.StatusConflict, response)
	}

	return ctx.JSON(http.StatusOK, response)
}

// PlanRouting handles POST /api/v1/orders/:id/routing - expands a routing
// template into scheduled steps for the order.
func (s *Server) PlanRouting(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var body PlanRoutingRequest
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewPlanRoutingCommand(orderID, body.TemplateKey)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.planRoutingHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusCreated)
}

// ReportStepProgress handles POST /api/v1/orders/:id/steps - records a
// production-floor signal against a routing step.
func (s *Server) ReportStepProgress(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var body StepProgressRequest
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewReportStepProgressCommand(
		orderID, body.StepName, commands.StepOutcome(body.Outcome), body.BundleID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.reportStepProgressHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		if errors.Is(err, routing.ErrStepIsNotReady) {
			return ctx.JSON(http.StatusConflict, Error{
				Code:    http.StatusConflict,
				Message: err.Error(),
			})
		}
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetAuditTrail handles GET /api/v1/orders/:id/audit.
func (s *Server) GetAuditTrail(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetAuditTrailQuery(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	trail, err := s.getAuditTrailHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	response := make([]AuditEntry, len(trail))
	for i, entry := range trail {
		response[i] = AuditEntry{
			ID:        entry.ID.Bytes(),
			ActorID:   entry.ActorID,
			Before:    entry.Before,
			After:     entry.After,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// EmitEvent handles POST /api/v1/events - accepts a floor or collaborator
// signal (fabric issue, QC outcome, design upload) into the durable event
// bus. The event is persisted before dispatch, so a 202 means the signal
// will be processed even if handling fails right now.
func (s *Server) EmitEvent(ctx echo.Context) error {
	var body EmitEventRequest
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	payload, err := outbox.DecodePayload(body.EventType, body.Payload)
	if err != nil {
		return badRequest(ctx, "Invalid event: "+err.Error())
	}

	if body.EventID != nil {
		eventID, idErr := kernel.UUIDFromBytes(body.EventID[:])
		if idErr != nil {
			return badRequest(ctx, "Invalid event id")
		}
		err = s.bus.EmitWithID(ctx.Request().Context(), eventID, payload)
	} else {
		err = s.bus.Emit(ctx.Request().Context(), payload)
	}
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusAccepted)
}

// GetFailedEvents handles GET /api/v1/events/failed - the operational
// dashboard for events that exhausted their retry budget.
func (s *Server) GetFailedEvents(ctx echo.Context) error {
	query := queries.NewGetFailedEventsQuery()

	events, err := s.getFailedEventsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	response := make([]FailedEvent, len(events))
	for i, event := range events {
		response[i] = FailedEvent{
			ID:         event.ID.Bytes(),
			EventType:  event.EventType,
			EntityType: event.EntityType,
			EntityID:   event.EntityID,
			RetryCount: event.RetryCount,
			LastError:  event.LastError,
			CreatedAt:  event.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// mapError translates domain errors onto status codes.
func mapError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrPermissionDenied):
		return ctx.JSON(http.StatusForbidden, Error{
			Code:    http.StatusForbidden,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrConcurrentModification):
		return ctx.JSON(http.StatusConflict, Error{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrTemplateIsInvalid):
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
}
