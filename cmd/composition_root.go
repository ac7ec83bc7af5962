package cmd

import (
	"context"
	"log/slog"

	"production/internal/adapters/in/http"
	"production/internal/adapters/out/plantconfig"
	"production/internal/adapters/out/postgres"
	"production/internal/core/application/eventbus"
	"production/internal/core/application/statemachine"
	"production/internal/core/application/usecases/commands"
	"production/internal/core/application/usecases/queries"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/routing"
	"production/internal/core/domain/services"
	"production/internal/jobs"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// CompositionRoot wires the application graph: one Unit of Work factory,
// one event bus with the choreography registered, one state machine, and
// the handlers the HTTP adapter serves.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	logger     *slog.Logger
	uowFactory *postgres.GormUnitOfWorkFactory
	catalog    *routing.Catalog
	providers  *plantconfig.Providers
	bus        *eventbus.Bus
	machine    *statemachine.Machine
}

// NewCompositionRoot builds the graph. The choreography handlers are
// subscribed here, once, for the process lifetime.
func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	catalog *routing.Catalog,
	providers *plantconfig.Providers,
	logger *slog.Logger,
) *CompositionRoot {
	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB)

	bus := eventbus.NewBus(uowFactory, logger, eventbus.NewMetrics(prometheus.DefaultRegisterer))
	eventbus.NewChoreography(bus, uowFactory).Register()

	// The approve-design side effect plans the method's default routing
	// through the same handler the HTTP adapter uses.
	planHandler := commands.NewPlanRoutingCommandHandler(
		FuncPlanningUoWFactory(func() commands.PlanningUoW { return uowFactory.Create() }),
		services.NewRoutingGraphBuilder(catalog),
		bus,
	)
	planRouting := func(ctx context.Context, orderID kernel.UUID) error {
		cmd, err := commands.NewPlanDefaultRoutingCommand(orderID)
		if err != nil {
			return err
		}
		return planHandler.Handle(ctx, cmd)
	}

	machine := statemachine.NewMachine(uowFactory, bus, services.NewAssessmentEngine(
		providers, providers, providers, catalog), planRouting, logger)

	return &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		logger:     logger,
		uowFactory: uowFactory,
		catalog:    catalog,
		providers:  providers,
		bus:        bus,
		machine:    machine,
	}
}

// CreateStateMachine returns the order lifecycle state machine.
func (c *CompositionRoot) CreateStateMachine() *statemachine.Machine {
	return c.machine
}

// CreateEventBus returns the durable event bus.
func (c *CompositionRoot) CreateEventBus() *eventbus.Bus {
	return c.bus
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.IntakeUoWFactory = FuncIntakeUoWFactory(func() commands.IntakeUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.bus, services.NewAssessmentEngine(
		c.providers, c.providers, c.providers, c.catalog))
}

func (c *CompositionRoot) CreatePlanRoutingCommandHandler() commands.PlanRoutingCommandHandler {
	var f commands.PlanningUoWFactory = FuncPlanningUoWFactory(func() commands.PlanningUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPlanRoutingCommandHandler(f, services.NewRoutingGraphBuilder(c.catalog), c.bus)
}

func (c *CompositionRoot) CreateReportStepProgressCommandHandler() commands.ReportStepProgressCommandHandler {
	var f commands.PlanningUoWFactory = FuncPlanningUoWFactory(func() commands.PlanningUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReportStepProgressCommandHandler(f, c.bus)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetAuditTrailQueryHandler() queries.GetAuditTrailQueryHandler {
	return queries.NewGetAuditTrailQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetFailedEventsQueryHandler() queries.GetFailedEventsQueryHandler {
	return queries.NewGetFailedEventsQueryHandler(c.gormDB)
}

// CreateHTTPServer assembles the inbound REST adapter.
func (c *CompositionRoot) CreateHTTPServer() *http.Server {
	return http.NewServer(
		c.CreateStateMachine(),
		c.bus,
		c.CreateCreateOrderCommandHandler(),
		c.CreatePlanRoutingCommandHandler(),
		c.CreateReportStepProgressCommandHandler(),
		c.CreateGetOrderQueryHandler(),
		c.CreateGetAuditTrailQueryHandler(),
		c.CreateGetFailedEventsQueryHandler(),
	)
}

// CreateJobManager assembles the sweep and reaper jobs.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.bus, c.config.EventSweepBatchSize, c.config.EventReaperStaleness, c.logger)
}

type FuncIntakeUoWFactory func() commands.IntakeUoW

func (f FuncIntakeUoWFactory) Create() commands.IntakeUoW {
	return f()
}

type FuncPlanningUoWFactory func() commands.PlanningUoW

func (f FuncPlanningUoWFactory) Create() commands.PlanningUoW {
	return f()
}
