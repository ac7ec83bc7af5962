package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "production/internal/adapters/out/postgres"
	"production/internal/adapters/out/postgres/auditrepo"
	"production/internal/adapters/out/postgres/eventrepo"
	"production/internal/adapters/out/postgres/insightrepo"
	"production/internal/adapters/out/postgres/orderrepo"
	"production/internal/adapters/out/postgres/steprepo"
	"production/internal/core/domain/model/audit"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/domain/model/routing"
	"production/internal/core/ports"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite provides integration testing for the
// GORM-based Unit of Work implementation against a real PostgreSQL database.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

// SetupSuite initializes PostgreSQL container and database connection for all tests.
// Runs database migrations to prepare schema for unit of work operations.
func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&steprepo.StepDTO{},
		&eventrepo.EventDTO{},
		&auditrepo.EntryDTO{},
		&insightrepo.InsightDTO{},
	)
	suite.Require().NoError(err)

	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
}

// SetupTest ensures clean database state before each test.
func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec(
		"TRUNCATE TABLE orders, routing_steps, events, audit_entries, insights").Error
	suite.Require().NoError(err)
}

// TearDownSuite cleans up PostgreSQL container after all tests complete.
func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")

	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow1.RoutingStepRepository())
	suite.NotNil(uow1.EventRepository())
	suite.NotNil(uow1.AuditRepository())
	suite.NotNil(uow1.InsightRepository())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	err := uow.Begin(ctx)
	suite.Require().NoError(err, "Should begin transaction successfully")

	err = uow.Begin(ctx)
	suite.Require().NoError(err, "Multiple begin calls should be safe")

	err = uow.Commit(ctx)
	suite.Require().NoError(err, "Should commit transaction successfully")

	err = uow.Begin(ctx)
	suite.Require().NoError(err)

	err = uow.Rollback(ctx)
	suite.Require().NoError(err, "Should rollback transaction successfully")
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionErrors() {
	ctx := context.Background()
	uow := suite.factory.Create()

	err := uow.Commit(ctx)
	suite.Require().Error(err, "Should error when committing without active transaction")

	err = uow.Rollback(ctx)
	suite.Require().Error(err, "Should error when rolling back without active transaction")
}

// TestUnitOfWork_TransitionCommit exercises the write pattern of a state
// machine transition: order update, audit entry and status event in one
// transaction.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransitionCommit() {
	ctx := context.Background()
	uow := suite.factory.Create()

	testOrder := createTestOrder(suite.T())

	err := uow.Begin(ctx)
	suite.Require().NoError(err)

	err = uow.OrderRepository().Add(ctx, testOrder)
	suite.Require().NoError(err)

	err = testOrder.ChangeStatus(order.DesignPending)
	suite.Require().NoError(err)
	err = uow.OrderRepository().Update(ctx, testOrder)
	suite.Require().NoError(err)

	entry, err := audit.NewEntry(
		kernel.NewUUID(),
		"order", testOrder.ID().String(), "user-1",
		order.Intake.String(), order.DesignPending.String(),
		map[string]string{"action": "submit_for_design"},
		time.Now(),
	)
	suite.Require().NoError(err)
	err = uow.AuditRepository().Add(ctx, entry)
	suite.Require().NoError(err)

	event, err := outbox.NewEvent(
		kernel.NewUUID(),
		"order.status_changed", "order", testOrder.ID().String(),
		[]byte(`{"from":"Intake","to":"DesignPending"}`),
		time.Now(),
	)
	suite.Require().NoError(err)
	err = uow.EventRepository().Add(ctx, event)
	suite.Require().NoError(err)

	err = uow.Commit(ctx)
	suite.Require().NoError(err)

	newUow := suite.factory.Create()

	retrieved, err := newUow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.DesignPending, retrieved.Status())
	suite.Equal(1, retrieved.Version(), "Update should bump the version")

	trail, err := newUow.AuditRepository().GetByEntity(ctx, "order", testOrder.ID().String())
	suite.Require().NoError(err)
	suite.Require().Len(trail, 1)
	suite.Equal(order.DesignPending.String(), trail[0].After())
	suite.Equal("submit_for_design", trail[0].Metadata()["action"])

	open, err := newUow.EventRepository().GetOpenBatch(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(open, 1)
	suite.Equal("order.status_changed", open[0].EventType())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionRollback() {
	ctx := context.Background()
	uow := suite.factory.Create()

	testOrder := createTestOrder(suite.T())
	steps := createTestRouting(suite.T(), testOrder.ID())

	err := uow.Begin(ctx)
	suite.Require().NoError(err)

	err = uow.OrderRepository().Add(ctx, testOrder)
	suite.Require().NoError(err)

	err = uow.RoutingStepRepository().AddBatch(ctx, steps)
	suite.Require().NoError(err)

	_, err = uow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err, "Order should be visible within the transaction")

	err = uow.Rollback(ctx)
	suite.Require().NoError(err)

	newUow := suite.factory.Create()

	_, err = newUow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().Error(err, "Order should not exist after rollback")

	persisted, err := newUow.RoutingStepRepository().GetByOrder(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Empty(persisted, "Steps should not exist after rollback")
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RepositoryIsolation() {
	ctx := context.Background()

	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	order1 := createTestOrder(suite.T())
	order2 := createTestOrder(suite.T())

	err := uow1.Begin(ctx)
	suite.Require().NoError(err)

	err = uow2.Begin(ctx)
	suite.Require().NoError(err)

	err = uow1.OrderRepository().Add(ctx, order1)
	suite.Require().NoError(err)

	err = uow2.OrderRepository().Add(ctx, order2)
	suite.Require().NoError(err)

	_, err = uow1.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err, "UOW1 should see order1")

	_, err = uow1.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "UOW1 should not see order2")

	err = uow1.Commit(ctx)
	suite.Require().NoError(err)

	err = uow2.Rollback(ctx)
	suite.Require().NoError(err)

	newUow := suite.factory.Create()
	_, err = newUow.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err, "Order1 should persist after commit")

	_, err = newUow.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "Order2 should not persist after rollback")
}

// TestUnitOfWork_ReplaceRouting verifies a replan can drop the previous
// batch and write a different one in a single transaction, leaving no step
// of the old template behind.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_ReplaceRouting() {
	ctx := context.Background()

	testOrder := createTestOrder(suite.T())
	oldSteps := createTestRouting(suite.T(), testOrder.ID())

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(uow.RoutingStepRepository().AddBatch(ctx, oldSteps))
	suite.Require().NoError(uow.Commit(ctx))

	inspection, err := routing.NewStep(
		kernel.DerivedUUID(testOrder.ID(), "step:Inspection"), testOrder.ID(),
		"Inspection", "QC", 1, nil, routing.JoinAnd)
	suite.Require().NoError(err)

	replanUow := suite.factory.Create()
	suite.Require().NoError(replanUow.Begin(ctx))
	suite.Require().NoError(replanUow.RoutingStepRepository().DeleteByOrder(ctx, testOrder.ID()))
	suite.Require().NoError(replanUow.RoutingStepRepository().AddBatch(ctx, []*routing.Step{inspection}))
	suite.Require().NoError(replanUow.Commit(ctx))

	persisted, err := suite.factory.Create().RoutingStepRepository().GetByOrder(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().Len(persisted, 1)
	suite.Equal("Inspection", persisted[0].Name())
}

// TestUnitOfWork_WithoutTransaction verifies repositories work without
// explicit transaction boundaries for immediate operations.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_WithoutTransaction() {
	ctx := context.Background()
	uow := suite.factory.Create()

	testOrder := createTestOrder(suite.T())

	err := uow.OrderRepository().Add(ctx, testOrder)
	suite.Require().NoError(err)

	retrieved, err := uow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.True(retrieved.ID().IsEqual(testOrder.ID()))
}

// createTestOrder creates a valid order for testing purposes.
func createTestOrder(t interface{ Fatalf(string, ...any) }) *order.Order {
	testOrder, err := order.NewOrder(
		kernel.NewUUID(), "SILKSCREEN", 500, time.Now().AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("create test order: %v", err)
	}
	return testOrder
}

// createTestRouting creates a minimal two-step routing for testing purposes.
func createTestRouting(t interface{ Fatalf(string, ...any) }, orderID kernel.UUID) []*routing.Step {
	cutting, err := routing.NewStep(
		kernel.DerivedUUID(orderID, "step:Cutting"), orderID,
		"Cutting", "CUTTING", 1, nil, routing.JoinAnd)
	if err != nil {
		t.Fatalf("create cutting step: %v", err)
	}

	sewing, err := routing.NewStep(
		kernel.DerivedUUID(orderID, "step:Sewing"), orderID,
		"Sewing", "SEWING", 2, []string{"Cutting"}, routing.JoinAnd)
	if err != nil {
		t.Fatalf("create sewing step: %v", err)
	}

	return []*routing.Step{cutting, sewing}
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
