package queries_test

import (
	"context"
	"testing"
	"time"

	"production/internal/adapters/out/postgres/orderrepo"
	"production/internal/adapters/out/postgres/steprepo"
	"production/internal/core/application/usecases/queries"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/model/routing"
	"production/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type GetOrderQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.GetOrderQueryHandler
	orderRepo *orderrepo.GormOrderRepository
	stepRepo  *steprepo.GormRoutingStepRepository
}

func (suite *GetOrderQueryHandlerTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(&orderrepo.OrderDTO{}, &steprepo.StepDTO{})
	suite.Require().NoError(err)

	suite.handler = queries.NewGetOrderQueryHandler(db)
	suite.orderRepo = orderrepo.NewGormOrderRepository(db)
	suite.stepRepo = steprepo.NewGormRoutingStepRepository(db)
}

func (suite *GetOrderQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *GetOrderQueryHandlerTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders, routing_steps CASCADE").Error
	suite.Require().NoError(err)
}

func (suite *GetOrderQueryHandlerTestSuite) TestHandle_UnknownOrder_ReturnsNotFound() {
	query, err := queries.NewGetOrderQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	_, err = suite.handler.Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *GetOrderQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	var invalidQuery queries.GetOrderQuery

	_, err := suite.handler.Handle(context.Background(), invalidQuery)

	suite.Require().ErrorIs(err, queries.ErrGetOrderQueryIsNotConstructed)
}

func (suite *GetOrderQueryHandlerTestSuite) TestHandle_OrderWithoutRouting_ReturnsEmptySteps() {
	target := time.Now().Add(96 * time.Hour).UTC().Truncate(time.Second)
	testOrder, err := order.NewOrder(kernel.NewUUID(), "SILKSCREEN", 500, target)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orderRepo.Add(context.Background(), testOrder))

	query, err := queries.NewGetOrderQuery(testOrder.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.True(result.ID.IsEqual(testOrder.ID()))
	suite.Nil(result.ClientID)
	suite.Equal("SILKSCREEN", result.Method)
	suite.Equal(500, result.Quantity)
	suite.Equal(target.Unix(), result.TargetDate.Unix())
	suite.Equal("Intake", result.Status)
	suite.Equal(0, result.Progress)
	suite.NotNil(result.Steps)
	suite.Empty(result.Steps)
}

func (suite *GetOrderQueryHandlerTestSuite) TestHandle_OrderWithRouting_ReturnsStepsInSequenceOrder() {
	testOrder, err := order.NewOrder(kernel.NewUUID(), "EMBROIDERY", 120, time.Now().Add(72*time.Hour))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orderRepo.Add(context.Background(), testOrder))

	start := time.Now().UTC().Truncate(time.Second)
	cutting := suite.makeStep(testOrder.ID(), "CUTTING", "CUT-01", 1, nil)
	suite.Require().NoError(cutting.Schedule(start, start.Add(2*time.Hour)))
	sewing := suite.makeStep(testOrder.ID(), "SEWING", "SEW-01", 2, []string{"CUTTING"})
	suite.Require().NoError(sewing.Schedule(start.Add(2*time.Hour), start.Add(6*time.Hour)))
	packing := suite.makeStep(testOrder.ID(), "PACKING", "PACK-01", 3, []string{"SEWING"})

	// Persist out of order so sequence ordering is the query's doing.
	err = suite.stepRepo.AddBatch(context.Background(),
		[]*routing.Step{packing, cutting, sewing})
	suite.Require().NoError(err)

	query, err := queries.NewGetOrderQuery(testOrder.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result.Steps, 3)

	suite.Equal("CUTTING", result.Steps[0].Name)
	suite.Equal("CUT-01", result.Steps[0].Workcenter)
	suite.Equal(1, result.Steps[0].Sequence)
	suite.Equal("Planned", result.Steps[0].Status)
	suite.Equal(start.Unix(), result.Steps[0].PlannedStart.Unix())
	suite.Equal(start.Add(2*time.Hour).Unix(), result.Steps[0].PlannedEnd.Unix())

	suite.Equal("SEWING", result.Steps[1].Name)
	suite.Equal(2, result.Steps[1].Sequence)

	// An unscheduled step surfaces zero planned times.
	suite.Equal("PACKING", result.Steps[2].Name)
	suite.True(result.Steps[2].PlannedStart.IsZero())
	suite.True(result.Steps[2].PlannedEnd.IsZero())
}

func (suite *GetOrderQueryHandlerTestSuite) TestHandle_StepsOfOtherOrdersAreExcluded() {
	first, err := order.NewOrder(kernel.NewUUID(), "DTG", 40, time.Now().Add(48*time.Hour))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orderRepo.Add(context.Background(), first))

	second, err := order.NewOrder(kernel.NewUUID(), "DTG", 80, time.Now().Add(48*time.Hour))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orderRepo.Add(context.Background(), second))

	err = suite.stepRepo.AddBatch(context.Background(), []*routing.Step{
		suite.makeStep(first.ID(), "PRINTING", "DTG-01", 1, nil),
		suite.makeStep(second.ID(), "PRINTING", "DTG-02", 1, nil),
		suite.makeStep(second.ID(), "PACKING", "PACK-01", 2, []string{"PRINTING"}),
	})
	suite.Require().NoError(err)

	query, err := queries.NewGetOrderQuery(first.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result.Steps, 1)
	suite.Equal("DTG-01", result.Steps[0].Workcenter)
}

func (suite *GetOrderQueryHandlerTestSuite) makeStep(
	orderID kernel.UUID,
	name, workcenter string,
	sequence int,
	dependsOn []string,
) *routing.Step {
	step, err := routing.NewStep(
		kernel.NewUUID(), orderID, name, workcenter, sequence, dependsOn, routing.JoinAnd)
	suite.Require().NoError(err)
	return step
}

func TestGetOrderQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetOrderQueryHandlerTestSuite))
}
