package commands

import (
	"errors"
	"fmt"

	"production/internal/core/domain/model/kernel"
)

var (
	ErrReportStepProgressCommandIsNotConstructed = errors.New(
		"ReportStepProgressCommand must be created via NewReportStepProgressCommand constructor",
	)
	ErrStepNameIsRequired = errors.New("step name is required")
)

// StepOutcome is what the floor reports about a step.
type StepOutcome string

const (
	// OutcomeStarted means the workcenter began the step.
	OutcomeStarted StepOutcome = "started"

	// OutcomeCompleted means the workcenter finished the step.
	OutcomeCompleted StepOutcome = "completed"
)

// ReportStepProgressCommand represents a floor signal about one routing
// step: a workcenter started or completed it.
type ReportStepProgressCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	stepName string
	outcome  StepOutcome
	bundleID string

	guard kernel.ConstructorGuard
}

// NewReportStepProgressCommand creates a command to record step progress.
// bundleID is optional and identifies the physical bundle the signal came
// from.
func NewReportStepProgressCommand(
	orderID kernel.UUID,
	stepName string,
	outcome StepOutcome,
	bundleID string,
) (ReportStepProgressCommand, error) {
	cmd := ReportStepProgressCommand{
		guard: kernel.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setStepName(stepName),
		cmd.setOutcome(outcome),
	); err != nil {
		return ReportStepProgressCommand{}, err
	}

	cmd.bundleID = bundleID
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportStepProgressCommand) Validate() error {
	return c.guard.Validate(ErrReportStepProgressCommandIsNotConstructed)
}

// OrderID returns the order whose step is reported.
func (c ReportStepProgressCommand) OrderID() kernel.UUID {
	return c.orderID
}

// StepName returns the reported step's name within the routing.
func (c ReportStepProgressCommand) StepName() string {
	return c.stepName
}

// Outcome returns what happened to the step.
func (c ReportStepProgressCommand) Outcome() StepOutcome {
	return c.outcome
}

// BundleID returns the reporting bundle, or empty when not tracked.
func (c ReportStepProgressCommand) BundleID() string {
	return c.bundleID
}

func (c *ReportStepProgressCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *ReportStepProgressCommand) setStepName(stepName string) error {
	if stepName == "" {
		return ErrStepNameIsRequired
	}

	c.stepName = stepName
	return nil
}

func (c *ReportStepProgressCommand) setOutcome(outcome StepOutcome) error {
	if outcome != OutcomeStarted && outcome != OutcomeCompleted {
		return fmt.Errorf("%q is not a valid step outcome", outcome)
	}

	c.outcome = outcome
	return nil
}
