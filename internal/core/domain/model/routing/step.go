package routing

import (
	"errors"
	"fmt"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/pkg/errs"
)

var (
	// ErrStepIsNotConstructed is returned when a Step instance was not created
	// through the NewStep or RestoreStep factory methods.
	ErrStepIsNotConstructed = errors.New("Step must be created via NewStep constructor")

	// ErrStepIsNotReady is returned when execution is reported for a step whose
	// join condition has not yet been satisfied.
	ErrStepIsNotReady = errors.New("step dependencies are not satisfied")
)

// StepStatus represents the execution state of a routing step on the floor.
type StepStatus int

const (
	// StepUnknown represents an invalid or undefined step status.
	StepUnknown StepStatus = iota

	// StepPlanned means the step exists but its dependencies are not done.
	StepPlanned

	// StepReady means the join condition over the dependencies holds and the
	// step may start.
	StepReady

	// StepInProgress means the workcenter has started the step.
	StepInProgress

	// StepDone means the workcenter finished the step.
	StepDone
)

// getStepStatusStrings returns a map of StepStatus values to their string
// representations.
func getStepStatusStrings() map[StepStatus]string {
	return map[StepStatus]string{
		StepUnknown:    "Unknown",
		StepPlanned:    "Planned",
		StepReady:      "Ready",
		StepInProgress: "InProgress",
		StepDone:       "Done",
	}
}

// Validate checks if the StepStatus value is valid.
func (s StepStatus) Validate() error {
	if _, ok := getStepStatusStrings()[s]; !ok || s == StepUnknown {
		return errs.NewValueIsInvalidErrorWithCause("step status is invalid",
			fmt.Errorf("%d is not a valid step status", s))
	}
	return nil
}

// String returns the human-readable name of the step status.
func (s StepStatus) String() string {
	if str, ok := getStepStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// JoinType defines how a step's multiple dependencies combine to unblock it.
type JoinType int

const (
	// JoinUnknown represents an invalid or undefined join type.
	JoinUnknown JoinType = iota

	// JoinAnd requires every dependency to be Done before the step is Ready.
	JoinAnd

	// JoinOr requires any single dependency to be Done.
	JoinOr
)

// Validate checks if the JoinType value is valid.
func (j JoinType) Validate() error {
	if j != JoinAnd && j != JoinOr {
		return errs.NewValueIsInvalidErrorWithCause("join type is invalid",
			fmt.Errorf("%d is not a valid join type", j))
	}
	return nil
}

// String returns the human-readable name of the join type.
func (j JoinType) String() string {
	switch j {
	case JoinAnd:
		return "AND"
	case JoinOr:
		return "OR"
	default:
		return "Unknown"
	}
}

// JoinTypeFromString parses a join type from its string form ("AND"/"OR").
// An empty string defaults to AND, which matches single-dependency steps.
func JoinTypeFromString(s string) (JoinType, error) {
	switch s {
	case "", "AND":
		return JoinAnd, nil
	case "OR":
		return JoinOr, nil
	default:
		return JoinUnknown, errs.NewValueIsInvalidErrorWithCause("join type is invalid",
			fmt.Errorf("%q is not a valid join type", s))
	}
}

// Step is an entity representing one scheduled unit of work within an
// order's routing. Steps form a DAG through DependsOn: a step becomes Ready
// only when its join condition over its dependencies' statuses is satisfied.
//
// Steps are created in a batch when the order enters production planning,
// mutated by execution signals from the floor, and never deleted - a routing
// change supersedes the whole batch.
type Step struct {
	// id is the unique identifier for the step
	id kernel.UUID

	// orderID references the owning order
	orderID kernel.UUID

	// name identifies the step within its order's routing (unique per order)
	name string

	// workcenter labels the production stage performing the step
	workcenter string

	// sequence orders steps for scheduling walks (ascending)
	sequence int

	// dependsOn names upstream steps within the same routing
	dependsOn []string

	// joinType defines how multiple dependencies combine
	joinType JoinType

	// status is the execution state
	status StepStatus

	// plannedStart/plannedEnd are the computed scheduling window
	plannedStart time.Time
	plannedEnd   time.Time

	// isConstructed ensures the step was created via a constructor
	isConstructed bool
}

// NewStep creates a new routing step in Planned status.
//
// Validation rules:
//   - id and orderID must be valid UUIDs
//   - name and workcenter are required
//   - sequence must be positive
//   - a step cannot depend on itself
//   - joinType must be AND or OR
func NewStep(
	id kernel.UUID,
	orderID kernel.UUID,
	name string,
	workcenter string,
	sequence int,
	dependsOn []string,
	joinType JoinType,
) (*Step, error) {
	s := &Step{
		status:        StepPlanned,
		isConstructed: true,
	}

	if err := errors.Join(
		s.setIDs(id, orderID),
		s.setName(name),
		s.setWorkcenter(workcenter),
		s.setSequence(sequence),
		s.setDependsOn(name, dependsOn),
		joinType.Validate(),
	); err != nil {
		return nil, err
	}

	s.joinType = joinType
	return s, nil
}

// RestoreStep reconstructs a Step from persistence, accepting the persisted
// status and scheduling window as-is after validation.
func RestoreStep(
	id kernel.UUID,
	orderID kernel.UUID,
	name string,
	workcenter string,
	sequence int,
	dependsOn []string,
	joinType JoinType,
	status StepStatus,
	plannedStart time.Time,
	plannedEnd time.Time,
) (*Step, error) {
	s, err := NewStep(id, orderID, name, workcenter, sequence, dependsOn, joinType)
	if err != nil {
		return nil, err
	}

	if err = status.Validate(); err != nil {
		return nil, err
	}

	s.status = status
	s.plannedStart = plannedStart
	s.plannedEnd = plannedEnd
	return s, nil
}

// Validate ensures the Step instance was properly constructed.
func (s *Step) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrStepIsNotConstructed
	}
	return nil
}

// ID returns the step's unique identifier.
func (s *Step) ID() kernel.UUID { return s.id }

// OrderID returns the owning order's identifier.
func (s *Step) OrderID() kernel.UUID { return s.orderID }

// Name returns the step name, unique within its order's routing.
func (s *Step) Name() string { return s.name }

// Workcenter returns the production stage label.
func (s *Step) Workcenter() string { return s.workcenter }

// Sequence returns the scheduling order of the step.
func (s *Step) Sequence() int { return s.sequence }

// DependsOn returns the names of upstream steps. The returned slice is a
// copy; mutating it does not affect the step.
func (s *Step) DependsOn() []string {
	deps := make([]string, len(s.dependsOn))
	copy(deps, s.dependsOn)
	return deps
}

// JoinType returns how the step's dependencies combine.
func (s *Step) JoinType() JoinType { return s.joinType }

// Status returns the execution state of the step.
func (s *Step) Status() StepStatus { return s.status }

// PlannedStart returns the computed start of the scheduling window.
func (s *Step) PlannedStart() time.Time { return s.plannedStart }

// PlannedEnd returns the computed end of the scheduling window.
func (s *Step) PlannedEnd() time.Time { return s.plannedEnd }

// Schedule assigns the planned execution window. Called by the routing
// builder while walking steps in sequence order.
func (s *Step) Schedule(start, end time.Time) error {
	if end.Before(start) {
		return errs.NewValueIsInvalidErrorWithCause("planned window is invalid",
			fmt.Errorf("end %s is before start %s", end, start))
	}

	s.plannedStart = start
	s.plannedEnd = end
	return nil
}

// MarkReady promotes the step from Planned to Ready. The caller is
// responsible for having checked the join condition; PromoteReadySteps does
// both together.
func (s *Step) MarkReady() error {
	if s.status != StepPlanned {
		return errs.NewValueIsInvalidErrorWithCause("step status is invalid",
			fmt.Errorf("%s cannot become Ready", s.status))
	}

	s.status = StepReady
	return nil
}

// Start marks the step InProgress. Only a Ready step may start; reporting
// work on a Planned step means its dependencies were not satisfied.
func (s *Step) Start() error {
	if s.status == StepPlanned {
		return fmt.Errorf("%w: %s", ErrStepIsNotReady, s.name)
	}
	if s.status != StepReady {
		return errs.NewValueIsInvalidErrorWithCause("step status is invalid",
			fmt.Errorf("%s cannot start", s.status))
	}

	s.status = StepInProgress
	return nil
}

// Complete marks the step Done. Both Ready and InProgress steps may
// complete: small steps are often reported once, after the fact.
func (s *Step) Complete() error {
	if s.status == StepPlanned {
		return fmt.Errorf("%w: %s", ErrStepIsNotReady, s.name)
	}
	if s.status != StepReady && s.status != StepInProgress {
		return errs.NewValueIsInvalidErrorWithCause("step status is invalid",
			fmt.Errorf("%s cannot complete", s.status))
	}

	s.status = StepDone
	return nil
}

// JoinSatisfied reports whether the step's join condition holds given the
// set of dependency names that are Done. A step with no dependencies is
// always satisfied.
func (s *Step) JoinSatisfied(done map[string]bool) bool {
	if len(s.dependsOn) == 0 {
		return true
	}

	switch s.joinType {
	case JoinOr:
		for _, dep := range s.dependsOn {
			if done[dep] {
				return true
			}
		}
		return false
	default: // JoinAnd
		for _, dep := range s.dependsOn {
			if !done[dep] {
				return false
			}
		}
		return true
	}
}

// PromoteReadySteps walks a routing batch and promotes every Planned step
// whose join condition is satisfied by the batch's Done steps. It returns
// the steps that were promoted so the caller can persist exactly those.
func PromoteReadySteps(steps []*Step) ([]*Step, error) {
	done := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.Status() == StepDone {
			done[s.Name()] = true
		}
	}

	var promoted []*Step
	for _, s := range steps {
		if s.Status() != StepPlanned || !s.JoinSatisfied(done) {
			continue
		}
		if err := s.MarkReady(); err != nil {
			return nil, err
		}
		promoted = append(promoted, s)
	}

	return promoted, nil
}

// setIDs validates and sets the step and order identifiers.
func (s *Step) setIDs(id, orderID kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if err := orderID.Validate(); err != nil {
		return err
	}
	s.id = id
	s.orderID = orderID
	return nil
}

// setName validates and sets the step name.
func (s *Step) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("step name")
	}
	s.name = name
	return nil
}

// setWorkcenter validates and sets the workcenter label.
func (s *Step) setWorkcenter(workcenter string) error {
	if workcenter == "" {
		return errs.NewValueIsRequiredError("workcenter")
	}
	s.workcenter = workcenter
	return nil
}

// setSequence validates and sets the scheduling sequence.
func (s *Step) setSequence(sequence int) error {
	if sequence <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("sequence is invalid",
			fmt.Errorf("%d is not greater than 0", sequence))
	}
	s.sequence = sequence
	return nil
}

// setDependsOn validates and sets the dependency list.
func (s *Step) setDependsOn(name string, dependsOn []string) error {
	for _, dep := range dependsOn {
		if dep == name {
			return errs.NewValueIsInvalidErrorWithCause("dependsOn is invalid",
				fmt.Errorf("step %q depends on itself", name))
		}
	}

	s.dependsOn = make([]string, len(dependsOn))
	copy(s.dependsOn, dependsOn)
	return nil
}
