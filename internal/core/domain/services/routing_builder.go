package services

import (
	"sort"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/routing"
)

// RoutingGraphBuilder expands a routing template into a concrete batch of
// scheduled steps for one order. Expansion is pure planning: it creates
// step entities with planned windows but performs no persistence.
type RoutingGraphBuilder struct {
	catalog *routing.Catalog
	now     func() time.Time
}

// NewRoutingGraphBuilder creates a builder over a validated catalog.
func NewRoutingGraphBuilder(catalog *routing.Catalog) RoutingGraphBuilder {
	return RoutingGraphBuilder{
		catalog: catalog,
		now:     time.Now,
	}
}

// NewRoutingGraphBuilderWithClock creates a builder with an injected clock.
// Intended for tests that pin "now".
func NewRoutingGraphBuilderWithClock(catalog *routing.Catalog, now func() time.Time) RoutingGraphBuilder {
	b := NewRoutingGraphBuilder(catalog)
	b.now = now
	return b
}

// DefaultTemplate returns the catalog's template for a production method.
// Used by callers that plan routing without naming a specific template,
// such as the automatic plan after design approval.
func (b RoutingGraphBuilder) DefaultTemplate(method string) (routing.Template, error) {
	return b.catalog.ForMethod(method)
}

// Build expands the named template into steps owned by the order.
//
// Scheduling walks the steps in ascending sequence with a running clock
// starting now. Each step's share of the plan is its estimated duration;
// when a target date is given and leaves room, the estimates are scaled
// proportionally so the last window ends at the target date. Without a
// target date, or when the target is already too close, the raw estimates
// are used as-is.
//
// The first step in sequence order starts Ready; every other step starts
// Planned and is promoted by routing.PromoteReadySteps as dependencies
// complete.
func (b RoutingGraphBuilder) Build(
	templateKey string,
	orderID kernel.UUID,
	targetDate time.Time,
) ([]*routing.Step, error) {
	template, err := b.catalog.Get(templateKey)
	if err != nil {
		return nil, err
	}

	ordered := make([]routing.TemplateStep, len(template.Steps))
	copy(ordered, template.Steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	start := b.now()
	scale := b.scaleFactor(template, start, targetDate)

	steps := make([]*routing.Step, 0, len(ordered))
	clock := start
	for i, ts := range ordered {
		joinType, err := routing.JoinTypeFromString(ts.Join)
		if err != nil {
			return nil, err
		}

		step, err := routing.NewStep(
			kernel.DerivedUUID(orderID, "step:"+ts.Name),
			orderID,
			ts.Name,
			ts.Workcenter,
			ts.Sequence,
			ts.DependsOn,
			joinType,
		)
		if err != nil {
			return nil, err
		}

		duration := time.Duration(float64(ts.EstimatedMinutes)*scale) * time.Minute
		if err = step.Schedule(clock, clock.Add(duration)); err != nil {
			return nil, err
		}
		clock = clock.Add(duration)

		if i == 0 {
			if err = step.MarkReady(); err != nil {
				return nil, err
			}
		}

		steps = append(steps, step)
	}

	return steps, nil
}

// scaleFactor returns the multiplier applied to every step's estimated
// duration. With no target date, or a target date that does not leave at
// least the estimated total, the factor is 1 and the plan simply overruns
// the target; the assessment engine flags that case separately.
func (b RoutingGraphBuilder) scaleFactor(template routing.Template, start, targetDate time.Time) float64 {
	total := template.TotalEstimatedMinutes()
	if targetDate.IsZero() || total <= 0 {
		return 1
	}

	available := targetDate.Sub(start).Minutes()
	if available <= float64(total) {
		return 1
	}
	return available / float64(total)
}
