package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"production/internal/core/domain/model/assessment"
	"production/internal/core/domain/model/routing"
)

// Capacity and margin thresholds for the intake analyses.
const (
	utilizationWarning  = 0.85
	utilizationCritical = 1.00
	stockCriticalRatio  = 0.50
	deadlineTightMargin = 0.20
	minCostMargin       = 0.20
	// handlingOverhead inflates pure machine minutes into a typical lead
	// time covering setup, transport and queueing between workcenters.
	handlingOverhead = 1.5

	batchSplitQuantity = 1000
	riskyClientScore   = 0.7
)

// MaterialRequirement states how much of one material an intake consumes.
type MaterialRequirement struct {
	Material string
	Required float64
}

// Intake is the engine's input: the order-to-be (or the order behind a
// gated transition) plus its commercial terms.
type Intake struct {
	OrderID           string
	ClientID          string
	Method            string
	Quantity          int
	TargetDate        time.Time
	QuotedUnitPrice   float64
	EstimatedUnitCost float64
	Materials         []MaterialRequirement
}

// CapacityProvider exposes read-only capacity lookups.
type CapacityProvider interface {
	// ThroughputPerHour returns the method's production rate in pieces/hour.
	ThroughputPerHour(ctx context.Context, method string) (float64, error)

	// MinutesAvailable returns the free production minutes for the method's
	// workcenters before the given date.
	MinutesAvailable(ctx context.Context, method string, until time.Time) (float64, error)
}

// StockProvider exposes read-only stock-level lookups.
type StockProvider interface {
	// Available returns the on-hand quantity of a material.
	Available(ctx context.Context, material string) (float64, error)
}

// HistoryProvider exposes read-only client-history lookups.
type HistoryProvider interface {
	// ClientRiskScore returns a score in [0,1]; higher means the client's
	// past orders saw more rework, disputes or late changes.
	ClientRiskScore(ctx context.Context, clientID string) (float64, error)
}

// AssessmentEngine runs a fixed battery of independent analyses over an
// intake and aggregates their findings into an Assessment. It is a pure
// function of its inputs plus read-only lookups; it mutates nothing.
//
// The analyses run in parallel. Each failure is caught individually and
// degrades the verdict (reduced confidence, at least AMBER) instead of
// suppressing the other analyses' findings.
type AssessmentEngine struct {
	capacity CapacityProvider
	stock    StockProvider
	history  HistoryProvider
	catalog  *routing.Catalog
	now      func() time.Time
}

// NewAssessmentEngine creates an engine over the given read-only providers
// and routing catalog.
func NewAssessmentEngine(
	capacity CapacityProvider,
	stock StockProvider,
	history HistoryProvider,
	catalog *routing.Catalog,
) AssessmentEngine {
	return AssessmentEngine{
		capacity: capacity,
		stock:    stock,
		history:  history,
		catalog:  catalog,
		now:      time.Now,
	}
}

// NewAssessmentEngineWithClock creates an engine with an injected clock.
// Intended for tests that pin "now".
func NewAssessmentEngineWithClock(
	capacity CapacityProvider,
	stock StockProvider,
	history HistoryProvider,
	catalog *routing.Catalog,
	now func() time.Time,
) AssessmentEngine {
	e := NewAssessmentEngine(capacity, stock, history, catalog)
	e.now = now
	return e
}

// analysisResult carries one analysis' findings back over the fan-in
// channel. failed marks an analysis that errored or panicked.
type analysisResult struct {
	seq    int
	issues []assessment.Issue
	failed bool
}

// Assess evaluates the intake and returns the verdict. It never returns an
// error: a failing analysis degrades the assessment instead.
func (e AssessmentEngine) Assess(ctx context.Context, intake Intake) assessment.Assessment {
	analyses := []func(context.Context, Intake) ([]assessment.Issue, error){
		e.analyzeCapacity,
		e.analyzeStock,
		e.analyzeRoutingRisk,
		e.analyzeDeadline,
		e.analyzeCostMargin,
	}

	results := make(chan analysisResult, len(analyses))
	for i, analyze := range analyses {
		go func(seq int, analyze func(context.Context, Intake) ([]assessment.Issue, error)) {
			defer func() {
				if r := recover(); r != nil {
					results <- analysisResult{seq: seq, failed: true}
				}
			}()

			issues, err := analyze(ctx, intake)
			if err != nil {
				results <- analysisResult{seq: seq, failed: true}
				return
			}
			results <- analysisResult{seq: seq, issues: issues}
		}(i, analyze)
	}

	collected := make([][]assessment.Issue, len(analyses))
	degraded := false
	for range analyses {
		r := <-results
		if r.failed {
			degraded = true
			collected[r.seq] = []assessment.Issue{{
				Type:            assessment.IssueDegraded,
				Severity:        assessment.SeverityWarning,
				Detail:          "an analysis failed; verdict is conservative",
				SuggestedAction: "review the intake manually",
			}}
			continue
		}
		collected[r.seq] = r.issues
	}

	var issues []assessment.Issue
	for _, batch := range collected {
		issues = append(issues, batch...)
	}

	assumptions := map[string]string{}
	if intake.TargetDate.IsZero() {
		assumptions["target_date"] = "none promised; deadline analysis skipped"
	}

	return assessment.NewAssessment(
		issues,
		e.recommend(ctx, intake),
		assumptions,
		degraded,
		e.now(),
	)
}

// analyzeCapacity compares required processing minutes against the minutes
// available before the target date.
func (e AssessmentEngine) analyzeCapacity(ctx context.Context, intake Intake) ([]assessment.Issue, error) {
	if intake.TargetDate.IsZero() {
		return nil, nil
	}

	rate, err := e.capacity.ThroughputPerHour(ctx, intake.Method)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("throughput rate for %q is not positive", intake.Method)
	}

	available, err := e.capacity.MinutesAvailable(ctx, intake.Method, intake.TargetDate)
	if err != nil {
		return nil, err
	}
	if available <= 0 {
		return []assessment.Issue{{
			Type:            assessment.IssueCapacity,
			Severity:        assessment.SeverityCritical,
			Detail:          "no production minutes available before the target date",
			SuggestedAction: "move the target date or free capacity",
		}}, nil
	}

	required := float64(intake.Quantity) / rate * 60
	utilization := required / available

	switch {
	case utilization > utilizationCritical:
		return []assessment.Issue{{
			Type:     assessment.IssueCapacity,
			Severity: assessment.SeverityCritical,
			Detail: fmt.Sprintf("capacity utilization %.0f%%: %.0f minutes required, %.0f available",
				utilization*100, required, available),
			SuggestedAction: "extend the deadline, reduce quantity or subcontract",
		}}, nil
	case utilization > utilizationWarning:
		return []assessment.Issue{{
			Type:     assessment.IssueCapacity,
			Severity: assessment.SeverityWarning,
			Detail: fmt.Sprintf("capacity utilization %.0f%% leaves little slack",
				utilization*100),
			SuggestedAction: "schedule the order early in the window",
		}}, nil
	default:
		return nil, nil
	}
}

// analyzeStock checks each required material for shortfalls.
func (e AssessmentEngine) analyzeStock(ctx context.Context, intake Intake) ([]assessment.Issue, error) {
	var issues []assessment.Issue

	for _, req := range intake.Materials {
		available, err := e.stock.Available(ctx, req.Material)
		if err != nil {
			return nil, err
		}

		shortfall := req.Required - available
		if shortfall <= 0 {
			continue
		}

		severity := assessment.SeverityWarning
		if shortfall > req.Required*stockCriticalRatio {
			severity = assessment.SeverityCritical
		}

		issues = append(issues, assessment.Issue{
			Type:     assessment.IssueStock,
			Severity: severity,
			Detail: fmt.Sprintf("%s short by %.1f (required %.1f, available %.1f)",
				req.Material, shortfall, req.Required, available),
			SuggestedAction: fmt.Sprintf("purchase %.1f of %s before planning", shortfall, req.Material),
		})
	}

	return issues, nil
}

// analyzeRoutingRisk flags known hazardous workcenter orderings in the
// method's template, independent of capacity and stock.
func (e AssessmentEngine) analyzeRoutingRisk(_ context.Context, intake Intake) ([]assessment.Issue, error) {
	template, err := e.catalog.ForMethod(intake.Method)
	if err != nil {
		// No template for the method is an open question for planning, not
		// a routing hazard.
		return nil, nil
	}

	printingSeq, sewingSeq := 0, 0
	for _, step := range template.Steps {
		switch step.Workcenter {
		case "PRINTING":
			if printingSeq == 0 || step.Sequence > printingSeq {
				printingSeq = step.Sequence
			}
		case "SEWING":
			if sewingSeq == 0 || step.Sequence < sewingSeq {
				sewingSeq = step.Sequence
			}
		}
	}

	if printingSeq > 0 && sewingSeq > 0 && printingSeq > sewingSeq {
		return []assessment.Issue{{
			Type:     assessment.IssueRoutingRisk,
			Severity: assessment.SeverityWarning,
			Detail: fmt.Sprintf("template %q prints after sewing; registration defects are likely",
				template.Key),
			SuggestedAction: "review the routing with the print room before planning",
		}}, nil
	}

	return nil, nil
}

// analyzeDeadline compares the typical lead time for method+quantity
// against the days remaining to the target date.
func (e AssessmentEngine) analyzeDeadline(ctx context.Context, intake Intake) ([]assessment.Issue, error) {
	if intake.TargetDate.IsZero() {
		return nil, nil
	}

	rate, err := e.capacity.ThroughputPerHour(ctx, intake.Method)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("throughput rate for %q is not positive", intake.Method)
	}

	leadMinutes := float64(intake.Quantity) / rate * 60 * handlingOverhead
	remaining := intake.TargetDate.Sub(e.now()).Minutes()

	switch {
	case remaining <= 0 || leadMinutes > remaining:
		return []assessment.Issue{{
			Type:     assessment.IssueDeadline,
			Severity: assessment.SeverityCritical,
			Detail: fmt.Sprintf("typical lead time %.0f h exceeds the %.0f h remaining",
				leadMinutes/60, math.Max(remaining, 0)/60),
			SuggestedAction: "renegotiate the delivery date before accepting",
		}}, nil
	case leadMinutes > remaining*(1-deadlineTightMargin):
		return []assessment.Issue{{
			Type:     assessment.IssueDeadline,
			Severity: assessment.SeverityWarning,
			Detail: fmt.Sprintf("lead time %.0f h against %.0f h remaining leaves under 20%% margin",
				leadMinutes/60, remaining/60),
			SuggestedAction: "confirm material availability before committing",
		}}, nil
	default:
		return nil, nil
	}
}

// analyzeCostMargin compares the estimated unit cost against the quoted
// unit price.
func (e AssessmentEngine) analyzeCostMargin(_ context.Context, intake Intake) ([]assessment.Issue, error) {
	if intake.QuotedUnitPrice <= 0 {
		return nil, nil
	}

	margin := (intake.QuotedUnitPrice - intake.EstimatedUnitCost) / intake.QuotedUnitPrice
	if margin >= minCostMargin {
		return nil, nil
	}

	severity := assessment.SeverityWarning
	if margin < 0 {
		severity = assessment.SeverityHigh
	}

	return []assessment.Issue{{
		Type:     assessment.IssueCostMargin,
		Severity: severity,
		Detail: fmt.Sprintf("margin %.0f%% below the 20%% floor (price %.2f, cost %.2f)",
			margin*100, intake.QuotedUnitPrice, intake.EstimatedUnitCost),
		SuggestedAction: "re-quote or trim the costing before acceptance",
	}}, nil
}

// recommend generates additive advice independent of the issue analyses.
// Recommendations never gate a transition.
func (e AssessmentEngine) recommend(ctx context.Context, intake Intake) []assessment.Recommendation {
	var recs []assessment.Recommendation

	if intake.Quantity >= batchSplitQuantity {
		recs = append(recs, assessment.Recommendation{
			Detail: fmt.Sprintf("split the %d-piece run into batches to shorten feedback loops", intake.Quantity),
		})
	}

	if intake.ClientID != "" && e.history != nil {
		if score, err := e.history.ClientRiskScore(ctx, intake.ClientID); err == nil && score > riskyClientScore {
			recs = append(recs, assessment.Recommendation{
				Detail: "schedule enhanced QC sampling; this client's history shows elevated rework",
			})
		}
	}

	if intake.TargetDate.IsZero() {
		recs = append(recs, assessment.Recommendation{
			Detail: "agree a delivery date early; capacity and deadline checks are skipped without one",
		})
	}

	return recs
}
