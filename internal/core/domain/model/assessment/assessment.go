// Package assessment provides the value objects produced by the risk engine:
// a coarse GREEN/AMBER/RED verdict, the issues behind it, additive
// recommendations and a confidence figure. Assessments are ephemeral -
// computed on demand, optionally persisted for audit, never mutated.
package assessment

import (
	"time"
)

// Risk is the engine's coarse verdict. RED typically blocks a gated
// transition, AMBER warns but allows, GREEN passes.
type Risk int

const (
	// RiskUnknown represents an invalid or undefined risk level.
	RiskUnknown Risk = iota

	// Green means no significant issues were found.
	Green

	// Amber means warnings exist; transitions proceed but are flagged.
	Amber

	// Red means at least one critical or blocking issue exists.
	Red
)

// String returns the human-readable name of the risk level.
func (r Risk) String() string {
	switch r {
	case Green:
		return "GREEN"
	case Amber:
		return "AMBER"
	case Red:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// Severity grades an individual issue.
type Severity int

const (
	// SeverityWarning flags a concern that alone does not change the verdict.
	SeverityWarning Severity = iota + 1

	// SeverityHigh flags a serious concern; a single high issue is enough
	// for an AMBER verdict.
	SeverityHigh

	// SeverityCritical flags a showstopper; any critical issue makes the
	// verdict RED.
	SeverityCritical

	// SeverityBlocking flags an absolute stop, treated like critical for
	// aggregation but surfaced separately to callers.
	SeverityBlocking
)

// String returns the human-readable name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityBlocking:
		return "BLOCKING"
	default:
		return "UNKNOWN"
	}
}

// IssueType names the analysis that raised an issue.
type IssueType string

const (
	IssueCapacity    IssueType = "CAPACITY"
	IssueStock       IssueType = "STOCK"
	IssueRoutingRisk IssueType = "ROUTING_RISK"
	IssueDeadline    IssueType = "DEADLINE"
	IssueCostMargin  IssueType = "COST_MARGIN"

	// IssueDegraded is raised when an analysis itself failed and the engine
	// fell back to a conservative verdict instead of erroring.
	IssueDegraded IssueType = "DEGRADED"
)

// Issue is a single finding from one analysis.
type Issue struct {
	Type            IssueType
	Severity        Severity
	Detail          string
	SuggestedAction string
}

// Recommendation is additive advice generated independently of issues; it
// never gates a transition.
type Recommendation struct {
	Detail string
}

// Assessment is the immutable result of evaluating an order intake or
// transition request.
type Assessment struct {
	risk            Risk
	issues          []Issue
	recommendations []Recommendation
	confidence      float64
	assumptions     map[string]string
	createdAt       time.Time
}

// confidence tuning: the engine starts near certainty and loses confidence
// per finding, more for worse findings.
const (
	baseConfidence        = 0.95
	minConfidence         = 0.10
	degradedMaxConfidence = 0.50
)

func severityPenalty(s Severity) float64 {
	switch s {
	case SeverityWarning:
		return 0.05
	case SeverityHigh:
		return 0.10
	case SeverityCritical:
		return 0.15
	case SeverityBlocking:
		return 0.20
	default:
		return 0.05
	}
}

// NewAssessment aggregates issues and recommendations into a verdict.
//
// Aggregation rule:
//   - RED if any issue is CRITICAL or BLOCKING
//   - AMBER if two or more WARNING issues exist, or any single HIGH one
//   - GREEN otherwise
//
// If degraded is true (an analysis failed and its findings are missing) the
// verdict is raised to at least AMBER and confidence is capped at 0.5.
func NewAssessment(
	issues []Issue,
	recommendations []Recommendation,
	assumptions map[string]string,
	degraded bool,
	now time.Time,
) Assessment {
	risk := Green
	warnings := 0
	confidence := baseConfidence

	for _, issue := range issues {
		confidence -= severityPenalty(issue.Severity)

		switch issue.Severity {
		case SeverityCritical, SeverityBlocking:
			risk = Red
		case SeverityHigh:
			if risk != Red {
				risk = Amber
			}
		case SeverityWarning:
			warnings++
		}
	}

	if risk == Green && warnings >= 2 {
		risk = Amber
	}

	if degraded {
		if risk == Green {
			risk = Amber
		}
		if confidence > degradedMaxConfidence {
			confidence = degradedMaxConfidence
		}
	}

	if confidence < minConfidence {
		confidence = minConfidence
	}

	if assumptions == nil {
		assumptions = map[string]string{}
	}

	return Assessment{
		risk:            risk,
		issues:          issues,
		recommendations: recommendations,
		confidence:      confidence,
		assumptions:     assumptions,
		createdAt:       now,
	}
}

// Risk returns the coarse verdict.
func (a Assessment) Risk() Risk { return a.risk }

// Issues returns the ordered findings. The returned slice is a copy.
func (a Assessment) Issues() []Issue {
	issues := make([]Issue, len(a.issues))
	copy(issues, a.issues)
	return issues
}

// Recommendations returns the ordered advice list. The returned slice is a copy.
func (a Assessment) Recommendations() []Recommendation {
	recs := make([]Recommendation, len(a.recommendations))
	copy(recs, a.recommendations)
	return recs
}

// Confidence returns the engine's confidence in the verdict, in [0,1].
func (a Assessment) Confidence() float64 { return a.confidence }

// Assumptions returns the inputs the engine had to assume. The returned map
// is a copy.
func (a Assessment) Assumptions() map[string]string {
	out := make(map[string]string, len(a.assumptions))
	for k, v := range a.assumptions {
		out[k] = v
	}
	return out
}

// CreatedAt returns when the assessment was computed.
func (a Assessment) CreatedAt() time.Time { return a.createdAt }

// Blockers renders the issues that justify rejecting a gated transition:
// everything CRITICAL or BLOCKING. Used by state machine guards to explain
// why a transition was refused.
func (a Assessment) Blockers() []string {
	var blockers []string
	for _, issue := range a.issues {
		if issue.Severity == SeverityCritical || issue.Severity == SeverityBlocking {
			blockers = append(blockers, string(issue.Type)+": "+issue.Detail)
		}
	}
	return blockers
}
