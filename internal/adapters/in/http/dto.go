package http

import (
	"encoding/json"
	"time"

	"production/internal/core/domain/model/assessment"

	"github.com/google/uuid"
)

// NewOrder is the request body for order registration.
type NewOrder struct {
	ClientID          *uuid.UUID            `json:"client_id,omitempty"`
	Method            string                `json:"method"`
	Quantity          int                   `json:"quantity"`
	TargetDate        *time.Time            `json:"target_date,omitempty"`
	QuotedUnitPrice   float64               `json:"quoted_unit_price"`
	EstimatedUnitCost float64               `json:"estimated_unit_cost"`
	Materials         []MaterialRequirement `json:"materials,omitempty"`
}

// MaterialRequirement is one material demand line of an order.
type MaterialRequirement struct {
	Material string  `json:"material"`
	Required float64 `json:"required"`
}

// OrderCreated is the response body for order registration: the new order's
// ID plus its intake risk assessment.
type OrderCreated struct {
	ID         uuid.UUID      `json:"id"`
	Assessment AssessmentView `json:"assessment"`
}

// AssessmentView renders a risk assessment.
type AssessmentView struct {
	Risk            string            `json:"risk"`
	Issues          []IssueView       `json:"issues"`
	Recommendations []string          `json:"recommendations"`
	Confidence      float64           `json:"confidence"`
	Assumptions     map[string]string `json:"assumptions,omitempty"`
}

// IssueView renders one assessment finding.
type IssueView struct {
	Type            string `json:"type"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

// newAssessmentView converts a domain assessment into its wire form.
func newAssessmentView(a assessment.Assessment) AssessmentView {
	issues := make([]IssueView, 0, len(a.Issues()))
	for _, issue := range a.Issues() {
		issues = append(issues, IssueView{
			Type:            string(issue.Type),
			Severity:        issue.Severity.String(),
			Detail:          issue.Detail,
			SuggestedAction: issue.SuggestedAction,
		})
	}

	recs := make([]string, 0, len(a.Recommendations()))
	for _, rec := range a.Recommendations() {
		recs = append(recs, rec.Detail)
	}

	return AssessmentView{
		Risk:            a.Risk().String(),
		Issues:          issues,
		Recommendations: recs,
		Confidence:      a.Confidence(),
		Assumptions:     a.Assumptions(),
	}
}

// TransitionRequest is the request body for applying a lifecycle action.
type TransitionRequest struct {
	Action   string            `json:"action"`
	ActorID  string            `json:"actor_id"`
	Role     string            `json:"role"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TransitionResponse reports the outcome of a lifecycle action.
type TransitionResponse struct {
	Success  bool     `json:"success"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Reason   string   `json:"reason,omitempty"`
	Blockers []string `json:"blockers,omitempty"`
}

// PlanRoutingRequest is the request body for routing planning.
type PlanRoutingRequest struct {
	TemplateKey string `json:"template_key"`
}

// StepProgressRequest is the request body for a production-floor signal.
type StepProgressRequest struct {
	StepName string `json:"step_name"`
	Outcome  string `json:"outcome"`
	BundleID string `json:"bundle_id,omitempty"`
}

// Order renders one order together with its routing steps.
type Order struct {
	ID         uuid.UUID  `json:"id"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	Method     string     `json:"method"`
	Quantity   int        `json:"quantity"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	Version    int        `json:"version"`
	Steps      []Step     `json:"steps"`
}

// Step renders one routing step of an order.
type Step struct {
	Name         string     `json:"name"`
	Workcenter   string     `json:"workcenter"`
	Sequence     int        `json:"sequence"`
	Status       string     `json:"status"`
	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
}

// AuditEntry renders one audit trail entry.
type AuditEntry struct {
	ID        uuid.UUID         `json:"id"`
	ActorID   string            `json:"actor_id"`
	Before    string            `json:"before"`
	After     string            `json:"after"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// FailedEvent renders one terminally failed event.
type FailedEvent struct {
	ID         uuid.UUID `json:"id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmitEventRequest is the request body for a floor or collaborator signal
// entering the event bus. EventID is optional; senders that retry should
// supply one so redelivery collapses into a single event.
type EmitEventRequest struct {
	EventType string          `json:"event_type"`
	EventID   *uuid.UUID      `json:"event_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Error is the uniform error body.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
