// Package services provides stateless domain services that coordinate
// across aggregates:
//
//   - AssessmentEngine evaluates an order intake against capacity, stock,
//     routing, deadline and cost heuristics, producing a structured risk
//     verdict used as a transition guard
//   - RoutingGraphBuilder expands a named routing template into a concrete,
//     scheduled batch of steps for an order
//
// Domain services hold no mutable state of their own; they read through
// narrow provider interfaces and return domain values.
package services
