package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// It provides transaction control and access to the repositories bound to
// that transaction. Client code must explicitly manage transaction
// lifecycle; the guarantee that an order update and its audit entry commit
// together is expressed here, not hidden in a library call.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository bound to the current transaction.
	OrderRepository() OrderRepository

	// RoutingStepRepository returns a RoutingStepRepository bound to the current transaction.
	RoutingStepRepository() RoutingStepRepository

	// EventRepository returns an EventRepository bound to the current transaction.
	EventRepository() EventRepository

	// AuditRepository returns an AuditRepository bound to the current transaction.
	AuditRepository() AuditRepository

	// InsightRepository returns an InsightRepository bound to the current transaction.
	InsightRepository() InsightRepository
}
