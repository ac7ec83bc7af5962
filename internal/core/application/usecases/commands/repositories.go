// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS
// architecture. All commands follow a consistent pattern: validation,
// transaction management, and persistence.
//
// Status changes are NOT commands: every order transition goes through the
// state machine. Commands cover the mutations around the lifecycle -
// registering orders, planning routings, reporting floor progress.
package commands

import (
	"context"

	"production/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command
// handlers. Each handler depends only on the repositories it touches.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// RoutingRepoFactory provides access to the routing step repository within a transaction.
	RoutingRepoFactory interface {
		RoutingStepRepository() ports.RoutingStepRepository
	}

	// EventRepoFactory provides access to the event repository within a transaction.
	EventRepoFactory interface {
		EventRepository() ports.EventRepository
	}

	// IntakeUoW manages transactions for order registration: the order row
	// and its announcement event commit together.
	IntakeUoW interface {
		TxManager
		OrderRepoFactory
		EventRepoFactory
	}

	// IntakeUoWFactory creates new intake unit of work instances.
	IntakeUoWFactory interface {
		Create() IntakeUoW
	}

	// PlanningUoW manages transactions for routing work: the order, its
	// step batch and the routing event commit together.
	PlanningUoW interface {
		TxManager
		OrderRepoFactory
		RoutingRepoFactory
		EventRepoFactory
	}

	// PlanningUoWFactory creates new planning unit of work instances.
	PlanningUoWFactory interface {
		Create() PlanningUoW
	}
)
