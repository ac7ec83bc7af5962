// Package order provides domain entities and business logic for order management
// in the production system. It implements the Order aggregate root with lifecycle
// management and state tracking.
//
// The package includes:
//   - Order: The aggregate root that manages order identity, properties, and lifecycle
//   - Status: The enumeration of lifecycle states with terminal/live classification
//
// Key business rules:
//   - Orders must have a valid unique identifier, a production method, and positive quantity
//   - Order status is mutated only through ChangeStatus, which is invoked solely
//     by a committed state machine transition
//   - Closed and Cancelled are terminal; OnHold resumes back to the prior state
//   - The version field backs optimistic concurrency: concurrent transitions on
//     the same order cannot both commit
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
