// Package routing provides the domain model for production routings: the
// concrete, scheduled DAG of steps an order moves through on the floor.
//
// The package includes:
//   - Step: an entity tracking one unit of work, its dependencies, join
//     semantics (AND/OR) and planned execution window
//   - Template/Catalog: named, reusable abstract step graphs per production
//     method, loadable from YAML and cycle-checked at construction
//
// Key business rules:
//   - A step becomes Ready only when its join condition over its
//     dependencies' statuses is satisfied
//   - Dependency graphs must be acyclic; a cyclic template is a
//     configuration error detected at startup
//   - Steps are created in a batch during production planning and are
//     superseded, never deleted
package routing
