// Package statemachine drives every order status change. The full lifecycle
// is one declarative table of transition definitions keyed by (current
// status, action); each definition names the target status, a description,
// the roles allowed to request it, the guards that must pass and an
// optional post-commit side effect.
//
// Rejections and failures are different things. A rejected transition
// (unknown action, wrong role, failed guard) is a normal outcome: Execute
// returns a result with Success=false and a reason, and no state changes.
// An error return means infrastructure failed and nothing can be said about
// the outcome.
//
// A successful transition commits the order update, its audit entry and the
// order.status_changed event in one transaction; handler dispatch, the
// definition's side effect and registered hooks run after the commit and
// cannot undo it.
package statemachine
