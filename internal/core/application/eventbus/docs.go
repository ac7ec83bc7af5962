// Package eventbus implements the durable event backbone: every emit writes
// an event row before any handler runs, handlers are dispatched inline right
// after the write commits, and background jobs re-drive rows whose handling
// failed or whose dispatcher died mid-flight.
//
// Durability contract: once Emit returns nil the event exists in the log and
// will eventually be handled (or parked as FAILED after the retry budget).
// Handler failures never un-happen the emit.
//
// Handlers must be idempotent: the sweep and reaper both re-run handling, so
// an event can be delivered more than once. Side effects are keyed by
// identifiers derived from the event ID (kernel.DerivedUUID) so replays
// collapse into the same rows.
//
// Subscriptions live on a constructed Bus value, not in package globals;
// Subscribe returns an unsubscribe function and two buses never share state.
package eventbus
