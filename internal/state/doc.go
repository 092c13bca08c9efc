// Package state holds the canonical in-memory copy of the synchronized dataset.
//
// ARCHITECTURE:
//
// Single Mutation Entry Point:
// Store.Apply(Intent) is the only way to change entities. It is synchronous,
// run-to-completion and total: malformed intents are no-ops, never errors.
// Every Apply returns the new snapshot and whether anything changed.
//
// Derived Relationships:
// A project roster is authoritative. After every apply that touches a
// project or a person, the Reconciler rewrites the person side so that
//   - a person on a roster owns that project and has status hasTeam
//   - a person owning a project is on its roster
//
// Award Protocol:
// Winner assignment is idempotent and keyed (one project per challenge kind,
// one per bounty). Assigning the last undecided challenge announces results
// in the same transition.
//
// Concurrency:
// Store is NOT safe for concurrent use. The engine package owns the only
// goroutine that calls Apply; readers get cloned snapshots.
package state
