// Package harness replays intent scenarios through the real engine and
// checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	initial: seed            # or omit for an empty dataset
//	ids: [proj-1, proj-2]    # ids handed out to entities added without one
//	setup:
//	  - op: add
//	    kind: person
//	    value: { email: a@x.com, firstName: A }
//	flow:
//	  - op: add
//	    kind: project
//	    value: { name: Rocket, members: [a@x.com] }
//	    expect:
//	      changed: true
//	assertions:
//	  - type: final_state
//	    collection: attendees
//	    where: { email: a@x.com }
//	    expect: { projectId: proj-1, teamStatus: hasTeam }
//
// Step ops mirror state.Op: replace, add, patch, remove, replace_all,
// assign_challenge_winner, clear_challenge_winner, assign_bounty_winner,
// clear_bounty_winner, phase, claim_bounty, release_bounty, complete_bounty.
//
// # Assertion Types
//
//   - trace_contains: a flow step with the given intent string ran
//   - trace_order: intents ran in the given order
//   - trace_count: the intent ran exactly N times
//   - final_state: one row of a collection (or the phase / winners object)
//     matches expect, subset semantics, compared in wire form
//   - count: a collection has exactly N entries
//   - invariants: the final snapshot passes state.CheckInvariants
//
// # Determinism
//
// Each run uses a fresh store with a fixed id sequence and a fresh engine
// clock, so traces and final snapshots are identical across runs and can be
// compared against golden files under testdata/golden.
package harness
