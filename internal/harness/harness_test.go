package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PassingScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEvent{Seq: 1, Intent: "phase open_voting", Changed: true, Revision: 1}, result.Trace[0])
	assert.True(t, result.Final.Phase.VotingOpen)
}

func TestRun_FailedExpectationMarksResult(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectation
description: Announcing twice changes nothing the second time.
flow:
  - op: phase
    phase: announce
  - op: phase
    phase: announce
    expect: {changed: true}
assertions:
  - type: trace_count
    intent: phase announce
    count: 2
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[1] phase announce: expected changed=true, got false")
	assert.False(t, result.Trace[1].Changed)
	assert.Equal(t, result.Trace[0].Revision, result.Trace[1].Revision)
}

func TestRun_FailedAssertionMarksResult(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_count
description: The empty dataset has no projects.
flow:
  - op: phase
    phase: open_voting
assertions:
  - type: count
    collection: projects
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: 1 projects")
}

func TestRun_InitialSeedHydrates(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: seed_counts
description: The bundled seed arrives before the first flow step.
initial: seed
flow:
  - op: phase
    phase: open_voting
    expect: {changed: true, voting_open: true}
assertions:
  - type: count
    collection: projects
    count: 2
  - type: count
    collection: attendees
    count: 4
  - type: invariants
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_GeneratedIDs(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: generated_ids
description: Entities added without an id take the scenario ids, then generated ones.
ids: [faq-first]
flow:
  - op: add
    kind: faq
    value: {question: Where?, answer: Here.}
  - op: add
    kind: faq
    value: {question: When?, answer: Now.}
assertions:
  - type: final_state
    collection: faq
    where: {id: faq-first}
    expect: {question: Where?}
  - type: final_state
    collection: faq
    where: {id: gen-1}
    expect: {question: When?}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
