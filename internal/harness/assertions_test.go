package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hacksync/internal/model"
)

func sampleResult() *Result {
	result := NewResult()
	result.AddTrace("add project", true, 1)
	result.AddTrace("phase open_voting", true, 2)
	result.AddTrace("phase open_voting", false, 2)
	result.AddTrace("phase announce", true, 3)

	result.Final = model.Snapshot{
		Projects: []model.Project{
			{ID: "p1", Name: "Rocket", Kind: model.ProjectNew, Status: model.ProjectDraft, Members: []string{"ada@example.com"}},
			{ID: "p2", Name: "Comet", Kind: model.ProjectNew, Status: model.ProjectWinner, Members: []string{}},
		},
		Phase: model.Phase{VotingOpen: true, Announced: true},
	}
	return result
}

func TestEvaluateAssertions_TraceContains(t *testing.T) {
	result := sampleResult()

	assert.Empty(t, EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Intent: "phase announce"},
	}))

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Intent: "phase reset"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not found in trace")
	assert.Contains(t, errs[0], "Full trace:")
}

func TestEvaluateAssertions_TraceOrder(t *testing.T) {
	result := sampleResult()

	assert.Empty(t, EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceOrder, Intents: []string{"add project", "phase announce"}},
	}))

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceOrder, Intents: []string{"phase announce", "add project"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "should be before")

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceOrder, Intents: []string{"add project", "phase reset"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "missing intent: phase reset")
}

func TestEvaluateAssertions_TraceCount(t *testing.T) {
	result := sampleResult()

	assert.Empty(t, EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Intent: "phase open_voting", Count: 2},
		{Type: AssertTraceCount, Intent: "phase reset", Count: 0},
	}))

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Intent: "phase open_voting", Count: 1},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "2 occurrences")
}

func TestEvaluateAssertions_FinalState(t *testing.T) {
	result := sampleResult()

	t.Run("row subset match", func(t *testing.T) {
		assert.Empty(t, EvaluateAssertions(result, []Assertion{{
			Type:       AssertFinalState,
			Collection: "projects",
			Where:      map[string]any{"id": "p1"},
			Expect:     map[string]any{"name": "Rocket", "members": []any{"ada@example.com"}},
		}}))
	})

	t.Run("null matches absent field", func(t *testing.T) {
		assert.Empty(t, EvaluateAssertions(result, []Assertion{{
			Type:       AssertFinalState,
			Collection: "projects",
			Where:      map[string]any{"id": "p2"},
			Expect:     map[string]any{"bountyId": nil},
		}}))
	})

	t.Run("object collection", func(t *testing.T) {
		assert.Empty(t, EvaluateAssertions(result, []Assertion{{
			Type:       AssertFinalState,
			Collection: "phase",
			Expect:     map[string]any{"votingOpen": true, "announced": true},
		}}))
	})

	t.Run("value mismatch", func(t *testing.T) {
		errs := EvaluateAssertions(result, []Assertion{{
			Type:       AssertFinalState,
			Collection: "projects",
			Where:      map[string]any{"id": "p1"},
			Expect:     map[string]any{"status": "winner"},
		}})
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "projects.status = winner")
		assert.Contains(t, errs[0], "projects.status = draft")
	})

	t.Run("row not found", func(t *testing.T) {
		errs := EvaluateAssertions(result, []Assertion{{
			Type:       AssertFinalState,
			Collection: "projects",
			Where:      map[string]any{"id": "p9"},
			Expect:     map[string]any{"name": "x"},
		}})
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "row not found")
	})

	t.Run("ambiguous where", func(t *testing.T) {
		errs := EvaluateAssertions(result, []Assertion{{
			Type:       AssertFinalState,
			Collection: "projects",
			Where:      map[string]any{"kind": "newProject"},
			Expect:     map[string]any{"name": "Rocket"},
		}})
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "2 rows matched")
	})
}

func TestEvaluateAssertions_Count(t *testing.T) {
	result := sampleResult()

	assert.Empty(t, EvaluateAssertions(result, []Assertion{
		{Type: AssertCount, Collection: "projects", Count: 2},
		{Type: AssertCount, Collection: "bounties", Count: 0},
	}))

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertCount, Collection: "projects", Count: 3},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "2 projects")
}

func TestEvaluateAssertions_Invariants(t *testing.T) {
	result := sampleResult()
	assert.Empty(t, EvaluateAssertions(result, []Assertion{{Type: AssertInvariants}}))

	result.Final.Projects[1].Members = []string{"ada@example.com"}
	errs := EvaluateAssertions(result, []Assertion{{Type: AssertInvariants}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no invariant drift")
	assert.Contains(t, errs[0], "is on rosters of p1 and p2")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "vibes"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "vibes"`)
}
