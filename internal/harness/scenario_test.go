package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/state"
)

const minimalScenario = `
name: minimal
description: One phase change.
flow:
  - op: phase
    phase: open_voting
    expect: {changed: true, voting_open: true}
assertions:
  - type: invariants
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Empty(t, s.Initial)
	require.Len(t, s.Flow, 1)
	require.NotNil(t, s.Flow[0].Expect)
	require.NotNil(t, s.Flow[0].Expect.VotingOpen)
	assert.True(t, *s.Flow[0].Expect.VotingOpen)
	assert.Nil(t, s.Flow[0].Expect.Announced)
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_RejectsUnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: Misspelled flow.
flwo:
  - op: phase
    phase: announce
assertions:
  - type: invariants
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nflow: [{op: phase, phase: announce}]\nassertions: [{type: invariants}]",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nflow: [{op: phase, phase: announce}]\nassertions: [{type: invariants}]",
			want: "description is required",
		},
		{
			name: "bad initial",
			yaml: "name: n\ndescription: d\ninitial: prod\nflow: [{op: phase, phase: announce}]\nassertions: [{type: invariants}]",
			want: "initial must be empty",
		},
		{
			name: "empty flow",
			yaml: "name: n\ndescription: d\nassertions: [{type: invariants}]",
			want: "flow list is required",
		},
		{
			name: "empty assertions",
			yaml: "name: n\ndescription: d\nflow: [{op: phase, phase: announce}]",
			want: "assertions list is required",
		},
		{
			name: "expect in setup",
			yaml: "name: n\ndescription: d\nsetup: [{op: phase, phase: announce, expect: {changed: true}}]\nflow: [{op: phase, phase: reset}]\nassertions: [{type: invariants}]",
			want: "expect is only allowed in flow",
		},
		{
			name: "unknown op",
			yaml: "name: n\ndescription: d\nflow: [{op: teleport}]\nassertions: [{type: invariants}]",
			want: `unknown op "teleport"`,
		},
		{
			name: "unknown kind",
			yaml: "name: n\ndescription: d\nflow: [{op: remove, kind: sponsor, id: x}]\nassertions: [{type: invariants}]",
			want: `unknown kind "sponsor"`,
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nflow: [{op: phase, phase: announce}]\nassertions: [{type: vibes}]",
			want: `unknown assertion type "vibes"`,
		},
		{
			name: "final_state list needs where",
			yaml: "name: n\ndescription: d\nflow: [{op: phase, phase: announce}]\nassertions: [{type: final_state, collection: projects, expect: {name: x}}]",
			want: "where is required",
		},
		{
			name: "count needs list collection",
			yaml: "name: n\ndescription: d\nflow: [{op: phase, phase: announce}]\nassertions: [{type: count, collection: phase, count: 1}]",
			want: "count needs a list collection",
		},
		{
			name: "trace_order needs intents",
			yaml: "name: n\ndescription: d\nflow: [{op: phase, phase: announce}]\nassertions: [{type: trace_order}]",
			want: "intents list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStep_Intent(t *testing.T) {
	t.Run("add decodes wire form", func(t *testing.T) {
		in, err := Step{Op: "add", Kind: "project", Value: map[string]any{"id": "p1", "name": "Rocket", "members": []any{}}}.Intent()
		require.NoError(t, err)
		assert.Equal(t, state.OpAdd, in.Op)
		assert.Equal(t, state.KindProject, in.Kind)
		proj, ok := in.Value.(model.Project)
		require.True(t, ok)
		assert.Equal(t, "Rocket", proj.Name)
	})

	t.Run("replace decodes a list", func(t *testing.T) {
		in, err := Step{Op: "replace", Kind: "faq", Value: []any{map[string]any{"id": "f1", "question": "q", "answer": "a"}}}.Intent()
		require.NoError(t, err)
		assert.Equal(t, state.OpReplace, in.Op)
		items, ok := in.Value.([]model.FaqItem)
		require.True(t, ok)
		assert.Len(t, items, 1)
	})

	t.Run("patch", func(t *testing.T) {
		in, err := Step{Op: "patch", Kind: "project", ID: "p1", Fields: map[string]any{"name": "Comet"}}.Intent()
		require.NoError(t, err)
		assert.Equal(t, "patch project/p1", in.String())
		assert.Equal(t, "Comet", in.Fields["name"])
	})

	t.Run("patch needs fields", func(t *testing.T) {
		_, err := Step{Op: "patch", Kind: "project", ID: "p1"}.Intent()
		assert.ErrorContains(t, err, "fields are required")
	})

	t.Run("winners and phase", func(t *testing.T) {
		in, err := Step{Op: "assign_challenge_winner", Challenge: "ai", Project: "p1"}.Intent()
		require.NoError(t, err)
		assert.Equal(t, "assign_challenge_winner ai->p1", in.String())

		in, err = Step{Op: "clear_bounty_winner", ID: "b1"}.Intent()
		require.NoError(t, err)
		assert.Equal(t, state.OpClearBountyWinner, in.Op)

		in, err = Step{Op: "phase", Phase: "announce"}.Intent()
		require.NoError(t, err)
		assert.Equal(t, "phase announce", in.String())
	})

	t.Run("claims need a project", func(t *testing.T) {
		_, err := Step{Op: "claim_bounty", ID: "b1"}.Intent()
		assert.ErrorContains(t, err, "project is required")

		in, err := Step{Op: "release_bounty", ID: "b1", Project: "p1"}.Intent()
		require.NoError(t, err)
		assert.Equal(t, "release_bounty b1->p1", in.String())
	})

	t.Run("missing op", func(t *testing.T) {
		_, err := Step{}.Intent()
		assert.ErrorContains(t, err, "op is required")
	})
}

func TestSequence_FallsBackToGenerated(t *testing.T) {
	seq := newSequence([]string{"a", "b"})
	assert.Equal(t, "a", seq.Generate())
	assert.Equal(t, "b", seq.Generate())
	assert.Equal(t, "gen-1", seq.Generate())
	assert.Equal(t, "gen-2", seq.Generate())
}
