package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "file name and scenario name agree")

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestGoldenSnapshot_Marshal(t *testing.T) {
	result := NewResult()
	result.AddTrace("phase announce", true, 1)
	result.Final.Phase.Announced = true

	data, err := NewGoldenSnapshot("tiny", result).Marshal()
	require.NoError(t, err)

	want := `{
  "scenario": "tiny",
  "trace": [
    {
      "seq": 1,
      "intent": "phase announce",
      "changed": true,
      "revision": 1
    }
  ],
  "counts": {
    "attendees": 0,
    "bounties": 0,
    "challenges": 0,
    "faq": 0,
    "goodies": 0,
    "projects": 0
  },
  "phase": {
    "votingOpen": false,
    "announced": true
  },
  "winners": {
    "challenge": {},
    "bounty": {}
  }
}
`
	require.Equal(t, want, string(data))
}
