package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hacksync/internal/model"
)

// GoldenSnapshot is what a scenario's golden file records: the trace plus a
// summary of the final dataset.
type GoldenSnapshot struct {
	Scenario string         `json:"scenario"`
	Trace    []TraceEvent   `json:"trace"`
	Counts   map[string]int `json:"counts"`
	Phase    model.Phase    `json:"phase"`
	Winners  model.Winners  `json:"winners"`
}

// NewGoldenSnapshot summarizes result under name.
func NewGoldenSnapshot(name string, result *Result) GoldenSnapshot {
	final := result.Final
	final.Normalize()
	return GoldenSnapshot{
		Scenario: name,
		Trace:    result.Trace,
		Counts: map[string]int{
			"projects":   len(final.Projects),
			"attendees":  len(final.Attendees),
			"challenges": len(final.Challenges),
			"bounties":   len(final.Bounties),
			"goodies":    len(final.Goodies),
			"faq":        len(final.FAQ),
		},
		Phase:   final.Phase,
		Winners: final.Winners,
	}
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
// Map keys are sorted, so output is stable.
func (g GoldenSnapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its golden snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not run. Check failures and golden
// mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewGoldenSnapshot(name, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
