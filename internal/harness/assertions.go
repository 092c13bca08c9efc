package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/hacksync/internal/codec"
	"github.com/roach88/hacksync/internal/state"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s changed=%t rev=%d\n", event.Seq, event.Intent, event.Changed, event.Revision)
		}
	}
	return buf.String()
}

// assertTraceContains checks that a flow step ran the given intent.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Intent == assertion.Intent {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("intent %s", assertion.Intent),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that intents first appear in the given order.
// Intervening steps are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for _, event := range trace {
		if slices.Contains(assertion.Intents, event.Intent) && positions[event.Intent] == 0 {
			positions[event.Intent] = event.Seq
		}
	}

	for _, intent := range assertion.Intents {
		if positions[intent] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all intents present: %v", assertion.Intents),
				Actual:   fmt.Sprintf("missing intent: %s", intent),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Intents); i++ {
		prev, curr := assertion.Intents[i-1], assertion.Intents[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("intents in order: %v", assertion.Intents),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the intent ran exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Intent == assertion.Intent {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Intent),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// wireDoc renders the final snapshot in wire form as generic JSON values so
// scenario expectations compare against exactly what persistence sees.
func wireDoc(result *Result) (map[string]any, error) {
	data, err := codec.Encode(result.Final)
	if err != nil {
		return nil, fmt.Errorf("encode final snapshot: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode final snapshot: %w", err)
	}
	return doc, nil
}

// assertFinalState finds the single row of a list collection matching
// Where, or takes the phase/winners object, and checks Expect against it.
// A null expectation matches an absent field.
func assertFinalState(doc map[string]any, assertion Assertion) error {
	target, ok := doc[assertion.Collection].(map[string]any)
	if !ok {
		rows, _ := doc[assertion.Collection].([]any)
		var matched []map[string]any
		for _, r := range rows {
			row, ok := r.(map[string]any)
			if ok && matchFields(row, assertion.Where) {
				matched = append(matched, row)
			}
		}
		switch len(matched) {
		case 0:
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("row in %s where %s", assertion.Collection, formatFields(assertion.Where)),
				Actual:   "row not found",
			}
		case 1:
			target = matched[0]
		default:
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Collection, formatFields(assertion.Where)),
				Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(matched)),
			}
		}
	}

	keys := sortedKeys(assertion.Expect)
	for _, key := range keys {
		want := normalize(assertion.Expect[key])
		got := target[key]
		if !reflect.DeepEqual(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", assertion.Collection, key, want),
				Actual:   fmt.Sprintf("%s.%s = %v", assertion.Collection, key, got),
			}
		}
	}
	return nil
}

// assertCount checks a list collection's length.
func assertCount(doc map[string]any, assertion Assertion) error {
	rows, _ := doc[assertion.Collection].([]any)
	if len(rows) != assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d %s", assertion.Count, assertion.Collection),
			Actual:   fmt.Sprintf("%d %s", len(rows), assertion.Collection),
		}
	}
	return nil
}

// matchFields reports whether row carries every field in want.
func matchFields(row, want map[string]any) bool {
	for key, value := range want {
		if !reflect.DeepEqual(normalize(value), row[key]) {
			return false
		}
	}
	return true
}

// normalize passes a YAML-decoded value through JSON so numbers, lists and
// maps take the same Go types as the wire document.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatFields creates a human-readable description of field conditions.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "(no conditions)"
	}
	keys := sortedKeys(fields)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " AND ")
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	var doc map[string]any
	var docErr error
	loadDoc := func() (map[string]any, error) {
		if doc == nil && docErr == nil {
			doc, docErr = wireDoc(result)
		}
		return doc, docErr
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertCount:
			var d map[string]any
			if d, err = loadDoc(); err == nil {
				if assertion.Type == AssertFinalState {
					err = assertFinalState(d, assertion)
				} else {
					err = assertCount(d, assertion)
				}
			}
		case AssertInvariants:
			if drift := state.CheckInvariants(result.Final); drift != nil {
				err = &AssertionError{
					Type:     AssertInvariants,
					Expected: "no invariant drift",
					Actual:   drift.Error(),
				}
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
