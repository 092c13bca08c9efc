package harness

import "github.com/roach88/hacksync/internal/model"

// TraceEvent records one flow step as the engine saw it.
type TraceEvent struct {
	Seq      int    `json:"seq"`
	Intent   string `json:"intent"`
	Changed  bool   `json:"changed"`
	Revision int64  `json:"revision"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists the flow steps in order. Setup steps are not traced.
	Trace []TraceEvent `json:"trace"`

	// Errors contains one message per failed check.
	Errors []string `json:"errors,omitempty"`

	// Final is the dataset after the last flow step.
	Final model.Snapshot `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a flow step to the trace.
func (r *Result) AddTrace(intent string, changed bool, revision int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:      len(r.Trace) + 1,
		Intent:   intent,
		Changed:  changed,
		Revision: revision,
	})
}
