package harness

import "github.com/roach88/labledger/internal/ledger"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int
	Op      string
	Caller  string
	Subject string

	// Outcome is OutcomeOK or the rejection's error code.
	Outcome string

	// Key is the addressed key. Zero for BAD_ORIGIN, which never derives one.
	Key ledger.Key

	// Notice is set for successful publish and amend steps.
	Notice *ledger.Notice

	// Record is set for successful lookup steps.
	Record *ledger.Record
}

// RecordState is one entry of the final state.
type RecordState struct {
	Key    ledger.Key
	Record ledger.Record
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step matched its expect and every assertion held.
	Pass bool

	Trace []TraceEvent

	// Notices are the notices the sink received, in order.
	Notices []ledger.Notice

	// State holds the final record of every key the trace touched, sorted
	// by key. Keys with no record are left out.
	State []RecordState

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Notices: []ledger.Notice{},
		State:   []RecordState{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
