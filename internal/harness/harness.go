package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/labledger/internal/ledger"
	"github.com/roach88/labledger/internal/testutil"
)

// Harness executes scenario steps against one handler.
type Harness struct {
	store   ledger.Store
	handler *ledger.Handler
	sink    *ledger.MemorySink
	deriver *ledger.Deriver
}

// Run executes a scenario on a fresh in-memory store.
func Run(scenario *Scenario) (*Result, error) {
	return RunOn(context.Background(), scenario, ledger.NewMemStore())
}

// RunOn executes a scenario against store, which should be empty.
//
// Execution flow:
// 1. Build a handler with a fresh clock and sequential notice IDs
// 2. Execute steps, comparing each outcome with its expect
// 3. Read back the final record of every key the trace touched
// 4. Evaluate assertions
//
// A rejected transition is an outcome, not an error. RunOn returns an error
// only when the store fails.
func RunOn(ctx context.Context, scenario *Scenario, store ledger.Store) (*Result, error) {
	h := newHarness(store, scenario.RequireTester)
	result := NewResult()

	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		result.Trace = append(result.Trace, event)

		want := step.Expect
		if want == "" {
			want = OutcomeOK
		}
		if event.Outcome != want {
			result.AddError(fmt.Sprintf("step %d (%s %s by %q): expected %s, got %s",
				i+1, step.Op, step.Subject, step.Caller, want, event.Outcome))
		}
	}

	result.Notices = h.sink.Notices()

	state, err := h.finalState(ctx, result.Trace)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.State = state

	actx := &AssertionContext{Ctx: ctx, Store: store, Deriver: h.deriver}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func newHarness(store ledger.Store, requireTester bool) *Harness {
	sink := ledger.NewMemorySink()
	deriver := ledger.NewDeriver(nil)
	return &Harness{
		store: store,
		sink:  sink,
		handler: ledger.NewHandler(store, sink,
			ledger.WithDeriver(deriver),
			ledger.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
			ledger.WithRequireTester(requireTester),
			ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in scenarios
		),
		deriver: deriver,
	}
}

// execute applies one step and classifies its outcome.
func (h *Harness) execute(ctx context.Context, index int, step Step) (TraceEvent, error) {
	event := TraceEvent{
		Step:    index,
		Op:      step.Op,
		Caller:  step.Caller,
		Subject: step.Subject,
	}
	origin := ledger.Origin{Caller: ledger.Identity(step.Caller)}
	sub := ledger.Submission{
		Subject:  []byte(step.Subject),
		Tester:   []byte(step.Tester),
		Positive: step.Positive,
	}

	var err error
	switch step.Op {
	case OpPublish, OpAmend:
		var n ledger.Notice
		if step.Op == OpPublish {
			n, err = h.handler.Publish(ctx, origin, sub)
		} else {
			n, err = h.handler.Amend(ctx, origin, sub)
		}
		if err == nil {
			event.Notice = &n
			event.Key = n.Event.Fields().Key
		}
	case OpLookup:
		var (
			key ledger.Key
			rec ledger.Record
		)
		key, rec, err = h.handler.Lookup(ctx, origin, sub.Subject)
		if err == nil {
			event.Record = &rec
			event.Key = key
		}
	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}

	if err == nil {
		event.Outcome = OutcomeOK
		return event, nil
	}

	var te *ledger.TransitionError
	if !errors.As(err, &te) {
		return event, err
	}
	event.Outcome = string(te.Code)
	event.Key = te.Key
	return event, nil
}

// finalState returns the record at every key the trace addressed.
func (h *Harness) finalState(ctx context.Context, trace []TraceEvent) ([]RecordState, error) {
	seen := make(map[ledger.Key]bool)
	var keys []ledger.Key
	for _, ev := range trace {
		if ev.Key == (ledger.Key{}) || seen[ev.Key] {
			continue
		}
		seen[ev.Key] = true
		keys = append(keys, ev.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	state := []RecordState{}
	for _, key := range keys {
		rec, err := h.store.Get(ctx, key)
		if errors.Is(err, ledger.ErrNoRecord) {
			continue
		}
		if err != nil {
			return nil, err
		}
		state = append(state, RecordState{Key: key, Record: rec})
	}
	return state, nil
}
