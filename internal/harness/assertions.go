package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/labledger/internal/ledger"
)

// AssertionContext provides what record assertions need to look up state.
type AssertionContext struct {
	Ctx     context.Context
	Store   ledger.Store
	Deriver *ledger.Deriver
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Notices  []ledger.Notice // full notice list for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Notices) > 0 {
		fmt.Fprintf(&buf, "\nNotices:\n")
		for _, n := range e.Notices {
			p := n.Event.Fields()
			fmt.Fprintf(&buf, "  [%d] %s %s tester=%q positive=%t\n", n.Seq, n.Event.Kind(), p.Key, p.Tester, p.Positive)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertEventCount:
		return assertEventCount(result.Notices, a)
	case AssertEventOrder:
		return assertEventOrder(result.Notices, a)
	case AssertRecord:
		return assertRecord(result.Notices, a, actx)
	case AssertAbsent:
		return assertAbsent(result.Notices, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertEventCount checks the number of notices of a.Kind, or of all
// notices when Kind is empty.
func assertEventCount(notices []ledger.Notice, a Assertion) error {
	count := 0
	for _, n := range notices {
		if a.Kind == "" || string(n.Event.Kind()) == a.Kind {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	what := "notices"
	if a.Kind != "" {
		what = a.Kind + " notices"
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Notices:  notices,
	}
}

// assertEventOrder checks the exact sequence of notice kinds.
func assertEventOrder(notices []ledger.Notice, a Assertion) error {
	actual := make([]string, len(notices))
	for i, n := range notices {
		actual[i] = string(n.Event.Kind())
	}

	match := len(actual) == len(a.Kinds)
	for i := 0; match && i < len(actual); i++ {
		match = actual[i] == a.Kinds[i]
	}
	if match {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: "[" + strings.Join(a.Kinds, ", ") + "]",
		Actual:   "[" + strings.Join(actual, ", ") + "]",
		Notices:  notices,
	}
}

func assertRecord(notices []ledger.Notice, a Assertion, actx *AssertionContext) error {
	rec, found, err := lookup(a, actx)
	if err != nil {
		return err
	}

	want := ledger.NewRecord(a.Positive, []byte(a.Tester))
	expected := describeRecord(want)
	if !found {
		return &AssertionError{Type: AssertRecord, Expected: expected, Actual: "no record", Notices: notices}
	}
	if !rec.Equal(want) {
		return &AssertionError{Type: AssertRecord, Expected: expected, Actual: describeRecord(rec), Notices: notices}
	}
	return nil
}

func assertAbsent(notices []ledger.Notice, a Assertion, actx *AssertionContext) error {
	rec, found, err := lookup(a, actx)
	if err != nil {
		return err
	}
	if found {
		return &AssertionError{Type: AssertAbsent, Expected: "no record", Actual: describeRecord(rec), Notices: notices}
	}
	return nil
}

func lookup(a Assertion, actx *AssertionContext) (ledger.Record, bool, error) {
	key, err := actx.Deriver.Derive([]byte(a.Subject), ledger.Identity(a.Caller), ledger.FixedSequence)
	if err != nil {
		return ledger.Record{}, false, err
	}
	rec, err := actx.Store.Get(actx.Ctx, key)
	if errors.Is(err, ledger.ErrNoRecord) {
		return ledger.Record{}, false, nil
	}
	if err != nil {
		return ledger.Record{}, false, err
	}
	return rec, true, nil
}

func describeRecord(r ledger.Record) string {
	return fmt.Sprintf("tester=%q positive=%t", r.Tester(), r.Positive())
}
