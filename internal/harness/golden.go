package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/labledger/internal/canon"
	"github.com/roach88/labledger/internal/ledger"
)

// Snapshot serializes a result's trace and final state as canonical JSON.
// The bytes are stable across runs, platforms and store backends.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"step":    ev.Step,
			"op":      ev.Op,
			"caller":  ev.Caller,
			"subject": ev.Subject,
			"outcome": ev.Outcome,
		}
		if ev.Key != (ledger.Key{}) {
			m["key"] = ev.Key.String()
		}
		if ev.Notice != nil {
			p := ev.Notice.Event.Fields()
			m["notice"] = map[string]any{
				"id":       ev.Notice.ID,
				"seq":      ev.Notice.Seq,
				"kind":     string(ev.Notice.Event.Kind()),
				"tester":   string(p.Tester),
				"positive": p.Positive,
			}
		}
		if ev.Record != nil {
			m["record"] = recordMap(*ev.Record)
		}
		trace[i] = m
	}

	state := make([]any, len(result.State))
	for i, rs := range result.State {
		m := recordMap(rs.Record)
		m["key"] = rs.Key.String()
		state[i] = m
	}

	return canon.Marshal(map[string]any{
		"scenario_name": scenarioName,
		"trace":         trace,
		"state":         state,
	})
}

func recordMap(r ledger.Record) map[string]any {
	return map[string]any{
		"tester":   string(r.Tester()),
		"positive": r.Positive(),
	}
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
