package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/labledger/internal/ledger"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RequireTester builds the handler WithRequireTester.
	RequireTester bool `yaml:"require_tester,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the notices and final records.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one request against the handler.
type Step struct {
	// Op is publish, amend or lookup.
	Op string `yaml:"op"`

	// Caller is the signing identity. Empty means unsigned.
	Caller string `yaml:"caller"`

	Subject  string `yaml:"subject"`
	Tester   string `yaml:"tester,omitempty"`
	Positive bool   `yaml:"positive,omitempty"`

	// Expect is "ok" (the default) or an error code such as NOT_FOUND.
	Expect string `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpPublish = "publish"
	OpAmend   = "amend"
	OpLookup  = "lookup"
)

// OutcomeOK marks a step that succeeded.
const OutcomeOK = "ok"

// Assertion validates notices or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_count": exactly Count notices of Kind (all kinds if empty)
	// - "event_order": notice kinds appear exactly as Kinds
	// - "record": the record for (Caller, Subject) equals Tester/Positive
	// - "absent": (Caller, Subject) holds no record
	Type string `yaml:"type"`

	Kind  string   `yaml:"kind,omitempty"`
	Kinds []string `yaml:"kinds,omitempty"`
	Count int      `yaml:"count,omitempty"`

	Caller   string `yaml:"caller,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	Tester   string `yaml:"tester,omitempty"`
	Positive bool   `yaml:"positive,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount = "event_count"
	AssertEventOrder = "event_order"
	AssertRecord     = "record"
	AssertAbsent     = "absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpPublish, OpAmend, OpLookup:
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if !validOutcome(step.Expect) {
			return fmt.Errorf("steps[%d]: unknown expect %q", i, step.Expect)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validOutcome(expect string) bool {
	switch ledger.ErrorCode(expect) {
	case "", OutcomeOK,
		ledger.ErrCodeAlreadyPublished,
		ledger.ErrCodeNotFound,
		ledger.ErrCodeTesterLabelEmpty,
		ledger.ErrCodeBadOrigin:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
		if a.Kind != "" && !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
		}
	case AssertEventOrder:
		for _, k := range a.Kinds {
			if !validKind(k) {
				return fmt.Errorf("assertions[%d]: unknown kind %q", index, k)
			}
		}
	case AssertRecord, AssertAbsent:
		if a.Caller == "" {
			return fmt.Errorf("assertions[%d]: caller is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validKind(k string) bool {
	return ledger.EventKind(k) == ledger.KindPublished || ledger.EventKind(k) == ledger.KindUpdated
}
