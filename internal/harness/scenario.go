package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hindsight/internal/engine"
	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/tracefile"
)

// Scenario defines a conformance test scenario.
// Scenarios reconstruct a trace and assert on the resulting causal order.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Records is the inline trace, one map per record.
	// Exactly one of Records and Trace must be set.
	Records []map[string]any `yaml:"records,omitempty"`

	// Trace is the path of a trace file.
	// Relative paths are resolved against the scenario file's directory.
	Trace string `yaml:"trace,omitempty"`

	// ExpectError makes the scenario expect reconstruction to fail.
	ExpectError *ExpectError `yaml:"expect_error,omitempty"`

	// Assertions validate the reconstructed events and edges.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectError specifies an expected reconstruction failure.
type ExpectError struct {
	// Code is the expected error code (e.g., "UNRESOLVED_DEPENDENCY").
	Code string `yaml:"code"`

	// Record is the id of the record that fails. Optional.
	Record string `yaml:"record,omitempty"`
}

// Assertion validates the reconstruction.
type Assertion struct {
	// Type specifies the assertion type:
	// - "vector_clock": event's vector timestamp equals Expect
	// - "edge" / "no_edge": edge From -> To exists / does not exist
	// - "clock": event's scalar clock equals Value
	// - "thread_order": Threads appear in this relative lane order
	// - "relation": relation of A to B equals Expect
	// - "dominates": A's vector timestamp dominates B's
	Type string `yaml:"type"`

	// Event is the event id (used by vector_clock, clock).
	Event string `yaml:"event,omitempty"`

	// Expect is a thread -> counter map for vector_clock and a relation
	// name for relation.
	Expect any `yaml:"expect,omitempty"`

	// From and To name an edge (used by edge, no_edge).
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Value is the expected scalar clock (used by clock).
	Value *int64 `yaml:"value,omitempty"`

	// Threads is the expected thread order (used by thread_order).
	Threads []string `yaml:"threads,omitempty"`

	// A and B are event ids (used by relation, dominates).
	A string `yaml:"a,omitempty"`
	B string `yaml:"b,omitempty"`
}

// Assertion type constants.
const (
	AssertVectorClock = "vector_clock"
	AssertEdge        = "edge"
	AssertNoEdge      = "no_edge"
	AssertClock       = "clock"
	AssertThreadOrder = "thread_order"
	AssertRelation    = "relation"
	AssertDominates   = "dominates"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the trace path relative to the scenario BEFORE validation
	if scenario.Trace != "" && !filepath.IsAbs(scenario.Trace) {
		scenario.Trace = filepath.Join(filepath.Dir(path), scenario.Trace)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// LoadRecords returns the scenario's trace records.
func (s *Scenario) LoadRecords() ([]ir.Record, error) {
	if s.Trace != "" {
		return tracefile.Load(s.Trace)
	}
	records := make([]ir.Record, len(s.Records))
	for i, raw := range s.Records {
		rec, err := ir.RecordFromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		records[i] = rec
	}
	return records, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Trace != "" && len(s.Records) > 0:
		return fmt.Errorf("records and trace are mutually exclusive")
	case s.Trace == "" && len(s.Records) == 0:
		return fmt.Errorf("records or trace is required")
	}

	if s.Trace != "" {
		if _, err := os.Stat(s.Trace); os.IsNotExist(err) {
			return fmt.Errorf("trace file not found: %s", s.Trace)
		}
	}

	if s.ExpectError == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	if s.ExpectError != nil {
		switch engine.ErrorCode(s.ExpectError.Code) {
		case engine.ErrCodeUnresolvedDependency, engine.ErrCodeUnsupportedEventKind, engine.ErrCodeInvariantViolation:
		default:
			return fmt.Errorf("expect_error: unknown code %q", s.ExpectError.Code)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertVectorClock:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for vector_clock", index)
		}
		if _, err := expectedClock(a.Expect); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertEdge, AssertNoEdge:
		if a.From == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: from and to are required for %s", index, a.Type)
		}
	case AssertClock:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for clock", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for clock", index)
		}
	case AssertThreadOrder:
		if len(a.Threads) < 2 {
			return fmt.Errorf("assertions[%d]: at least two threads are required for thread_order", index)
		}
	case AssertRelation:
		if a.A == "" || a.B == "" {
			return fmt.Errorf("assertions[%d]: a and b are required for relation", index)
		}
		name, ok := a.Expect.(string)
		if !ok {
			return fmt.Errorf("assertions[%d]: expect must be a relation name for relation", index)
		}
		if _, err := ir.ParseRelation(name); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertDominates:
		if a.A == "" || a.B == "" {
			return fmt.Errorf("assertions[%d]: a and b are required for dominates", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// expectedClock converts a YAML thread -> counter map.
func expectedClock(v any) (map[string]int64, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expect must be a map of thread to counter, got %T", v)
	}
	out := make(map[string]int64, len(m))
	for k, raw := range m {
		iv, err := ir.FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("expect[%s]: %w", k, err)
		}
		n, ok := iv.(ir.IRInt)
		if !ok || n < 0 {
			return nil, fmt.Errorf("expect[%s]: counter must be a non-negative integer", k)
		}
		out[k] = int64(n)
	}
	return out, nil
}
