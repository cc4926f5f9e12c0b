package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hindsight/internal/ir"
)

// Snapshot renders a scenario result as canonical JSON: the events in input
// order with their clocks and the causal edges, or the reconstruction error.
// Identical traces always produce identical bytes.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	events := make([]any, len(result.Events))
	for i, ev := range result.Events {
		vc := make(map[string]any, ev.VectorTimestamp.Len())
		for k, v := range ev.VectorTimestamp.Map() {
			vc[k] = v
		}
		eventMap := map[string]any{
			"id":           ev.ID,
			"kind":         string(ev.Kind),
			"thread":       ev.Thread.Key,
			"clock":        ev.Clock,
			"vector_clock": vc,
		}
		if parents := ev.Parents(); len(parents) > 0 {
			deps := make([]any, len(parents))
			for j, p := range parents {
				deps[j] = p
			}
			eventMap["parents"] = deps
		}
		events[i] = eventMap
	}

	edges := make([]any, len(result.Edges))
	for i, e := range result.Edges {
		edges[i] = map[string]any{
			"from":    e.From,
			"to":      e.To,
			"primary": e.Primary,
		}
	}

	snapshot := map[string]any{
		"scenario_name": scenarioName,
		"events":        events,
		"edges":         edges,
	}
	if result.ErrorCode != "" {
		snapshot["error"] = map[string]any{
			"code":   result.ErrorCode,
			"record": result.ErrorRecord,
		}
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares the reconstruction against
// a golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
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

// AssertGolden compares an existing result against a golden file without
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
