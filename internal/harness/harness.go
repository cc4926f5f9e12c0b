package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hindsight/internal/engine"
	"github.com/roach88/hindsight/internal/universe"
)

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Load the scenario's records (inline or from the trace file)
//  2. Reconstruct them with a fresh engine
//  3. Compare a failure against expect_error
//  4. Evaluate assertions against the reconstructed universe
//
// The returned error is reserved for scenarios that cannot be executed at
// all; assertion and expectation failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	records, err := scenario.LoadRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	res, err := engine.Reconstruct(records, engine.WithLogger(logger))

	result := NewResult()
	if err != nil {
		checkError(scenario, err, result)
		return result, nil
	}

	result.Events = res.Events
	result.Edges = res.Graph.Edges()
	result.Universe = universe.FromResult(res)

	if scenario.ExpectError != nil {
		result.AddError(fmt.Sprintf("expected error %s, reconstruction succeeded", scenario.ExpectError.Code))
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// checkError records a reconstruction failure and matches it against the
// scenario's expect_error clause.
func checkError(scenario *Scenario, err error, result *Result) {
	var re *engine.ReconstructError
	if errors.As(err, &re) {
		result.ErrorCode = string(re.Code)
		result.ErrorRecord = re.RecordID
	}

	want := scenario.ExpectError
	if want == nil {
		result.AddError(fmt.Sprintf("unexpected reconstruction error: %v", err))
		return
	}
	if result.ErrorCode != want.Code {
		result.AddError(fmt.Sprintf("expected error %s, got %v", want.Code, err))
		return
	}
	if want.Record != "" && result.ErrorRecord != want.Record {
		result.AddError(fmt.Sprintf("expected error on record %s, got record %s", want.Record, result.ErrorRecord))
	}
	if len(scenario.Assertions) > 0 {
		result.AddError("assertions cannot be evaluated: reconstruction failed")
	}
}
