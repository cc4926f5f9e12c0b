// Package harness provides conformance testing for causal reconstruction.
//
// The harness loads a trace (inline records or a trace file), reconstructs
// it with the engine and checks the resulting events, edges and vector
// clocks against the scenario's assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	records:
//	  - { id: "1", type: START, thread: "t1@p1" }
//	  - { id: "2", type: SND, thread: "t1@p1" }
//	  - { id: "3", type: RCV, thread: "t2@p2", dependency: "2" }
//	assertions:
//	  - type: vector_clock
//	    event: "3"
//	    expect: { "t1@p1": 2, "t2@p2": 1 }
//	  - type: edge
//	    from: "2"
//	    to: "3"
//
// Instead of records a scenario may name a trace file (JSON, JSON lines or
// msgpack) relative to the scenario file:
//
//	trace: traces/handshake.jsonl
//
// A scenario that expects reconstruction to fail names the error code and,
// optionally, the offending record:
//
//	expect_error:
//	  code: UNRESOLVED_DEPENDENCY
//	  record: "3"
//
// # Assertion Types
//
//   - vector_clock: the event's vector timestamp equals expect (zero components may be omitted)
//   - edge: a causal edge from -> to exists
//   - no_edge: no causal edge from -> to exists
//   - clock: the event's scalar clock equals value
//   - thread_order: the listed thread keys appear in this relative lane order
//   - relation: the happened-before relation of a to b is expect (before, after, equal, concurrent)
//   - dominates: the vector timestamp of a dominates that of b
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/send_receive.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
