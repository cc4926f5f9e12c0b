package harness

import (
	"fmt"
	"maps"
	"strings"

	"github.com/roach88/hindsight/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Events   []ir.Event // Clock-ordered events for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvents:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s %s %s %s\n", ev.Clock, ev.ID, ev.Kind, ev.Thread.Key, ev.VectorTimestamp)
		}
	}

	return buf.String()
}

func (r *Result) failure(typ, expected, actual string) *AssertionError {
	return &AssertionError{
		Type:     typ,
		Expected: expected,
		Actual:   actual,
		Events:   r.Universe.Events(),
	}
}

func (r *Result) lookup(typ, id string) (ir.Event, error) {
	ev, ok := r.Universe.Event(id)
	if !ok {
		return ir.Event{}, r.failure(typ, fmt.Sprintf("event %s", id), "event not found")
	}
	return ev, nil
}

// assertVectorClock checks an event's vector timestamp. Components absent
// from the expectation must be zero.
func assertVectorClock(r *Result, a Assertion) error {
	ev, err := r.lookup(AssertVectorClock, a.Event)
	if err != nil {
		return err
	}
	want, err := expectedClock(a.Expect)
	if err != nil {
		return err
	}

	got := ev.VectorTimestamp.Map()
	maps.DeleteFunc(got, func(_ string, v int64) bool { return v == 0 })
	maps.DeleteFunc(want, func(_ string, v int64) bool { return v == 0 })
	if !maps.Equal(got, want) {
		expected, _ := ir.VectorClockFromMap(ev.Thread.Key, want)
		return r.failure(AssertVectorClock,
			fmt.Sprintf("event %s at %s", a.Event, expected),
			fmt.Sprintf("event %s at %s", a.Event, ev.VectorTimestamp))
	}
	return nil
}

// assertEdge checks that the causal edge from -> to exists (or not).
func assertEdge(r *Result, a Assertion, present bool) error {
	if r.HasEdge(a.From, a.To) == present {
		return nil
	}
	if present {
		return r.failure(AssertEdge, fmt.Sprintf("edge %s -> %s", a.From, a.To), "edge not found")
	}
	return r.failure(AssertNoEdge, fmt.Sprintf("no edge %s -> %s", a.From, a.To), "edge found")
}

// assertClock checks an event's scalar clock.
func assertClock(r *Result, a Assertion) error {
	if a.Value == nil {
		return fmt.Errorf("clock assertion requires value")
	}
	ev, err := r.lookup(AssertClock, a.Event)
	if err != nil {
		return err
	}
	if ev.Clock != *a.Value {
		return r.failure(AssertClock,
			fmt.Sprintf("event %s at clock %d", a.Event, *a.Value),
			fmt.Sprintf("clock %d", ev.Clock))
	}
	return nil
}

// assertThreadOrder checks that threads appear in the specified lane order.
// Threads don't need to be adjacent (intervening lanes are allowed).
func assertThreadOrder(r *Result, a Assertion) error {
	// Step 1: Find the lane of each expected thread
	lanes := make([]int, len(a.Threads))
	for i, key := range a.Threads {
		lane, ok := r.Universe.Lane(key)
		if !ok {
			return r.failure(AssertThreadOrder,
				fmt.Sprintf("all threads present: %v", a.Threads),
				fmt.Sprintf("missing thread: %s", key))
		}
		lanes[i] = lane
	}

	// Step 2: Verify order
	for i := 1; i < len(lanes); i++ {
		if lanes[i-1] >= lanes[i] {
			return r.failure(AssertThreadOrder,
				fmt.Sprintf("threads in order: %v", a.Threads),
				fmt.Sprintf("%s (lane %d) should be before %s (lane %d)",
					a.Threads[i-1], lanes[i-1], a.Threads[i], lanes[i]))
		}
	}
	return nil
}

// assertRelation checks the happened-before relation of A to B.
func assertRelation(r *Result, a Assertion) error {
	name, _ := a.Expect.(string)
	want, err := ir.ParseRelation(name)
	if err != nil {
		return err
	}
	got, err := r.Universe.Relation(a.A, a.B)
	if err != nil {
		return r.failure(AssertRelation, fmt.Sprintf("%s %s %s", a.A, want, a.B), err.Error())
	}
	if got != want {
		return r.failure(AssertRelation,
			fmt.Sprintf("%s %s %s", a.A, want, a.B),
			fmt.Sprintf("%s %s %s", a.A, got, a.B))
	}
	return nil
}

// assertDominates checks that A's vector timestamp dominates B's.
func assertDominates(r *Result, a Assertion) error {
	ea, err := r.lookup(AssertDominates, a.A)
	if err != nil {
		return err
	}
	eb, err := r.lookup(AssertDominates, a.B)
	if err != nil {
		return err
	}
	if !ea.VectorTimestamp.Dominates(eb.VectorTimestamp) {
		return r.failure(AssertDominates,
			fmt.Sprintf("%s dominates %s", a.A, a.B),
			fmt.Sprintf("%s %s does not dominate %s %s", a.A, ea.VectorTimestamp, a.B, eb.VectorTimestamp))
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	if result.Universe == nil {
		if len(assertions) > 0 {
			errors = append(errors, "no reconstruction to evaluate assertions against")
		}
		return errors
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertVectorClock:
			err = assertVectorClock(result, assertion)
		case AssertEdge:
			err = assertEdge(result, assertion, true)
		case AssertNoEdge:
			err = assertEdge(result, assertion, false)
		case AssertClock:
			err = assertClock(result, assertion)
		case AssertThreadOrder:
			err = assertThreadOrder(result, assertion)
		case AssertRelation:
			err = assertRelation(result, assertion)
		case AssertDominates:
			err = assertDominates(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
