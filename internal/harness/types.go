package harness

import (
	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/universe"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expected error (if any) matched and all assertions held.
	Pass bool `json:"pass"`

	// Events are the reconstructed events in input order.
	// Empty when reconstruction failed.
	Events []ir.Event `json:"events"`

	// Edges are the resolved causal edges.
	Edges []ir.Edge `json:"edges"`

	// ErrorCode and ErrorRecord describe a reconstruction failure.
	ErrorCode   string `json:"error_code,omitempty"`
	ErrorRecord string `json:"error_record,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Universe is the clock-ordered view assertions are evaluated against.
	Universe *universe.Universe `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Events: []ir.Event{},
		Edges:  []ir.Edge{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// HasEdge reports whether the result contains the edge from -> to.
func (r *Result) HasEdge(from, to string) bool {
	for _, e := range r.Edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}
