package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvariantViolation is wrapped by every vector clock operation that would
// move a clock backward or advance a clock that has no owner.
var ErrInvariantViolation = errors.New("invariant violation")

// VectorClock is an immutable vector timestamp: one logical counter per
// thread key plus the owning thread whose component this clock advances.
//
// Every operation returns a new clock. The zero value has no owner and no
// components; it can absorb other clocks via Update but cannot be incremented.
type VectorClock struct {
	owner      string
	components map[string]int64
}

// NewVectorClock returns the initial clock of a thread: {owner: 0}.
func NewVectorClock(owner string) VectorClock {
	if owner == "" {
		return VectorClock{}
	}
	return VectorClock{owner: owner, components: map[string]int64{owner: 0}}
}

// VectorClockFromMap builds a clock from stored components.
// The owner component is added at 0 if absent. Negative components are rejected.
func VectorClockFromMap(owner string, components map[string]int64) (VectorClock, error) {
	out := make(map[string]int64, len(components)+1)
	for k, v := range components {
		if v < 0 {
			return VectorClock{}, fmt.Errorf("%w: negative component %s=%d", ErrInvariantViolation, k, v)
		}
		out[k] = v
	}
	if owner != "" {
		if _, ok := out[owner]; !ok {
			out[owner] = 0
		}
	}
	return VectorClock{owner: owner, components: out}, nil
}

// Owner returns the thread key whose component this clock advances.
func (vc VectorClock) Owner() string {
	return vc.owner
}

// OwnTime returns the owner's component.
func (vc VectorClock) OwnTime() int64 {
	return vc.components[vc.owner]
}

// Get returns the component for key, 0 if absent.
func (vc VectorClock) Get(key string) int64 {
	return vc.components[key]
}

// Len returns the number of components.
func (vc VectorClock) Len() int {
	return len(vc.components)
}

// Threads returns the component keys in sorted order.
func (vc VectorClock) Threads() []string {
	keys := make([]string, 0, len(vc.components))
	for k := range vc.components {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Map returns a copy of the components.
func (vc VectorClock) Map() map[string]int64 {
	out := make(map[string]int64, len(vc.components))
	for k, v := range vc.components {
		out[k] = v
	}
	return out
}

// Increment returns a clock with the owner's component advanced by one.
func (vc VectorClock) Increment() (VectorClock, error) {
	return vc.IncrementBy(1)
}

// IncrementBy returns a clock with the owner's component advanced by delta.
// A zero delta is allowed and yields an equal clock.
func (vc VectorClock) IncrementBy(delta int64) (VectorClock, error) {
	if vc.owner == "" {
		return VectorClock{}, fmt.Errorf("%w: increment of clock without owner", ErrInvariantViolation)
	}
	if delta < 0 {
		return VectorClock{}, fmt.Errorf("%w: clock of %s cannot move backward by %d", ErrInvariantViolation, vc.owner, -delta)
	}
	next := vc.Map()
	next[vc.owner] += delta
	return VectorClock{owner: vc.owner, components: next}, nil
}

// Update returns the key-wise maximum of vc and other. The owner of vc is kept.
func (vc VectorClock) Update(other VectorClock) VectorClock {
	next := vc.Map()
	for k, v := range other.components {
		if v > next[k] {
			next[k] = v
		}
	}
	return VectorClock{owner: vc.owner, components: next}
}

// Dominates reports whether every component of other is at most the
// corresponding component of vc.
func (vc VectorClock) Dominates(other VectorClock) bool {
	for k, v := range other.components {
		if vc.components[k] < v {
			return false
		}
	}
	return true
}

// Relation is the happened-before relation between two vector timestamps.
type Relation string

const (
	RelationEqual      Relation = "equal"
	RelationBefore     Relation = "before"
	RelationAfter      Relation = "after"
	RelationConcurrent Relation = "concurrent"
)

// ParseRelation accepts the names of the Relation constants.
func ParseRelation(s string) (Relation, error) {
	switch r := Relation(strings.ToLower(strings.TrimSpace(s))); r {
	case RelationEqual, RelationBefore, RelationAfter, RelationConcurrent:
		return r, nil
	}
	return "", fmt.Errorf("unknown relation %q", s)
}

// Compare reports how vc relates to other: before means vc happened before
// other. Ownership is ignored; only components are compared.
func (vc VectorClock) Compare(other VectorClock) Relation {
	geq := vc.Dominates(other)
	leq := other.Dominates(vc)
	switch {
	case geq && leq:
		return RelationEqual
	case leq:
		return RelationBefore
	case geq:
		return RelationAfter
	}
	return RelationConcurrent
}

// Equal reports whether both clocks have the same owner and components.
// Absent and zero components are treated alike.
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.owner == other.owner && vc.Compare(other) == RelationEqual
}

// String renders the clock as {a:1, b:2} with keys sorted.
func (vc VectorClock) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range vc.Threads() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatInt(vc.components[k], 10))
	}
	sb.WriteByte('}')
	return sb.String()
}

type vectorClockJSON struct {
	Owner string           `json:"owner"`
	Clock map[string]int64 `json:"clock"`
}

// MarshalJSON encodes the clock as {"owner": ..., "clock": {...}}.
func (vc VectorClock) MarshalJSON() ([]byte, error) {
	clock := vc.components
	if clock == nil {
		clock = map[string]int64{}
	}
	return json.Marshal(vectorClockJSON{Owner: vc.owner, Clock: clock})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (vc *VectorClock) UnmarshalJSON(data []byte) error {
	var raw vectorClockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := VectorClockFromMap(raw.Owner, raw.Clock)
	if err != nil {
		return err
	}
	*vc = decoded
	return nil
}
