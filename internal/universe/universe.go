package universe

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/hindsight/internal/engine"
	"github.com/roach88/hindsight/internal/ir"
)

// ErrUnknownEvent is returned by queries that name an id not in the universe.
var ErrUnknownEvent = errors.New("unknown event")

// Universe is the query façade over one reconstructed trace.
type Universe struct {
	events   []ir.Event
	byID     map[string]int
	threads  []ir.ThreadRef
	lanes    map[string]int
	byThread map[string][]int
}

type config struct {
	dropBookends bool
}

// Option configures a Universe.
type Option func(*config)

// WithoutBookendThreads drops threads whose only events are START and END,
// together with their events.
func WithoutBookendThreads() Option {
	return func(c *config) {
		c.dropBookends = true
	}
}

// FromResult builds a universe over a reconstruction result.
func FromResult(res *engine.Result, opts ...Option) *Universe {
	return New(res.Events, opts...)
}

// New builds a universe over events. Events are ordered by clock; events
// sharing a clock keep their input order.
func New(events []ir.Event, opts ...Option) *Universe {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b ir.Event) int {
		return cmp.Compare(a.Clock, b.Clock)
	})

	if cfg.dropBookends {
		ordered = dropBookendThreads(ordered)
	}

	u := &Universe{
		events:   ordered,
		byID:     make(map[string]int, len(ordered)),
		lanes:    make(map[string]int),
		byThread: make(map[string][]int),
	}

	seen := make(map[string]bool)
	for i, ev := range ordered {
		u.byID[ev.ID] = i
		u.byThread[ev.Thread.Key] = append(u.byThread[ev.Thread.Key], i)
		if !seen[ev.Thread.Key] {
			seen[ev.Thread.Key] = true
			u.threads = append(u.threads, ev.Thread)
		}
	}

	slices.SortFunc(u.threads, CompareThreads)
	for i, t := range u.threads {
		u.lanes[t.Key] = i
	}
	return u
}

func dropBookendThreads(events []ir.Event) []ir.Event {
	relevant := make(map[string]bool)
	for _, ev := range events {
		if !ev.Kind.IsBookend() {
			relevant[ev.Thread.Key] = true
		}
	}
	return slices.DeleteFunc(events, func(ev ir.Event) bool {
		return !relevant[ev.Thread.Key]
	})
}

// CompareThreads orders threads by process, then thread. Identifiers that
// are both integers compare numerically; integers sort before other names.
// The full key breaks remaining ties so the order is total.
func CompareThreads(a, b ir.ThreadRef) int {
	if c := compareIdent(a.Process, b.Process); c != 0 {
		return c
	}
	if c := compareIdent(a.Thread, b.Thread); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}

func compareIdent(a, b string) int {
	an, aerr := strconv.ParseInt(a, 10, 64)
	bn, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		if c := cmp.Compare(an, bn); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

// Count returns the number of events.
func (u *Universe) Count() int {
	return len(u.events)
}

// MaxClock returns the largest event clock, or -1 if the universe is empty.
func (u *Universe) MaxClock() int64 {
	if len(u.events) == 0 {
		return -1
	}
	return u.events[len(u.events)-1].Clock
}

// Events returns every event ordered by clock.
func (u *Universe) Events() []ir.Event {
	return u.events
}

// Event returns the event with id. A missing id is not an error.
func (u *Universe) Event(id string) (ir.Event, bool) {
	i, ok := u.byID[id]
	if !ok {
		return ir.Event{}, false
	}
	return u.events[i], true
}

// Subset returns the events whose clock lies in [start, end), in order.
func (u *Universe) Subset(start, end int64) []ir.Event {
	lo, _ := slices.BinarySearchFunc(u.events, start, func(ev ir.Event, c int64) int {
		return cmp.Compare(ev.Clock, c)
	})
	hi, _ := slices.BinarySearchFunc(u.events, end, func(ev ir.Event, c int64) int {
		return cmp.Compare(ev.Clock, c)
	})
	if hi <= lo {
		return nil
	}
	return u.events[lo:hi]
}

// At returns the events whose clock equals c.
func (u *Universe) At(c int64) []ir.Event {
	return u.Subset(c, c+1)
}

// Threads returns the threads in lane order.
func (u *Universe) Threads() []ir.ThreadRef {
	return u.threads
}

// Lane returns the display lane of thread key.
func (u *Universe) Lane(key string) (int, bool) {
	l, ok := u.lanes[key]
	return l, ok
}

// ThreadEvents returns the events of thread key ordered by clock.
func (u *Universe) ThreadEvents(key string) []ir.Event {
	idx := u.byThread[key]
	out := make([]ir.Event, len(idx))
	for i, j := range idx {
		out[i] = u.events[j]
	}
	return out
}

// Relation reports how event a relates to event b in happened-before order.
func (u *Universe) Relation(a, b string) (ir.Relation, error) {
	ea, ok := u.Event(a)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEvent, a)
	}
	eb, ok := u.Event(b)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEvent, b)
	}
	return ea.VectorTimestamp.Compare(eb.VectorTimestamp), nil
}

// HandlerScope returns the events a message handler ran for the receive
// rcvID: from the first HANDLERBEGIN after the receive on the same thread up
// to its matching HANDLEREND, both included. Nested handler pairs are kept
// inside the scope. An unterminated handler extends to the thread's last event.
func (u *Universe) HandlerScope(rcvID string) ([]ir.Event, error) {
	rcv, ok := u.Event(rcvID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, rcvID)
	}
	if rcv.Kind != ir.KindReceive {
		return nil, fmt.Errorf("event %s is %s, not %s", rcvID, rcv.Kind, ir.KindReceive)
	}

	timeline := u.ThreadEvents(rcv.Thread.Key)
	start := slices.IndexFunc(timeline, func(ev ir.Event) bool { return ev.ID == rcvID })

	begin := -1
	for i := start + 1; i < len(timeline); i++ {
		if timeline[i].Kind == ir.KindHandlerBegin {
			begin = i
			break
		}
	}
	if begin < 0 {
		return nil, nil
	}

	depth := 0
	for i := begin; i < len(timeline); i++ {
		switch timeline[i].Kind {
		case ir.KindHandlerBegin:
			depth++
		case ir.KindHandlerEnd:
			depth--
			if depth == 0 {
				return timeline[begin : i+1], nil
			}
		}
	}
	return timeline[begin:], nil
}
