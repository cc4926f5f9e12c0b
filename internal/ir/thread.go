package ir

import "strings"

// ThreadRef identifies the thread that emitted a record.
//
// Key is the composite identifier exactly as it appears in the trace
// ("t1@p1.host") and is what vector clocks are keyed by. Thread and Process
// are the parts used for display ordering.
type ThreadRef struct {
	Key     string `json:"key"`
	Thread  string `json:"thread"`
	Process string `json:"process"`
}

// ParseThread splits a composite "thread@process.suffix" identifier.
// Everything after the first '.' of the process part is discarded.
// Without an '@' the whole value is the thread and Process is empty.
func ParseThread(key string) ThreadRef {
	ref := ThreadRef{Key: key, Thread: key}
	at := strings.IndexByte(key, '@')
	if at < 0 {
		return ref
	}
	ref.Thread = key[:at]
	proc := key[at+1:]
	if dot := strings.IndexByte(proc, '.'); dot >= 0 {
		proc = proc[:dot]
	}
	ref.Process = proc
	return ref
}

// ThreadOf resolves the thread of a raw record. A record whose thread field
// carries no process part falls back to its "pid" field.
func ThreadOf(rec Record) ThreadRef {
	ref := ParseThread(rec.Thread())
	if ref.Process == "" {
		if pid, ok := rec.Raw.String("pid"); ok {
			ref.Process = pid
		}
	}
	return ref
}

func (t ThreadRef) String() string {
	return t.Key
}
