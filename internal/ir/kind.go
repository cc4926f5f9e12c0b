package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the enumerated category of a trace record.
type Kind string

const (
	// Thread lifecycle.
	KindStart  Kind = "START"
	KindEnd    Kind = "END"
	KindCreate Kind = "CREATE"
	KindJoin   Kind = "JOIN"

	// Free-text log statement.
	KindLog Kind = "LOG"

	// Memory access.
	KindRead  Kind = "R"
	KindWrite Kind = "W"

	// Message transfer.
	KindSend    Kind = "SND"
	KindReceive Kind = "RCV"

	// Socket lifecycle.
	KindClose    Kind = "CLOSE"
	KindConnect  Kind = "CONNECT"
	KindAccept   Kind = "ACCEPT"
	KindShutdown Kind = "SHUTDOWN"

	// Message handler boundaries.
	KindHandlerBegin Kind = "HANDLERBEGIN"
	KindHandlerEnd   Kind = "HANDLEREND"

	// Synchronization.
	KindLock      Kind = "LOCK"
	KindUnlock    Kind = "UNLOCK"
	KindWait      Kind = "WAIT"
	KindNotify    Kind = "NOTIFY"
	KindNotifyAll Kind = "NOTIFYALL"
)

// kindCodes maps the numeric type codes emitted by the tracer to kinds.
// Index 0 is unused; codes start at 1.
var kindCodes = [...]Kind{
	"",
	KindCreate,
	KindStart,
	KindEnd,
	KindJoin,
	KindLog,
	KindRead,
	KindWrite,
	KindSend,
	KindReceive,
	KindClose,
	KindConnect,
	KindAccept,
	KindShutdown,
	KindHandlerBegin,
	KindHandlerEnd,
	KindLock,
	KindUnlock,
	KindWait,
	KindNotify,
	KindNotifyAll,
}

// AllKinds returns every supported kind in numeric code order.
func AllKinds() []Kind {
	kinds := make([]Kind, 0, len(kindCodes)-1)
	kinds = append(kinds, kindCodes[1:]...)
	return kinds
}

// ParseKind resolves a record's type field.
//
// Accepts the kind name ("SND") or its numeric tracer code ("8", "08").
// Returns an error for anything else; callers report it as an unsupported kind.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty event type")
	}

	if s[0] >= '0' && s[0] <= '9' {
		code, err := strconv.Atoi(s)
		if err != nil || code < 1 || code >= len(kindCodes) {
			return "", fmt.Errorf("unknown event type code %q", s)
		}
		return kindCodes[code], nil
	}

	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	for _, known := range kindCodes[1:] {
		if k == known {
			return true
		}
	}
	return false
}

// Code returns the numeric tracer code for k, or 0 if k is unknown.
func (k Kind) Code() int {
	for i, known := range kindCodes {
		if i > 0 && k == known {
			return i
		}
	}
	return 0
}

// IsOpener reports whether later events may name an event of this kind as
// their dependency: connection setup, message send, thread creation and
// thread termination.
func (k Kind) IsOpener() bool {
	switch k {
	case KindConnect, KindSend, KindCreate, KindEnd:
		return true
	}
	return false
}

// IsBookend reports whether k only marks the beginning or end of a thread.
func (k Kind) IsBookend() bool {
	return k == KindStart || k == KindEnd
}

func (k Kind) String() string {
	return string(k)
}
