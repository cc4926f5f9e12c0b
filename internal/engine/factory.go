package engine

import (
	"errors"
	"strconv"

	"github.com/roach88/hindsight/internal/ir"
)

// Project returns the kind-specific field set of rec.
//
// Pure lookup-and-project: never touches clocks or the graph. A kind with no
// projection is an UNSUPPORTED_EVENT_KIND error, never a default.
func Project(kind ir.Kind, rec ir.Record) (ir.Fields, error) {
	raw := rec.Raw
	ts, _ := raw.Int("timestamp")

	switch kind {
	case ir.KindStart, ir.KindEnd:
		return ir.LifecycleFields{Timestamp: ts}, nil
	case ir.KindCreate, ir.KindJoin:
		return ir.ThreadFields{Timestamp: ts, Child: str(raw, "child")}, nil
	case ir.KindConnect, ir.KindAccept, ir.KindClose, ir.KindShutdown:
		return socketFields(raw, ts), nil
	case ir.KindSend, ir.KindReceive:
		size, _ := raw.Int("size")
		return ir.StreamFields{
			SocketFields: socketFields(raw, ts),
			Message:      str(raw, "message"),
			Size:         size,
		}, nil
	case ir.KindHandlerBegin, ir.KindHandlerEnd:
		return ir.HandlerFields{Timestamp: ts}, nil
	case ir.KindRead, ir.KindWrite, ir.KindLock, ir.KindUnlock, ir.KindWait, ir.KindNotify, ir.KindNotifyAll:
		return ir.VariableFields{Timestamp: ts, Variable: str(raw, "variable"), Loc: str(raw, "loc")}, nil
	case ir.KindLog:
		return ir.LogFields{Timestamp: ts, Message: logMessage(raw)}, nil
	}

	id, _ := rec.ID()
	return nil, newUnsupportedKind(-1, id, string(kind), nil)
}

func socketFields(raw ir.IRObject, ts int64) ir.SocketFields {
	srcPort, _ := raw.Int("src_port")
	dstPort, _ := raw.Int("dst_port")
	return ir.SocketFields{
		Timestamp:  ts,
		Socket:     str(raw, "socket"),
		SocketType: str(raw, "socket_type"),
		Src:        str(raw, "src"),
		SrcPort:    srcPort,
		Dst:        str(raw, "dst"),
		DstPort:    dstPort,
	}
}

// logMessage reads "message", falling back to "data.message" as emitted by
// the logger integration.
func logMessage(raw ir.IRObject) string {
	if msg, ok := raw.String("message"); ok {
		return msg
	}
	if data, ok := raw.Object("data"); ok {
		return str(data, "message")
	}
	return ""
}

func str(obj ir.IRObject, key string) string {
	s, _ := obj.String(key)
	return s
}

// BuildEvent classifies and projects the record at position index.
//
// The returned event carries identity, kind, thread, dependency references and
// fields. Clock and VectorTimestamp are left for the resolver. A record
// without id is identified by its index.
func BuildEvent(index int, rec ir.Record) (ir.Event, error) {
	id, ok := rec.ID()
	if !ok {
		id = strconv.Itoa(index)
	}

	kind, err := ir.ParseKind(rec.Type())
	if err != nil {
		return ir.Event{}, newUnsupportedKind(index, id, rec.Type(), err)
	}

	fields, err := Project(kind, rec)
	if err != nil {
		var re *ReconstructError
		if errors.As(err, &re) {
			re.Index = index
			re.RecordID = id
		}
		return ir.Event{}, err
	}

	deps, err := rec.Dependencies()
	if err != nil {
		return ir.Event{}, newInvariantViolation(index, id, kind, err)
	}
	dep, _, err := rec.Dependency()
	if err != nil {
		return ir.Event{}, newInvariantViolation(index, id, kind, err)
	}

	return ir.Event{
		ID:           id,
		Kind:         kind,
		Thread:       ir.ThreadOf(rec),
		Dependency:   dep,
		Dependencies: deps,
		Fields:       fields,
		Index:        index,
	}, nil
}
