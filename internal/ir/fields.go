package ir

import (
	"encoding/json"
	"fmt"
)

// Fields is the kind-specific projection of a record.
// Sealed: one variant per projector family.
type Fields interface {
	isFields()
	// Time returns the tracer timestamp carried by every variant.
	Time() int64
}

// LifecycleFields is the projection of START and END.
type LifecycleFields struct {
	Timestamp int64 `json:"timestamp"`
}

// ThreadFields is the projection of CREATE and JOIN.
type ThreadFields struct {
	Timestamp int64  `json:"timestamp"`
	Child     string `json:"child,omitempty"`
}

// SocketFields is the projection of CONNECT, ACCEPT, CLOSE and SHUTDOWN.
type SocketFields struct {
	Timestamp  int64  `json:"timestamp"`
	Socket     string `json:"socket,omitempty"`
	SocketType string `json:"socket_type,omitempty"`
	Src        string `json:"src,omitempty"`
	SrcPort    int64  `json:"src_port,omitempty"`
	Dst        string `json:"dst,omitempty"`
	DstPort    int64  `json:"dst_port,omitempty"`
}

// StreamFields is the projection of SND and RCV: socket endpoints plus payload.
type StreamFields struct {
	SocketFields
	Message string `json:"message,omitempty"`
	Size    int64  `json:"size,omitempty"`
}

// HandlerFields is the projection of HANDLERBEGIN and HANDLEREND.
type HandlerFields struct {
	Timestamp int64 `json:"timestamp"`
}

// VariableFields is the projection of R, W, LOCK, UNLOCK, WAIT, NOTIFY and NOTIFYALL.
type VariableFields struct {
	Timestamp int64  `json:"timestamp"`
	Variable  string `json:"variable,omitempty"`
	Loc       string `json:"loc,omitempty"`
}

// LogFields is the projection of LOG.
type LogFields struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

func (LifecycleFields) isFields() {}
func (ThreadFields) isFields()    {}
func (SocketFields) isFields()    {}
func (StreamFields) isFields()    {}
func (HandlerFields) isFields()   {}
func (VariableFields) isFields()  {}
func (LogFields) isFields()       {}

func (f LifecycleFields) Time() int64 { return f.Timestamp }
func (f ThreadFields) Time() int64    { return f.Timestamp }
func (f SocketFields) Time() int64    { return f.Timestamp }
func (f HandlerFields) Time() int64   { return f.Timestamp }
func (f VariableFields) Time() int64  { return f.Timestamp }
func (f LogFields) Time() int64       { return f.Timestamp }

// DecodeFields restores the variant for kind from its JSON encoding.
func DecodeFields(kind Kind, data []byte) (Fields, error) {
	var (
		f   Fields
		err error
	)
	switch kind {
	case KindStart, KindEnd:
		var v LifecycleFields
		err = json.Unmarshal(data, &v)
		f = v
	case KindCreate, KindJoin:
		var v ThreadFields
		err = json.Unmarshal(data, &v)
		f = v
	case KindConnect, KindAccept, KindClose, KindShutdown:
		var v SocketFields
		err = json.Unmarshal(data, &v)
		f = v
	case KindSend, KindReceive:
		var v StreamFields
		err = json.Unmarshal(data, &v)
		f = v
	case KindHandlerBegin, KindHandlerEnd:
		var v HandlerFields
		err = json.Unmarshal(data, &v)
		f = v
	case KindRead, KindWrite, KindLock, KindUnlock, KindWait, KindNotify, KindNotifyAll:
		var v VariableFields
		err = json.Unmarshal(data, &v)
		f = v
	case KindLog:
		var v LogFields
		err = json.Unmarshal(data, &v)
		f = v
	default:
		return nil, fmt.Errorf("no fields for event type %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s fields: %w", kind, err)
	}
	return f, nil
}
