package testutil

import (
	"fmt"

	"github.com/roach88/hindsight/internal/ir"
)

// RecordBuilder assembles a raw trace record for tests.
//
//	testutil.Rec("3", "RCV", "t2@p2").Dep("2").Order(4).Build()
type RecordBuilder struct {
	raw ir.IRObject
}

// Rec starts a record with id, type and thread. An empty id is left out so
// the engine assigns one.
func Rec(id, kind, thread string) *RecordBuilder {
	raw := ir.IRObject{
		"type":   ir.IRString(kind),
		"thread": ir.IRString(thread),
	}
	if id != "" {
		raw["id"] = ir.IRString(id)
	}
	return &RecordBuilder{raw: raw}
}

// Dep sets the primary dependency.
func (b *RecordBuilder) Dep(id string) *RecordBuilder {
	b.raw["dependency"] = ir.IRString(id)
	return b
}

// Deps sets the additional dependencies.
func (b *RecordBuilder) Deps(ids ...string) *RecordBuilder {
	arr := make(ir.IRArray, len(ids))
	for i, id := range ids {
		arr[i] = ir.IRString(id)
	}
	b.raw["dependencies"] = arr
	return b
}

// Order sets the recorded total-order index.
func (b *RecordBuilder) Order(n int64) *RecordBuilder {
	b.raw["order"] = ir.IRInt(n)
	return b
}

// Set stores an arbitrary field. Panics if v has no IR representation.
func (b *RecordBuilder) Set(key string, v any) *RecordBuilder {
	val, err := ir.FromGo(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: field %q: %v", key, err))
	}
	b.raw[key] = val
	return b
}

// Build returns the record. The builder must not be reused afterwards.
func (b *RecordBuilder) Build() ir.Record {
	return ir.NewRecord(b.raw)
}

// Records builds every builder in order.
func Records(builders ...*RecordBuilder) []ir.Record {
	out := make([]ir.Record, len(builders))
	for i, b := range builders {
		out[i] = b.Build()
	}
	return out
}

// SendReceive is the canonical two-thread trace: t1 starts and sends,
// t2 receives the send.
func SendReceive() []ir.Record {
	return Records(
		Rec("1", "START", "t1@p1"),
		Rec("2", "SND", "t1@p1"),
		Rec("3", "RCV", "t2@p2").Dep("2"),
	)
}
