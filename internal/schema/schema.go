// Package schema validates raw trace records against the record schema
// (record.cue) before reconstruction.
//
// Validation is stricter than the engine: the engine only needs id, type,
// thread and dependencies, while the schema also requires the fields a
// kind's projection reads (socket for socket kinds, child for thread kinds,
// variable for variable kinds).
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/hindsight/internal/ir"
)

//go:embed record.cue
var recordSchema string

// Violation is one schema error in one record.
type Violation struct {
	Index    int    `json:"index"`
	RecordID string `json:"record_id,omitempty"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	ref := fmt.Sprintf("record %d", v.Index)
	if v.RecordID != "" {
		ref = fmt.Sprintf("record %d (id=%s)", v.Index, v.RecordID)
	}
	if v.Path != "" {
		return fmt.Sprintf("%s: %s: %s", ref, v.Path, v.Message)
	}
	return fmt.Sprintf("%s: %s", ref, v.Message)
}

// Validator checks records against #Record.
// Not safe for concurrent use: a cue.Context is single-goroutine.
type Validator struct {
	ctx    *cue.Context
	record cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(recordSchema, cue.Filename("record.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}

	def := v.LookupPath(cue.ParsePath("#Record"))
	if !def.Exists() {
		return nil, fmt.Errorf("record schema has no #Record definition")
	}
	return &Validator{ctx: ctx, record: def}, nil
}

// Validate checks every record and returns all violations in input order.
func (v *Validator) Validate(records []ir.Record) []Violation {
	var out []Violation
	for i, rec := range records {
		out = append(out, v.ValidateRecord(i, rec)...)
	}
	return out
}

// ValidateRecord checks the record at position index.
func (v *Validator) ValidateRecord(index int, rec ir.Record) []Violation {
	id, _ := rec.ID()

	val := v.ctx.Encode(ir.ToGo(normalize(rec.Raw)))
	if err := val.Err(); err != nil {
		return []Violation{{Index: index, RecordID: id, Message: err.Error()}}
	}

	err := v.record.Unify(val).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var out []Violation
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, Violation{
			Index:    index,
			RecordID: id,
			Path:     strings.Join(e.Path(), "."),
			Message:  fmt.Sprintf(format, args...),
		})
	}
	return out
}

// normalize replaces numeric type codes by kind names so that the schema
// only has to enumerate names. Unknown types are left for the schema to reject.
func normalize(raw ir.IRObject) ir.IRObject {
	t, ok := raw.String("type")
	if !ok {
		return raw
	}
	kind, err := ir.ParseKind(t)
	if err != nil || string(kind) == t {
		return raw
	}

	out := make(ir.IRObject, len(raw))
	for k, val := range raw {
		out[k] = val
	}
	out["type"] = ir.IRString(kind)
	return out
}
