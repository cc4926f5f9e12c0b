package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one already-parsed trace record.
//
// The raw object is kept whole so that fields the engine does not project
// survive storage and golden snapshots. Accessors read the well-known keys:
// id, type, thread, dependency (or dependencyId), dependencies and order
// (or clock).
type Record struct {
	Raw IRObject
}

// NewRecord wraps a raw object.
func NewRecord(raw IRObject) Record {
	if raw == nil {
		raw = IRObject{}
	}
	return Record{Raw: raw}
}

// RecordFromGo converts a decoded map (msgpack, YAML) into a Record.
func RecordFromGo(v any) (Record, error) {
	val, err := FromGo(v)
	if err != nil {
		return Record{}, err
	}
	obj, ok := val.(IRObject)
	if !ok {
		return Record{}, fmt.Errorf("record must be an object, got %T", v)
	}
	return NewRecord(obj), nil
}

// ID returns the record id. Integer ids are rendered in base 10.
func (r Record) ID() (string, bool) {
	id, ok := r.Raw.String("id")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Type returns the raw type field, name or numeric code.
func (r Record) Type() string {
	t, _ := r.Raw.String("type")
	return t
}

// Thread returns the composite thread identifier.
func (r Record) Thread() string {
	t, _ := r.Raw.String("thread")
	return t
}

// Dependency returns the primary dependency id. The "dependencyId" key is
// accepted as an alias; when both keys carry an id they must agree. Null and
// empty values mean none. A value that is neither a string nor an integer is
// an error.
func (r Record) Dependency() (string, bool, error) {
	dep, ok, err := dependencyRef(r.Raw, "dependency")
	if err != nil {
		return "", false, err
	}
	alias, aliasOK, err := dependencyRef(r.Raw, "dependencyId")
	if err != nil {
		return "", false, err
	}
	switch {
	case ok && aliasOK && dep != alias:
		return "", false, fmt.Errorf("dependency %q and dependencyId %q disagree", dep, alias)
	case ok:
		return dep, true, nil
	case aliasOK:
		return alias, true, nil
	}
	return "", false, nil
}

func dependencyRef(raw IRObject, key string) (string, bool, error) {
	switch v := raw[key].(type) {
	case nil, IRNull:
		return "", false, nil
	case IRString:
		if strings.TrimSpace(string(v)) == "" {
			return "", false, nil
		}
		return string(v), true, nil
	case IRInt:
		return strconv.FormatInt(int64(v), 10), true, nil
	default:
		return "", false, fmt.Errorf("%s: expected string or integer, got %T", key, v)
	}
}

// Dependencies returns the additional dependency ids, in record order.
// Null and empty entries are skipped.
func (r Record) Dependencies() ([]string, error) {
	v, ok := r.Raw["dependencies"]
	if !ok {
		return nil, nil
	}
	switch deps := v.(type) {
	case IRNull:
		return nil, nil
	case IRArray:
		out := make([]string, 0, len(deps))
		for i, d := range deps {
			switch dv := d.(type) {
			case IRNull:
				continue
			case IRString:
				if strings.TrimSpace(string(dv)) == "" {
					continue
				}
				out = append(out, string(dv))
			case IRInt:
				out = append(out, fmt.Sprint(int64(dv)))
			default:
				return nil, fmt.Errorf("dependencies[%d]: expected string or integer, got %T", i, d)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("dependencies: expected array, got %T", v)
	}
}

// Order returns the externally supplied total-order index. The "clock" key
// is accepted as an alias; when both are present they must agree. A present
// value that is not an integer (or a base-10 integer string) is an error.
func (r Record) Order() (int64, bool, error) {
	n, ok, err := orderValue(r.Raw, "order")
	if err != nil {
		return 0, false, err
	}
	alias, aliasOK, err := orderValue(r.Raw, "clock")
	if err != nil {
		return 0, false, err
	}
	switch {
	case ok && aliasOK && n != alias:
		return 0, false, fmt.Errorf("order %d and clock %d disagree", n, alias)
	case ok:
		return n, true, nil
	case aliasOK:
		return alias, true, nil
	}
	return 0, false, nil
}

func orderValue(raw IRObject, key string) (int64, bool, error) {
	switch v := raw[key].(type) {
	case nil, IRNull:
		return 0, false, nil
	case IRInt:
		return int64(v), true, nil
	case IRString:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %q is not an integer", key, string(v))
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s: expected integer, got %T", key, v)
	}
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return r.Raw.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	return r.Raw.UnmarshalJSON(data)
}
