package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/hindsight/internal/ir"
)

// marshalVectorClock converts a clock's components to canonical JSON TEXT.
// The owner is stored separately in the thread column.
func marshalVectorClock(vc ir.VectorClock) (string, error) {
	data, err := ir.MarshalCanonical(vc.Map())
	if err != nil {
		return "", fmt.Errorf("marshal vector clock: %w", err)
	}
	return string(data), nil
}

// marshalDependencies converts dependency ids to canonical JSON TEXT.
func marshalDependencies(deps []string) (string, error) {
	if deps == nil {
		deps = []string{}
	}
	data, err := ir.MarshalCanonical(deps)
	if err != nil {
		return "", fmt.Errorf("marshal dependencies: %w", err)
	}
	return string(data), nil
}

// marshalFields converts a field projection to JSON TEXT.
// Uses json.Encoder with HTML escaping disabled so payloads are stored verbatim.
func marshalFields(f ir.Fields) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalVectorClock parses a stored clock owned by thread.
func unmarshalVectorClock(thread, data string) (ir.VectorClock, error) {
	var components map[string]int64
	if err := json.Unmarshal([]byte(data), &components); err != nil {
		return ir.VectorClock{}, fmt.Errorf("unmarshal vector clock: %w", err)
	}
	vc, err := ir.VectorClockFromMap(thread, components)
	if err != nil {
		return ir.VectorClock{}, fmt.Errorf("unmarshal vector clock: %w", err)
	}
	return vc, nil
}

// unmarshalDependencies parses stored dependency ids. Empty means none.
func unmarshalDependencies(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var deps []string
	if err := json.Unmarshal([]byte(data), &deps); err != nil {
		return nil, fmt.Errorf("unmarshal dependencies: %w", err)
	}
	return deps, nil
}
