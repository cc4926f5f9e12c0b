// Package tracefile loads collected traces into ordered record sequences.
//
// Three encodings are accepted: a JSON array of records, JSON lines (one
// record per line) and msgpack (a stream of maps, or one array of maps).
package tracefile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/hindsight/internal/ir"
)

// Format names a trace encoding.
type Format string

const (
	FormatAuto    Format = ""
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts the Format names; "auto" and "" mean detect.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatJSON, FormatJSONL, FormatMsgpack:
		return f, nil
	case "auto":
		return FormatAuto, nil
	case "ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("unknown trace format %q (expected json, jsonl or msgpack)", s)
}

// FormatFromPath guesses the encoding from a file extension.
// Unknown extensions return FormatAuto.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk":
		return FormatMsgpack
	case ".jsonl", ".ndjson":
		return FormatJSONL
	}
	return FormatAuto
}

// Load reads the trace at path, detecting the encoding from its extension
// or, failing that, its first byte.
func Load(path string) ([]ir.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	records, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode reads records from r in the given format.
func Decode(r io.Reader, format Format) ([]ir.Record, error) {
	br := bufio.NewReader(r)
	if format == FormatAuto {
		detected, err := sniff(br)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	switch format {
	case FormatJSON:
		return decodeJSONArray(br)
	case FormatJSONL:
		return decodeJSONLines(br)
	case FormatMsgpack:
		return decodeMsgpack(br)
	}
	return nil, fmt.Errorf("unknown trace format %q", format)
}

// sniff picks JSON array for '[', JSON lines for '{' and msgpack otherwise.
func sniff(br *bufio.Reader) (Format, error) {
	for {
		b, err := br.Peek(1)
		if errors.Is(err, io.EOF) {
			return FormatJSON, nil
		}
		if err != nil {
			return "", fmt.Errorf("read trace: %w", err)
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.ReadByte(); err != nil {
				return "", err
			}
			continue
		case '[':
			return FormatJSON, nil
		case '{':
			return FormatJSONL, nil
		}
		return FormatMsgpack, nil
	}
}

func decodeJSONArray(r io.Reader) ([]ir.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}

	records := make([]ir.Record, len(raw))
	for i, msg := range raw {
		if err := json.Unmarshal(msg, &records[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

func decodeJSONLines(r io.Reader) ([]ir.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []ir.Record
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec ir.Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return records, nil
}

func decodeMsgpack(r io.Reader) ([]ir.Record, error) {
	dec := msgpack.NewDecoder(r)

	var records []ir.Record
	for item := 0; ; item++ {
		v, err := dec.DecodeInterface()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("msgpack item %d: %w", item, err)
		}

		if arr, ok := v.([]any); ok {
			for i, elem := range arr {
				rec, err := ir.RecordFromGo(elem)
				if err != nil {
					return nil, fmt.Errorf("msgpack item %d, record %d: %w", item, i, err)
				}
				records = append(records, rec)
			}
			continue
		}

		rec, err := ir.RecordFromGo(v)
		if err != nil {
			return nil, fmt.Errorf("msgpack item %d: %w", item, err)
		}
		records = append(records, rec)
	}
}

// EncodeMsgpack writes records as a msgpack stream of maps.
func EncodeMsgpack(w io.Writer, records []ir.Record) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	for i, rec := range records {
		if err := enc.Encode(ir.ToGo(rec.Raw)); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
