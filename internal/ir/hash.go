package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTrace prefixes trace content hashes.
// Version suffix enables future algorithm migration.
const DomainTrace = "hindsight/trace/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TraceID computes the content-addressed ID of an ordered record sequence.
// Two ingestions of the same records (in the same order) share an ID, which
// is what makes store writes idempotent.
func TraceID(records []Record) (string, error) {
	arr := make(IRArray, len(records))
	for i, rec := range records {
		arr[i] = rec.Raw
	}

	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("TraceID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainTrace, canonical), nil
}

// MustTraceID is like TraceID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTraceID(records []Record) string {
	id, err := TraceID(records)
	if err != nil {
		panic(err)
	}
	return id
}
