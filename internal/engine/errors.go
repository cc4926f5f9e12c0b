package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/hindsight/internal/ir"
)

// ReconstructError reports the record that stopped a reconstruction.
//
// Every failure is fatal: the engine stops at the first failing record and
// returns no partial result.
type ReconstructError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RecordID is the id of the failing record (assigned id if absent).
	RecordID string

	// Index is the position of the failing record in the input.
	Index int

	// Kind is the record's kind when it could be classified.
	Kind ir.Kind

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes reconstruction errors.
type ErrorCode string

const (
	// ErrCodeUnresolvedDependency indicates a dependency id that no earlier
	// opener registered.
	ErrCodeUnresolvedDependency ErrorCode = "UNRESOLVED_DEPENDENCY"

	// ErrCodeUnsupportedEventKind indicates a type with no field projection.
	ErrCodeUnsupportedEventKind ErrorCode = "UNSUPPORTED_EVENT_KIND"

	// ErrCodeInvariantViolation indicates a clock that would move backward,
	// a clock without owner, or otherwise malformed input.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Error implements the error interface.
func (e *ReconstructError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s: %s (record=%s, index=%d)", e.Code, e.Message, e.RecordID, e.Index)
	}
	return fmt.Sprintf("%s: %s (index=%d)", e.Code, e.Message, e.Index)
}

// Unwrap returns the underlying cause.
func (e *ReconstructError) Unwrap() error {
	return e.Err
}

// ErrorCodeOf returns the code of a ReconstructError in err's chain, or "".
func ErrorCodeOf(err error) ErrorCode {
	var re *ReconstructError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsUnresolvedDependency returns true if err is an unresolved dependency error.
// Uses errors.As to handle wrapped errors.
func IsUnresolvedDependency(err error) bool {
	return ErrorCodeOf(err) == ErrCodeUnresolvedDependency
}

// IsUnsupportedEventKind returns true if err is an unsupported kind error.
func IsUnsupportedEventKind(err error) bool {
	return ErrorCodeOf(err) == ErrCodeUnsupportedEventKind
}

// IsInvariantViolation returns true if err is an invariant violation, either
// reported by the engine or by a vector clock operation.
func IsInvariantViolation(err error) bool {
	return ErrorCodeOf(err) == ErrCodeInvariantViolation || errors.Is(err, ir.ErrInvariantViolation)
}

func newUnresolvedDependency(ev ir.Event, dep string) *ReconstructError {
	return &ReconstructError{
		Code:     ErrCodeUnresolvedDependency,
		Message:  fmt.Sprintf("dependency %q does not match any earlier event", dep),
		RecordID: ev.ID,
		Index:    ev.Index,
		Kind:     ev.Kind,
	}
}

func newUnsupportedKind(index int, id, raw string, cause error) *ReconstructError {
	return &ReconstructError{
		Code:     ErrCodeUnsupportedEventKind,
		Message:  fmt.Sprintf("no field projection for event type %q", raw),
		RecordID: id,
		Index:    index,
		Err:      cause,
	}
}

func newInvariantViolation(index int, id string, kind ir.Kind, cause error) *ReconstructError {
	return &ReconstructError{
		Code:     ErrCodeInvariantViolation,
		Message:  cause.Error(),
		RecordID: id,
		Index:    index,
		Kind:     kind,
		Err:      cause,
	}
}
