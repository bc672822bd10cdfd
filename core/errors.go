package core

import "fmt"

// ValidationError reports a malformed event or a reference to an entity that
// is not registered. Ingestion of the offending event is all-or-nothing: no
// partial writes happened when this error is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid event: " + e.Reason }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CapacityError reports that eviction could not bring a local store to its
// configured capacity (e.g. a capacity of zero). This indicates
// misconfiguration and is surfaced to the caller rather than recovered.
type CapacityError struct {
	EntityID string
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("local memory of %q cannot satisfy capacity %d", e.EntityID, e.Capacity)
}

// TransportError wraps a failed summarization call. It is never fatal: the
// batch stays untouched and summarization is retried on the next eligible
// tick.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "summarization transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// StaleDigestError reports that a digest arrived for source records that were
// evicted, mutated or already summarized since the request was issued. The
// digest is discarded; no partial application occurs.
type StaleDigestError struct {
	RecordID string
}

func (e *StaleDigestError) Error() string {
	return fmt.Sprintf("digest is stale: source record %q mutated or gone", e.RecordID)
}
