package customer

import (
	"errors"
	"fmt"
)

// ViolationKind classifies a field-level validation failure.
type ViolationKind string

const (
	ViolationMissing   ViolationKind = "missing"
	ViolationBadFormat ViolationKind = "bad_format"
)

// ValidationResult maps each offending field to its violation. An empty
// result means the submission is well-formed.
type ValidationResult map[Field]ViolationKind

// OK reports whether there are no violations.
func (r ValidationResult) OK() bool {
	return len(r) == 0
}

// Message returns the operator-facing text for a violation kind.
func (k ViolationKind) Message() string {
	switch k {
	case ViolationMissing:
		return "Required field"
	case ViolationBadFormat:
		return "This doesn't appear to be a valid value"
	default:
		return "Invalid value"
	}
}

// FieldMessage returns the operator-facing text for a violation on f.
func FieldMessage(f Field, k ViolationKind) string {
	if f == FieldEmail && k == ViolationBadFormat {
		return "This doesn't appear to be a valid email address"
	}
	return k.Message()
}

// ErrRequestFailed is wrapped by every RequestError.
var ErrRequestFailed = errors.New("customer: backend request failed")

// RequestError describes a failed backend call. Message carries the
// backend-provided text and may be empty. StatusCode is 0 when no response
// was received.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
}

// Unwrap exposes the transport error, if any.
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

// UserMessage returns the text to show the operator: the backend message
// when one was sent, otherwise a generic description of the failure.
func (e *RequestError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	// A transport or decoding failure has no meaningful status to report.
	if e.Err != nil && (e.StatusCode == 0 || e.StatusCode/100 == 2) {
		return "Request failed: " + e.Err.Error()
	}
	return fmt.Sprintf("Request failed (HTTP %d)", e.StatusCode)
}
