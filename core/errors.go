package core

import "fmt"

// FailureKind categorizes recoverable tool failures. Failures of these kinds
// travel through the control loop as data (stored in StepResults), never as
// raised errors across the agent boundaries.
type FailureKind string

const (
	// FailureTimeout indicates the tool invocation exceeded its deadline or
	// was cancelled mid-flight.
	FailureTimeout FailureKind = "timeout"
	// FailureInvalidInput indicates the tool rejected its arguments.
	FailureInvalidInput FailureKind = "invalid_input"
	// FailureUpstream indicates the tool's backing service failed.
	FailureUpstream FailureKind = "upstream_failure"
)

// Failure is the error record stored for a failed step. It implements error
// for convenience but is routed back into the loop as a value, not raised.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// StructuralError indicates a control-loop contract violation: a step
// dispatched out of sequence, a step bound to an unregistered tool, or a
// corrupt step pointer. Structural errors signal a bug in the loop itself and
// are the only error class permitted to abort turn processing outright.
type StructuralError struct {
	Reason string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return "structural violation: " + e.Reason
}

// NewStructuralError builds a StructuralError from a format string.
func NewStructuralError(format string, args ...any) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}
