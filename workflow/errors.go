package workflow

import "errors"

// ErrNotPaused is returned by Resume when the supplied run is not suspended
// at the human review gate.
var ErrNotPaused = errors.New("run is not paused awaiting a human decision")

// ErrRunNotFound is returned when a run ID has no persisted state.
var ErrRunNotFound = errors.New("run not found")

// ValidationError reports input or state that violates the workflow schema.
// The workflow does not proceed past the failing check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "invalid " + e.Field + ": " + e.Message
	}
	return e.Message
}

// ConfigError reports missing or malformed operator configuration, such as
// unset fraud thresholds. It is a hard error to the operator: defaulting a
// threshold to zero would flag every user, defaulting it to infinity would
// disable the check.
//
// The one deliberate exception is the trusted identity reference, whose
// absence fails closed at the identity gate instead of raising.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Setting != "" {
		return "configuration error: " + e.Setting + ": " + e.Message
	}
	return "configuration error: " + e.Message
}

// NodeError wraps an error produced while executing a named workflow step.
type NodeError struct {
	Node  string
	Cause error
}

func (e *NodeError) Error() string {
	return "node " + e.Node + ": " + e.Cause.Error()
}

func (e *NodeError) Unwrap() error { return e.Cause }
