// Package emit provides audit/observability event emission for workflow
// runs. Every node completion, pause, resume, and terminal outcome is
// emitted as an Event; emitters deliver them to a backend.
package emit

// Emitter receives observability events from workflow execution.
//
// Implementations should be non-blocking, safe for concurrent use, and
// resilient: a failing backend must never fail the run. Emit should not
// panic; delivery errors are handled internally.
type Emitter interface {
	Emit(event Event)
}

// Multi fans an event out to several emitters in order.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(event Event) {
	for _, e := range m {
		e.Emit(event)
	}
}
