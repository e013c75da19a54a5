package workflow

import (
	"github.com/AICogEngineer/supportgate/workflow/emit"
	"github.com/AICogEngineer/supportgate/workflow/store"
)

// Option configures an Executor.
//
// Example:
//
//	exec, err := workflow.NewExecutor(trusted, thresholds,
//	    workflow.WithRetriever(retriever),
//	    workflow.WithStore(store.NewSQLiteStore[workflow.State]("./runs.db")),
//	    workflow.WithEmitter(emit.NewLogEmitter(os.Stdout, true)),
//	)
type Option func(*Executor) error

// WithStore sets the snapshot store. Defaults to an in-memory store when
// not provided; the caller supplies a durable store when paused runs must
// survive the process.
func WithStore(st store.Store[State]) Option {
	return func(x *Executor) error {
		if st == nil {
			return &ConfigError{Setting: "store", Message: "must not be nil"}
		}
		x.store = st
		return nil
	}
}

// WithEmitter sets the audit event emitter. Defaults to a NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(x *Executor) error {
		if e == nil {
			return &ConfigError{Setting: "emitter", Message: "must not be nil"}
		}
		x.emitter = e
		return nil
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(x *Executor) error {
		x.metrics = m
		return nil
	}
}

// WithRetriever wires the external data retrieval collaborator. Without
// one, the retrieval step is skipped and the draft falls back to an empty
// default.
func WithRetriever(r Retriever) Option {
	return func(x *Executor) error {
		x.retriever = r
		return nil
	}
}

// WithMaxSteps bounds the number of node executions per invocation. The
// fixed topology needs at most a handful of steps, so the default of 16 is
// purely a guard against routing bugs.
func WithMaxSteps(n int) Option {
	return func(x *Executor) error {
		if n <= 0 {
			return &ConfigError{Setting: "max_steps", Message: "must be positive"}
		}
		x.maxSteps = n
		return nil
	}
}
