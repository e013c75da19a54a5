package workflow

import "context"

// Node is one step of the workflow. A node receives the State by value,
// performs its check or transformation, and returns the updated value.
// Nodes never route; the Router inspects the returned state and the
// executor selects the next step. Nodes perform no external side effects
// beyond the state transformation, which is why no retries exist in this
// core: re-running a node with the same state yields the same result.
type Node interface {
	Run(ctx context.Context, state State) (State, error)
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc func(ctx context.Context, state State) (State, error)

// Run implements Node.
func (f NodeFunc) Run(ctx context.Context, state State) (State, error) {
	return f(ctx, state)
}
