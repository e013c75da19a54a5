package workflow

import "context"

// Retriever is the narrow contract for the external order/policy lookup
// collaborator. Implementations must return complete outputs or a
// distinguishable error, never partial data. Transient-failure handling
// (retry, backoff) belongs to the implementation, not to this core.
type Retriever interface {
	Retrieve(ctx context.Context, userID, orderID, query string) (RetrievalOutputs, error)
}

// retrieveStep wraps the Retriever collaborator as a workflow node. It runs
// only after identity verification and populates the retrieved data on the
// state.
type retrieveStep struct {
	retriever Retriever
}

// Run implements Node.
func (n *retrieveStep) Run(ctx context.Context, s State) (State, error) {
	if n.retriever == nil {
		// No collaborator wired: the draft step falls back to an empty
		// default, so retrieval is skipped rather than failed.
		s.Status = StatusDataRetrieved
		return s, nil
	}

	out, err := n.retriever.Retrieve(ctx, s.UserID, s.OrderID, s.UserInput)
	if err != nil {
		return s, &NodeError{Node: nodeRetrieve, Cause: err}
	}

	s.Retrieved = &out
	s.Status = StatusDataRetrieved
	return s, nil
}
