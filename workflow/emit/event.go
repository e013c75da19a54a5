package emit

// Event is one observability record from a workflow run. The sequence of
// events for a run is its audit trail: run start, each gate completion with
// the resulting status and route, pauses awaiting human decisions, resumes,
// and the terminal outcome.
type Event struct {
	// RunID identifies the workflow run that emitted this event.
	RunID string `json:"run_id"`

	// Step is the sequential step number within the run (1-indexed).
	// Zero for run-level events.
	Step int `json:"step"`

	// Node identifies the workflow step that emitted this event. Empty
	// for run-level events.
	Node string `json:"node"`

	// Msg names the event: "run_start", "node_complete", "run_paused",
	// "run_resumed", "run_complete", "node_error".
	Msg string `json:"msg"`

	// Meta carries structured detail. Common keys: "status", "route",
	// "outcome", "error".
	Meta map[string]any `json:"meta,omitempty"`
}
