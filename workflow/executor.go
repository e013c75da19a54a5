package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AICogEngineer/supportgate/workflow/emit"
	"github.com/AICogEngineer/supportgate/workflow/store"
)

// ErrMaxStepsExceeded indicates an invocation exceeded its step bound.
// With the fixed topology this can only happen through a routing bug.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// Node identifiers, which double as audit labels in events and metrics.
const (
	nodeIdentity = "verify_identity"
	nodeRetrieve = "retrieve_data"
	nodeRedFlags = "red_flag_check"
	nodeRisk     = "risk_scoring"
	nodeReview   = "human_review"
	nodeDraft    = "draft_response"
)

// successor is the fixed "continue" ordering of the workflow. The review
// gate is absent: it is only ever reached through the human_review routing
// key, and an approval routes straight to the draft step.
var successor = map[string]string{
	nodeIdentity: nodeRetrieve,
	nodeRetrieve: nodeRedFlags,
	nodeRedFlags: nodeRisk,
	nodeRisk:     nodeDraft,
	nodeDraft:    "",
}

// Run is the serializable handle for one workflow invocation. A paused Run
// carries the snapshot the caller persists until a human decision arrives;
// Resume accepts it back, so the suspension boundary is part of the public
// contract rather than an implementation accident.
type Run struct {
	// ID uniquely identifies the run across pause/resume invocations.
	ID string `json:"id"`

	// State is the full workflow state snapshot, final or paused.
	State State `json:"state"`

	// Paused reports that the run is suspended at the human review gate
	// awaiting a decision. A paused run is a valid non-error outcome.
	Paused bool `json:"paused"`
}

// Executor drives the gate nodes in dependency order, consulting the
// Router after every node, and detects terminal and paused states.
//
// Execution is single-threaded and synchronous: one State is processed to
// completion or to a pause point with no parallel node execution.
// Concurrent runs are independent because each owns its State value.
type Executor struct {
	nodes     map[string]Node
	retriever Retriever
	store     store.Store[State]
	emitter   emit.Emitter
	metrics   *Metrics
	maxSteps  int
}

// NewExecutor builds an Executor for the support-action workflow.
//
// trusted is the identity reference sessions are verified against; nil is
// legal and fails closed at the identity gate. thresholds configure the
// red-flag detector and must be present: missing fraud policy is a hard
// configuration error.
func NewExecutor(trusted *TrustedIdentity, thresholds *Thresholds, opts ...Option) (*Executor, error) {
	detector, err := NewRedFlagDetector(thresholds)
	if err != nil {
		return nil, err
	}

	x := &Executor{
		store:    store.NewMemStore[State](),
		emitter:  emit.NewNullEmitter(),
		maxSteps: 16,
	}
	for _, opt := range opts {
		if err := opt(x); err != nil {
			return nil, err
		}
	}

	x.nodes = map[string]Node{
		nodeIdentity: NewIdentityGate(trusted),
		nodeRetrieve: &retrieveStep{retriever: x.retriever},
		nodeRedFlags: detector,
		nodeRisk:     NewRiskScorer(),
		nodeReview:   NewHumanReviewGate(),
		nodeDraft:    NewDrafter(),
	}
	return x, nil
}

// Start validates the input, builds the initial state, and executes the
// workflow until a terminal status or a pause. The returned Run is a
// complete, inspectable snapshot either way; a blocked or rejected run
// never carries a draft.
func (x *Executor) Start(ctx context.Context, userInput string, session SessionContext) (Run, error) {
	state, err := NewState(userInput, session)
	if err != nil {
		return Run{}, err
	}

	runID := uuid.NewString()
	x.emitter.Emit(emit.Event{RunID: runID, Msg: "run_start"})

	return x.loop(ctx, runID, state, nodeIdentity)
}

// Resume continues a paused run with the supplied human decision. The run
// re-enters at the review gate and the Router is re-evaluated after it, so
// identity and fraud checks are not re-triggered. The caller may pass a Run
// reconstructed from a persisted snapshot (see LoadRun).
func (x *Executor) Resume(ctx context.Context, run Run, decision HumanDecision) (Run, error) {
	if !run.Paused || run.State.Status != StatusHumanReviewRequired {
		return Run{}, ErrNotPaused
	}
	if !decision.Type.IsValid() {
		return Run{}, &ValidationError{Field: "human_decision.type", Message: "unknown decision " + string(decision.Type)}
	}

	state := run.State
	if err := state.Validate(); err != nil {
		return Run{}, err
	}
	state.HumanDecision = &decision

	x.metrics.observeResume()
	x.emitter.Emit(emit.Event{
		RunID: run.ID,
		Msg:   "run_resumed",
		Meta:  map[string]any{"decision": string(decision.Type)},
	})

	return x.loop(ctx, run.ID, state, nodeReview)
}

// LoadRun reconstructs a paused Run from the checkpoint the executor saved
// at pause time, keyed by run ID.
func (x *Executor) LoadRun(ctx context.Context, runID string) (Run, error) {
	state, _, err := x.store.LoadCheckpoint(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, err
	}
	return Run{ID: runID, State: state, Paused: state.Status == StatusHumanReviewRequired}, nil
}

// loop executes nodes from current until the Router terminates or pauses
// the run.
func (x *Executor) loop(ctx context.Context, runID string, state State, current string) (Run, error) {
	step := 0
	if _, n, err := x.store.LoadLatest(ctx, runID); err == nil {
		// Resumed invocation: keep the step sequence monotonic.
		step = n
	}

	for {
		step++
		if x.maxSteps > 0 && step > x.maxSteps {
			return Run{ID: runID, State: state}, ErrMaxStepsExceeded
		}

		select {
		case <-ctx.Done():
			return Run{ID: runID, State: state}, ctx.Err()
		default:
		}

		node := x.nodes[current]
		started := time.Now()
		next, err := node.Run(ctx, state)
		x.metrics.observeNode(current, err, time.Since(started))
		if err != nil {
			x.emitter.Emit(emit.Event{
				RunID: runID, Step: step, Node: current, Msg: "node_error",
				Meta: map[string]any{"error": err.Error()},
			})
			x.metrics.observeRun("error")
			return Run{ID: runID, State: state}, err
		}
		state = next

		if err := x.store.SaveStep(ctx, runID, step, current, state); err != nil {
			return Run{ID: runID, State: state}, err
		}

		switch current {
		case nodeRedFlags:
			x.metrics.observeFlags(state.RedFlags)
		case nodeRisk:
			if state.Fraud != nil && state.Fraud.TrustScore != nil {
				x.metrics.observeTrustScore(*state.Fraud.TrustScore)
			}
		}

		key := Route(state)
		x.metrics.observeRoute(key)
		x.emitter.Emit(emit.Event{
			RunID: runID, Step: step, Node: current, Msg: "node_complete",
			Meta: map[string]any{"status": string(state.Status), "route": string(key)},
		})

		switch key {
		case RouteBlocked, RouteRejected:
			return x.finish(runID, step, state, string(key))

		case RouteHumanReview:
			if current == nodeReview && state.HumanDecision == nil {
				return x.pause(ctx, runID, step, state)
			}
			current = nodeReview

		case RouteApproved:
			current = nodeDraft

		case RouteContinue:
			next := successor[current]
			if next == "" {
				return x.finish(runID, step, state, "completed")
			}
			current = next
		}
	}
}

// pause suspends the run awaiting a human decision. The snapshot is
// checkpointed under the run ID so a later process can resume it.
func (x *Executor) pause(ctx context.Context, runID string, step int, state State) (Run, error) {
	if err := x.store.SaveCheckpoint(ctx, runID, state, step); err != nil {
		return Run{ID: runID, State: state}, err
	}
	x.metrics.observePause()
	x.emitter.Emit(emit.Event{
		RunID: runID, Step: step, Node: nodeReview, Msg: "run_paused",
		Meta: map[string]any{"status": string(state.Status)},
	})
	return Run{ID: runID, State: state, Paused: true}, nil
}

func (x *Executor) finish(runID string, step int, state State, outcome string) (Run, error) {
	x.metrics.observeRun(outcome)
	x.emitter.Emit(emit.Event{
		RunID: runID, Step: step, Msg: "run_complete",
		Meta: map[string]any{"outcome": outcome, "status": string(state.Status)},
	})
	return Run{ID: runID, State: state}, nil
}
