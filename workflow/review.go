package workflow

import "context"

// HumanReviewGate is the suspension point for human-in-the-loop gating. It
// models a pause/resume boundary, not a blocking call: when no decision has
// been supplied the gate leaves the state awaiting review and the executor
// returns control to the caller. Absence of a decision is the expected
// steady state while a human has not yet responded, never an error.
//
// Resume behavior by decision type:
//
//	approve          -> HUMAN_APPROVED, review requirement cleared
//	edit             -> HUMAN_APPROVED, review requirement cleared; the
//	                    edits stay recorded on the state for the draft step
//	reject           -> HUMAN_REJECTED; the review requirement stays set,
//	                    marking a halted, unresolved state for audit
//	needs_more_info  -> remains HUMAN_REVIEW_REQUIRED; the stale decision
//	                    is cleared so the next resume carries a fresh one
//
// The gate never guesses a decision.
type HumanReviewGate struct{}

// NewHumanReviewGate builds the gate.
func NewHumanReviewGate() *HumanReviewGate { return &HumanReviewGate{} }

// Run implements Node.
func (g *HumanReviewGate) Run(_ context.Context, s State) (State, error) {
	// Entry: idempotent if the risk scorer already set these.
	s.Status = StatusHumanReviewRequired
	s.RequiresHumanReview = true

	if s.HumanDecision == nil {
		// Pause. The executor suspends the run here.
		s.mirrorFraud()
		return s, nil
	}

	switch s.HumanDecision.Type {
	case DecisionApprove, DecisionEdit:
		s.Status = StatusHumanApproved
		s.RequiresHumanReview = false
	case DecisionReject:
		s.Status = StatusHumanRejected
	case DecisionNeedsMoreInfo:
		s.HumanDecision = nil
	default:
		return s, &ValidationError{Field: "human_decision.type", Message: "unknown decision " + string(s.HumanDecision.Type)}
	}

	s.mirrorFraud()
	return s, nil
}
