package workflow

import (
	"context"
	"testing"
)

func reviewState(t *testing.T, decision *HumanDecision) State {
	t.Helper()
	s := mustState(t, "refund", SessionContext{RefundCount: 5})
	s.IsVerified = true
	s.Status = StatusHumanReviewRequired
	s.RequiresHumanReview = true
	s.RedFlags = []RiskFlag{FlagRefundVelocity}
	s.HumanDecision = decision
	return s
}

func TestHumanReviewGate(t *testing.T) {
	gate := NewHumanReviewGate()
	ctx := context.Background()

	t.Run("no decision pauses", func(t *testing.T) {
		out, err := gate.Run(ctx, reviewState(t, nil))
		if err != nil {
			t.Fatalf("an absent decision is the expected steady state, not an error: %v", err)
		}
		if out.Status != StatusHumanReviewRequired {
			t.Errorf("status = %s, want HUMAN_REVIEW_REQUIRED", out.Status)
		}
		if !out.RequiresHumanReview {
			t.Error("review requirement must stay set while paused")
		}
	})

	t.Run("approve", func(t *testing.T) {
		out, err := gate.Run(ctx, reviewState(t, &HumanDecision{Type: DecisionApprove}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusHumanApproved {
			t.Errorf("status = %s, want HUMAN_APPROVED", out.Status)
		}
		if out.RequiresHumanReview {
			t.Error("approval must clear the review requirement")
		}
	})

	t.Run("edit counts as approval with recorded edits", func(t *testing.T) {
		d := &HumanDecision{Type: DecisionEdit, Edits: map[string]any{"tone": "formal"}}
		out, err := gate.Run(ctx, reviewState(t, d))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusHumanApproved {
			t.Errorf("status = %s, want HUMAN_APPROVED", out.Status)
		}
		if out.RequiresHumanReview {
			t.Error("edit must clear the review requirement")
		}
		if out.HumanDecision == nil || out.HumanDecision.Edits["tone"] != "formal" {
			t.Error("edits must stay recorded on the state")
		}
	})

	t.Run("reject keeps review flag for audit", func(t *testing.T) {
		out, err := gate.Run(ctx, reviewState(t, &HumanDecision{Type: DecisionReject, Reason: "fraud"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusHumanRejected {
			t.Errorf("status = %s, want HUMAN_REJECTED", out.Status)
		}
		if !out.RequiresHumanReview {
			t.Error("rejection leaves the review flag set as an audit signal")
		}
	})

	t.Run("needs_more_info re-pauses with a cleared decision", func(t *testing.T) {
		out, err := gate.Run(ctx, reviewState(t, &HumanDecision{Type: DecisionNeedsMoreInfo}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusHumanReviewRequired {
			t.Errorf("status = %s, want HUMAN_REVIEW_REQUIRED", out.Status)
		}
		if !out.RequiresHumanReview {
			t.Error("review requirement must stay set")
		}
		if out.HumanDecision != nil {
			t.Error("stale decision must be cleared so the next resume carries a fresh one")
		}
	})

	t.Run("unknown decision is a validation error", func(t *testing.T) {
		_, err := gate.Run(ctx, reviewState(t, &HumanDecision{Type: "maybe"}))
		if err == nil {
			t.Fatal("expected error for unknown decision type")
		}
	})

	t.Run("composite mirrored on decision", func(t *testing.T) {
		s := reviewState(t, &HumanDecision{Type: DecisionApprove})
		s.Fraud = &FraudSignals{RequiresHumanReview: true}
		out, err := gate.Run(ctx, s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Fraud.RequiresHumanReview {
			t.Error("composite review flag must mirror the cleared flat field")
		}
	})
}
