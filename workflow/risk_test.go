package workflow

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
)

func scoreFor(t *testing.T, refunds int, drift float64, flags []RiskFlag) State {
	t.Helper()
	s := mustState(t, "refund", SessionContext{RefundCount: refunds, AddressDriftMiles: drift})
	s.IsVerified = true
	s.RedFlags = flags
	out, err := NewRiskScorer().Run(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Fraud == nil || out.Fraud.TrustScore == nil {
		t.Fatal("scorer must populate fraud_signals.trust_score")
	}
	return out
}

func TestRiskScorer_Formula(t *testing.T) {
	cases := []struct {
		refunds int
		drift   float64
		want    float64
	}{
		{0, 0, 1.0},
		{2, 0, 0.9},
		{4, 0, 0.8},
		{6, 0, 0.7},            // refund penalty capped at 0.3
		{100, 0, 0.7},          // still capped
		{0, 100, 0.9},
		{0, 300, 0.7},          // drift penalty capped at 0.3
		{0, 5000, 0.7},         // still capped
		{100, 5000, 0.4},       // both caps: the floor without flags
		{3, 150, 1.0 - 0.15 - 0.15},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("refunds=%d drift=%v", tc.refunds, tc.drift), func(t *testing.T) {
			out := scoreFor(t, tc.refunds, tc.drift, nil)
			got := *out.Fraud.TrustScore
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("trust score = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRiskScorer_ScoreBounds(t *testing.T) {
	for refunds := 0; refunds <= 20; refunds += 5 {
		for drift := 0.0; drift <= 2000; drift += 500 {
			out := scoreFor(t, refunds, drift, nil)
			score := *out.Fraud.TrustScore
			if score < 0 || score > 1 {
				t.Fatalf("score %v outside [0,1] for refunds=%d drift=%v", score, refunds, drift)
			}
		}
	}
}

func TestRiskScorer_Monotonic(t *testing.T) {
	t.Run("non-increasing in refund count", func(t *testing.T) {
		prev := 2.0
		for refunds := 0; refunds <= 12; refunds++ {
			out := scoreFor(t, refunds, 50, nil)
			score := *out.Fraud.TrustScore
			if score > prev {
				t.Fatalf("score rose from %v to %v at refunds=%d", prev, score, refunds)
			}
			prev = score
		}
	})

	t.Run("non-increasing in drift", func(t *testing.T) {
		prev := 2.0
		for drift := 0.0; drift <= 1200; drift += 100 {
			out := scoreFor(t, 1, drift, nil)
			score := *out.Fraud.TrustScore
			if score > prev {
				t.Fatalf("score rose from %v to %v at drift=%v", prev, score, drift)
			}
			prev = score
		}
	})
}

func TestRiskScorer_Decision(t *testing.T) {
	t.Run("clean low-risk run proceeds", func(t *testing.T) {
		out := scoreFor(t, 0, 0, nil)
		if out.RequiresHumanReview {
			t.Error("expected no review for a clean run")
		}
		if out.Status != StatusRiskScored {
			t.Errorf("status = %s, want RISK_SCORED", out.Status)
		}
	})

	t.Run("flags force review regardless of score", func(t *testing.T) {
		out := scoreFor(t, 0, 0, []RiskFlag{FlagGeoMismatch})
		if !out.RequiresHumanReview {
			t.Error("a red flag is categorical: review must be required even at score 1.0")
		}
		if out.Status != StatusHumanReviewRequired {
			t.Errorf("status = %s, want HUMAN_REVIEW_REQUIRED", out.Status)
		}
	})

	t.Run("both caps without flags stay above the review floor", func(t *testing.T) {
		// 0.4 floor is deliberately above rejection territory: no single
		// signal, nor both capped together, can force review-independent
		// rejection.
		out := scoreFor(t, 100, 5000, nil)
		if *out.Fraud.TrustScore != 0.4 {
			t.Errorf("score = %v, want the 0.4 floor", *out.Fraud.TrustScore)
		}
		if !out.RequiresHumanReview {
			t.Error("0.4 is below the 0.5 review floor, expected review")
		}
	})
}

func TestRiskScorer_Summary(t *testing.T) {
	out := scoreFor(t, 5, 120, nil)
	sum := out.Fraud.Summary
	for _, want := range []string{"5 refunds", "120.0 mi", "0.63"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary %q missing %q", sum, want)
		}
	}
}

func TestRiskScorer_MirrorsComposite(t *testing.T) {
	out := scoreFor(t, 0, 0, []RiskFlag{FlagRefundVelocity})
	if len(out.Fraud.RedFlags) != 1 || out.Fraud.RedFlags[0] != FlagRefundVelocity {
		t.Errorf("composite flags = %v, want mirror of flat flags", out.Fraud.RedFlags)
	}
	if out.Fraud.RequiresHumanReview != out.RequiresHumanReview {
		t.Error("composite review flag diverged from flat field")
	}
}
