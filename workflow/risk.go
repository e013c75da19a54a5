package workflow

import (
	"context"
	"fmt"
)

// reviewScoreFloor is the trust score below which a run is escalated to
// human review even when no categorical flag fired.
const reviewScoreFloor = 0.5

// RiskScorer collapses the fraud primitives into a single composite trust
// score and a binary human-review decision.
//
// Each penalty term is capped at 0.3 so that no single signal alone can
// force review-independent rejection: the score floor without flags is 0.4.
// The final clamp guards against negative or >1 artifacts from future
// threshold tuning. The score is advisory; red flags are categorical and
// force review regardless of score.
type RiskScorer struct{}

// NewRiskScorer builds the scorer. The formula is fixed; there is nothing
// to configure.
func NewRiskScorer() *RiskScorer { return &RiskScorer{} }

// Run implements Node.
func (r *RiskScorer) Run(_ context.Context, s State) (State, error) {
	score := 1.0
	score -= min(0.3, 0.05*float64(s.RefundCount))
	score -= min(0.3, s.AddressDriftMiles/1000.0)
	score = clamp(score, 0.0, 1.0)

	s.RequiresHumanReview = score < reviewScoreFloor || len(s.RedFlags) > 0

	summary := fmt.Sprintf(
		"%d refunds in window, %.1f mi address drift, %d red flag(s); trust score %.2f",
		s.RefundCount, s.AddressDriftMiles, len(s.RedFlags), score,
	)

	if s.Fraud == nil {
		s.Fraud = &FraudSignals{
			RefundCount:       s.RefundCount,
			AddressDriftMiles: s.AddressDriftMiles,
		}
	}
	s.Fraud.TrustScore = &score
	s.Fraud.Summary = summary
	s.mirrorFraud()

	if s.RequiresHumanReview {
		s.Status = StatusHumanReviewRequired
	} else {
		s.Status = StatusRiskScored
	}
	return s, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
