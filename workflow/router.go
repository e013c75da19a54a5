package workflow

// RouteKey is the symbolic output of the Router. The executor consumes it
// to select the next node or halt.
type RouteKey string

const (
	// RouteBlocked terminates the run: identity was not verified.
	RouteBlocked RouteKey = "blocked"

	// RouteHumanReview directs flow into the human review gate.
	RouteHumanReview RouteKey = "human_review"

	// RouteApproved directs an approved run to finalization.
	RouteApproved RouteKey = "approved"

	// RouteRejected terminates the run after a human rejection.
	RouteRejected RouteKey = "rejected"

	// RouteContinue advances to the next sequential node.
	RouteContinue RouteKey = "continue"
)

// Route decides the next step from the current state. It is a pure
// function: no side effects, same output for the same input, callable any
// number of times. The executor re-evaluates it after every node so that a
// decision made at any gate immediately redirects flow.
//
// The rule order is a security property, not an implementation detail:
//
//  1. Unverified identity blocks everything else. No downstream field can
//     override a failed or missing verification.
//  2. A human rejection is terminal. The review gate deliberately leaves
//     RequiresHumanReview set on rejection as an audit signal, so the
//     rejected check must precede the review check for the run to halt.
//  3. Any outstanding review requirement goes to the human gate. In
//     particular a state claiming HUMAN_APPROVED while the review flag is
//     still set is routed back to review, never to finalization.
//  4. A clean approval proceeds to finalization.
//  5. Otherwise advance to the next sequential node.
func Route(s State) RouteKey {
	if s.Status == StatusIdentityFailed || !s.IsVerified {
		return RouteBlocked
	}
	if s.Status == StatusHumanRejected {
		return RouteRejected
	}
	if s.RequiresHumanReview {
		return RouteHumanReview
	}
	if s.Status == StatusHumanApproved {
		return RouteApproved
	}
	return RouteContinue
}
