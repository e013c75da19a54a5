package workflow

import (
	"context"
	"strings"
)

// TrustedIdentity is the configuration-sourced reference the identity gate
// verifies sessions against. Absence means "cannot verify", never "skip
// verification".
type TrustedIdentity struct {
	UserID string
	Email  string
}

// intentKeywords maps user-input keywords to intents. Order matters: the
// first matching keyword wins, so classification is deterministic.
var intentKeywords = []struct {
	keyword string
	intent  Intent
}{
	{"refund", IntentRefund},
	{"return", IntentReturn},
	{"shipping", IntentShippingIssue},
	{"billing", IntentBillingDispute},
	{"account takeover", IntentAccountTakeover},
}

// classifyIntent scans the user input for the first matching keyword.
// Unmatched input defaults to IntentOther.
func classifyIntent(userInput string) Intent {
	lower := strings.ToLower(userInput)
	for _, kw := range intentKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.intent
		}
	}
	return IntentOther
}

// IdentityGate is the mandatory first node. It decides whether the session
// may proceed at all by comparing the session-provided user ID and email
// against the trusted reference by exact match.
//
// A missing or incomplete trusted reference fails closed: the run ends in
// IDENTITY_FAILED rather than surfacing an error, because an unverifiable
// session must be treated exactly like an unverified one. A failed match is
// a terminal outcome for the run, not a transient error, so there are no
// retries.
type IdentityGate struct {
	trusted *TrustedIdentity
}

// NewIdentityGate builds the gate. trusted may be nil; the gate then fails
// closed for every session.
func NewIdentityGate(trusted *TrustedIdentity) *IdentityGate {
	return &IdentityGate{trusted: trusted}
}

// Run implements Node.
func (g *IdentityGate) Run(_ context.Context, s State) (State, error) {
	if g.trusted == nil || g.trusted.UserID == "" || g.trusted.Email == "" {
		s.IsVerified = false
		s.Status = StatusIdentityFailed
		return s, nil
	}

	if s.Session.UserID != g.trusted.UserID || s.Session.Email != g.trusted.Email {
		// Verification stops here: no intent classification or PII
		// flagging happens after a failed match.
		s.IsVerified = false
		s.Status = StatusIdentityFailed
		return s, nil
	}

	s.IsVerified = true
	s.Status = StatusIdentityVerified
	s.UserID = s.Session.UserID

	s.Intent = classifyIntent(s.UserInput)

	// Conservative heuristic: presence of identity data in the session,
	// not content inspection.
	if s.Session.UserID != "" || s.Session.Email != "" {
		s.ContainsPII = true
	}

	return s, nil
}
