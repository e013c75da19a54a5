// Package workflow implements the gated decision workflow for customer
// support actions. It contains the shared workflow state, the deterministic
// router, the gate nodes that mutate state, and the executor that drives
// them with pause/resume support for human-in-the-loop review.
package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is the lifecycle stage of a workflow run. It is the authoritative
// signal the Router reads; nodes must only ever assign one of the declared
// constants, never free text.
type Status string

const (
	StatusIdentityRequired Status = "IDENTITY_REQUIRED"
	StatusIdentityVerified Status = "IDENTITY_VERIFIED"
	StatusIdentityFailed   Status = "IDENTITY_FAILED"

	StatusDataRetrieved Status = "DATA_RETRIEVED"
	StatusFlagsChecked  Status = "FLAGS_CHECKED"
	StatusRiskScored    Status = "RISK_SCORED"

	StatusHumanReviewRequired Status = "HUMAN_REVIEW_REQUIRED"
	StatusHumanApproved       Status = "HUMAN_APPROVED"
	StatusHumanRejected       Status = "HUMAN_REJECTED"

	StatusDraftReady Status = "DRAFT_READY"
	StatusDone       Status = "DONE"
)

var validStatuses = map[Status]bool{
	StatusIdentityRequired:    true,
	StatusIdentityVerified:    true,
	StatusIdentityFailed:      true,
	StatusDataRetrieved:       true,
	StatusFlagsChecked:        true,
	StatusRiskScored:          true,
	StatusHumanReviewRequired: true,
	StatusHumanApproved:       true,
	StatusHumanRejected:       true,
	StatusDraftReady:          true,
	StatusDone:                true,
}

// terminalStatuses are stages from which no further node may execute.
// DRAFT_READY is the normal end of a run but is not terminal in the
// lifecycle sense: the caller may advance it to DONE after delivery.
var terminalStatuses = map[Status]bool{
	StatusIdentityFailed: true,
	StatusHumanRejected:  true,
	StatusDone:           true,
}

// IsValid reports whether s is one of the declared lifecycle stages.
func (s Status) IsValid() bool { return validStatuses[s] }

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool { return terminalStatuses[s] }

func (s Status) String() string { return string(s) }

// Intent is the classified purpose of the user's request.
type Intent string

const (
	IntentRefund          Intent = "refund"
	IntentReturn          Intent = "return"
	IntentShippingIssue   Intent = "shipping_issue"
	IntentBillingDispute  Intent = "billing_dispute"
	IntentAccountTakeover Intent = "account_takeover"
	IntentOther           Intent = "other"
)

// RiskFlag is a discrete fraud or abuse indicator. The red-flag detector
// currently emits FlagRefundVelocity and FlagGeoMismatch; the remaining
// indicators are reserved for rules evaluated by upstream systems and are
// accepted on inbound state.
type RiskFlag string

const (
	FlagRefundVelocity     RiskFlag = "refund_velocity"
	FlagReturnlessVelocity RiskFlag = "returnless_velocity"
	FlagGeoMismatch        RiskFlag = "geo_mismatch"
	FlagChargebackHistory  RiskFlag = "chargeback_history"
	FlagSerialRefunder     RiskFlag = "serial_refunder"
	FlagLegalThreat        RiskFlag = "legal_threat"
	FlagATOSuspected       RiskFlag = "ato_suspected"
	FlagPolicyOutOfWindow  RiskFlag = "policy_out_of_window"
	FlagInsufficientData   RiskFlag = "insufficient_evidence"
)

// DecisionType is what a human reviewer can do with a paused run.
type DecisionType string

const (
	DecisionApprove       DecisionType = "approve"
	DecisionReject        DecisionType = "reject"
	DecisionEdit          DecisionType = "edit"
	DecisionNeedsMoreInfo DecisionType = "needs_more_info"
)

var validDecisions = map[DecisionType]bool{
	DecisionApprove:       true,
	DecisionReject:        true,
	DecisionEdit:          true,
	DecisionNeedsMoreInfo: true,
}

// IsValid reports whether d is one of the declared decision types.
func (d DecisionType) IsValid() bool { return validDecisions[d] }

// SessionContext carries the session attributes supplied by the caller.
// It is immutable for the duration of a run; fraud primitives on the state
// are seeded from it at construction.
type SessionContext struct {
	UserID            string  `json:"user_id,omitempty"`
	Email             string  `json:"email,omitempty"`
	IP                string  `json:"ip,omitempty"`
	DeviceID          string  `json:"device_id,omitempty"`
	Region            string  `json:"region,omitempty"`
	RefundCount       int     `json:"refund_count"`
	AddressDriftMiles float64 `json:"address_drift_miles"`
}

// FraudSignals is the composite fraud record. Once created it is the single
// source of truth for fraud state; nodes keep the flat RedFlags and
// RequiresHumanReview fields on State mirrored into it.
type FraudSignals struct {
	RefundCount         int        `json:"refund_count"`
	AddressDriftMiles   float64    `json:"address_drift_miles"`
	RedFlags            []RiskFlag `json:"red_flags"`
	TrustScore          *float64   `json:"trust_score,omitempty"`
	RequiresHumanReview bool       `json:"requires_human_review"`
	Summary             string     `json:"summary"`
}

// RetrievalOutputs holds structured results from the external data
// retrieval collaborator.
type RetrievalOutputs struct {
	OrderData     map[string]any `json:"order_data"`
	PolicyContext map[string]any `json:"policy_context"`
}

// Channel is the delivery channel for a draft response.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// DraftResponse is the customer-facing draft produced after approval.
type DraftResponse struct {
	Channel       Channel `json:"channel"`
	Subject       string  `json:"subject,omitempty"`
	Body          string  `json:"body"`
	InternalNotes string  `json:"internal_notes,omitempty"`
}

// HumanDecision is one decision supplied by a human reviewer between a
// pause and a resume.
type HumanDecision struct {
	Type   DecisionType   `json:"type"`
	Reason string         `json:"reason,omitempty"`
	Edits  map[string]any `json:"edits,omitempty"`
}

// State is the single mutable record threaded through every node. Every
// field is explicitly declared; snapshots refuse unknown fields so the
// audit trail stays well typed.
//
// Nodes receive State by value and return an updated value. The executor
// owns the State exclusively for the duration of one invocation; between a
// pause and a resume the caller owns persistence of the snapshot.
type State struct {
	UserInput string         `json:"user_input"`
	Session   SessionContext `json:"session_context"`

	Intent  Intent `json:"intent"`
	UserID  string `json:"user_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`

	IsVerified  bool `json:"is_verified"`
	ContainsPII bool `json:"contains_pii"`

	Status Status `json:"status"`

	RefundCount         int        `json:"refund_count"`
	AddressDriftMiles   float64    `json:"address_drift_miles"`
	RedFlags            []RiskFlag `json:"red_flags"`
	RequiresHumanReview bool       `json:"requires_human_review"`

	Fraud     *FraudSignals     `json:"fraud_signals,omitempty"`
	Retrieved *RetrievalOutputs `json:"retrieved_data,omitempty"`

	HumanDecision *HumanDecision `json:"human_decision,omitempty"`

	Draft *DraftResponse `json:"draft,omitempty"`
}

// NewState builds the initial State for a run, seeding the fraud primitives
// from the session context. It rejects invalid input before the workflow
// starts.
func NewState(userInput string, session SessionContext) (State, error) {
	s := State{
		UserInput:         userInput,
		Session:           session,
		Intent:            IntentOther,
		Status:            StatusIdentityRequired,
		RefundCount:       session.RefundCount,
		AddressDriftMiles: session.AddressDriftMiles,
		RedFlags:          []RiskFlag{},
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Validate checks the State against its schema. Any violation is rejected
// before the workflow starts or resumes.
func (s State) Validate() error {
	if s.UserInput == "" {
		return &ValidationError{Field: "user_input", Message: "must not be empty"}
	}
	if s.RefundCount < 0 {
		return &ValidationError{Field: "refund_count", Message: "must not be negative"}
	}
	if s.AddressDriftMiles < 0 {
		return &ValidationError{Field: "address_drift_miles", Message: "must not be negative"}
	}
	if !s.Status.IsValid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", string(s.Status))}
	}
	if s.Fraud != nil && s.Fraud.TrustScore != nil {
		if ts := *s.Fraud.TrustScore; ts < 0 || ts > 1 {
			return &ValidationError{Field: "fraud_signals.trust_score", Message: fmt.Sprintf("%.4f outside [0,1]", ts)}
		}
	}
	if s.HumanDecision != nil && !s.HumanDecision.Type.IsValid() {
		return &ValidationError{Field: "human_decision.type", Message: fmt.Sprintf("unknown decision %q", string(s.HumanDecision.Type))}
	}
	return nil
}

// Clone returns a deep copy of the State via a JSON round-trip, so a
// snapshot handed to the caller shares no memory with the running copy.
func (s State) Clone() (State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return State{}, fmt.Errorf("marshal state: %w", err)
	}
	var copied State
	if err := json.Unmarshal(data, &copied); err != nil {
		return State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return copied, nil
}

// Snapshot serializes the State for audit logging or pause-time
// persistence by the caller.
func (s State) Snapshot() ([]byte, error) {
	return json.Marshal(s)
}

// ParseState materializes a State from a serialized snapshot. Unknown
// fields are rejected and the schema is validated, so a tampered or drifted
// snapshot cannot re-enter the workflow.
func ParseState(data []byte) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s State
	if err := dec.Decode(&s); err != nil {
		return State{}, &ValidationError{Field: "snapshot", Message: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// MarkDone advances a delivered draft to DONE. Only a DRAFT_READY state
// may be marked done; the executor itself never sets DONE, delivery belongs
// to the caller.
func (s State) MarkDone() (State, error) {
	if s.Status != StatusDraftReady {
		return s, &ValidationError{Field: "status", Message: "only DRAFT_READY may become DONE, got " + string(s.Status)}
	}
	s.Status = StatusDone
	return s, nil
}

// mirrorFraud copies the flat red-flag fields into the fraud composite when
// it exists. The composite and the flat fields must never diverge.
func (s *State) mirrorFraud() {
	if s.Fraud == nil {
		return
	}
	s.Fraud.RedFlags = append([]RiskFlag(nil), s.RedFlags...)
	s.Fraud.RequiresHumanReview = s.RequiresHumanReview
	s.Fraud.RefundCount = s.RefundCount
	s.Fraud.AddressDriftMiles = s.AddressDriftMiles
}
