package workflow

import "context"

// Thresholds are the externally configured policy limits the red-flag
// detector evaluates against. Both must be explicitly set: a zero default
// would flag every user and an infinite default would disable the check,
// so missing thresholds are a configuration error, never silently
// defaulted.
type Thresholds struct {
	// MaxRefundCount is the maximum refunds allowed in the evaluation
	// window before FlagRefundVelocity fires.
	MaxRefundCount int

	// MaxDriftMiles is the maximum address-drift distance before
	// FlagGeoMismatch fires.
	MaxDriftMiles float64
}

// RedFlagDetector evaluates deterministic fraud rules over the behavioral
// primitives on the state. It never executes any action; it only annotates
// state. Each run recomputes the flag set from the primitives rather than
// accumulating across runs, so re-evaluation is idempotent.
type RedFlagDetector struct {
	thresholds Thresholds
}

// NewRedFlagDetector builds the detector. Both thresholds must be
// non-negative and explicitly provided; nil means the surrounding system
// failed to configure the fraud policy.
func NewRedFlagDetector(t *Thresholds) (*RedFlagDetector, error) {
	if t == nil {
		return nil, &ConfigError{Setting: "fraud thresholds", Message: "not configured"}
	}
	if t.MaxRefundCount < 0 {
		return nil, &ConfigError{Setting: "max_refund_count", Message: "must not be negative"}
	}
	if t.MaxDriftMiles < 0 {
		return nil, &ConfigError{Setting: "max_drift_miles", Message: "must not be negative"}
	}
	return &RedFlagDetector{thresholds: *t}, nil
}

// Run implements Node. Both rules are evaluated independently, never
// short-circuited. The flat fields and the fraud composite, when present,
// are kept mirrored. Status becomes FLAGS_CHECKED unconditionally: the
// flags themselves, not the status, drive routing.
func (d *RedFlagDetector) Run(_ context.Context, s State) (State, error) {
	flags := []RiskFlag{}
	if s.RefundCount > d.thresholds.MaxRefundCount {
		flags = append(flags, FlagRefundVelocity)
	}
	if s.AddressDriftMiles > d.thresholds.MaxDriftMiles {
		flags = append(flags, FlagGeoMismatch)
	}

	// Replace, not append-merge: this pass owns the flag set.
	s.RedFlags = flags
	if len(flags) > 0 {
		s.RequiresHumanReview = true
	}
	s.mirrorFraud()

	s.Status = StatusFlagsChecked
	return s, nil
}
