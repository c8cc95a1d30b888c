// Package gates derives confidence-qualified classifications from raw node
// pressure. A pressure backed by one sample should not be presented with the
// same authority as one backed by many, so every gate carries both the
// pressure verdict and a confidence derived from the update count.
//
// Everything here is a pure function of state. The engine memoizes gate
// results and invalidates the memo on every mutating call.
package gates

import "time"

// State is the discrete health classification of a node. It is always
// derived from pressure, never stored, so it cannot drift out of sync.
type State string

const (
	StateStable       State = "stable"
	StateMonitoring   State = "monitoring"
	StatePressuring   State = "pressuring"
	StateIrreversible State = "irreversible"
	StateCritical     State = "critical"
)

// DisplayMode qualifies how a gate result should be presented downstream.
type DisplayMode string

const (
	DisplayInsufficient DisplayMode = "insufficient"
	DisplayWeak         DisplayMode = "weak"
	DisplayModerate     DisplayMode = "moderate"
	DisplayStrong       DisplayMode = "strong"
)

const (
	// criticalThreshold is the fixed break point above which a node is
	// critical regardless of its calibrated threshold.
	criticalThreshold = 0.9

	// pressuringThreshold doubles as the gate pass line.
	pressuringThreshold = 0.5

	// confidenceSamples is the update count at which confidence saturates.
	confidenceSamples = 10

	// insufficientBelow is the confidence floor for a presentable result.
	// Exactly 0.3 (three updates) is presentable; strictly below is not.
	insufficientBelow = 0.3
)

// StateOf classifies a pressure value against a node's thresholds.
// thetaHigh is the current calibrated alert threshold, thetaLow the fixed
// monitoring floor. Break points are evaluated highest first.
func StateOf(pressure, thetaLow, thetaHigh float64) State {
	switch {
	case pressure >= criticalThreshold:
		return StateCritical
	case pressure >= thetaHigh:
		return StateIrreversible
	case pressure >= pressuringThreshold:
		return StatePressuring
	case pressure >= thetaLow:
		return StateMonitoring
	default:
		return StateStable
	}
}

// Gate is the full evaluation result for one node. AgeDays is wall-clock
// dependent, so Evaluate leaves it zero; the engine attaches it at read
// time with Age rather than baking it into memoized results.
type Gate struct {
	Node        string      `json:"node"`
	Pressure    float64     `json:"pressure"`
	State       State       `json:"state"`
	Passed      bool        `json:"passed"`
	Confidence  float64     `json:"confidence"`
	DisplayMode DisplayMode `json:"display_mode"`
	UpdateCount int         `json:"update_count"`
	AgeDays     float64     `json:"age_days"`
}

// Evaluate computes the gate for a single node from its current pressure,
// thresholds, and update count. The result depends only on state, so it is
// safe to memoize until the next mutation.
func Evaluate(node string, pressure, thetaLow, thetaHigh float64, updateCount int) Gate {
	confidence := Confidence(updateCount)

	return Gate{
		Node:        node,
		Pressure:    pressure,
		State:       StateOf(pressure, thetaLow, thetaHigh),
		Passed:      pressure >= pressuringThreshold,
		Confidence:  confidence,
		DisplayMode: displayMode(pressure, confidence),
		UpdateCount: updateCount,
	}
}

// Age converts the engine's last mutation timestamp to whole-and-fractional
// days before now. A zero timestamp (fresh state) reports zero age.
func Age(lastUpdate, now time.Time) float64 {
	if lastUpdate.IsZero() || !now.After(lastUpdate) {
		return 0
	}
	return now.Sub(lastUpdate).Hours() / 24
}

// Confidence maps an update count to [0,1]. It is non-decreasing and
// saturates at confidenceSamples updates.
func Confidence(updateCount int) float64 {
	if updateCount <= 0 {
		return 0
	}
	if updateCount >= confidenceSamples {
		return 1
	}
	return float64(updateCount) / confidenceSamples
}

// displayMode buckets a gate result by confidence first, then pressure.
func displayMode(pressure, confidence float64) DisplayMode {
	if confidence < insufficientBelow {
		return DisplayInsufficient
	}
	switch {
	case pressure >= 0.75:
		return DisplayStrong
	case pressure >= pressuringThreshold:
		return DisplayModerate
	default:
		return DisplayWeak
	}
}
