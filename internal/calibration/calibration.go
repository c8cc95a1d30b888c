// Package calibration nudges a node's alert threshold based on logged
// prediction-vs-outcome pairs. This is bounded hysteresis, not optimization:
// a fixed step in the direction of the dominant error class, hard-clamped so
// no stream of outcomes can push the threshold out of its working band.
package calibration

import "time"

// Outcome is one logged prediction-vs-reality pair. Predicted is true when
// the engine called "danger"; Actual is true when damage actually occurred.
type Outcome struct {
	Predicted bool      `json:"predicted"`
	Actual    bool      `json:"actual"`
	At        time.Time `json:"at"`
}

// Config holds the calibration tunables.
type Config struct {
	// MinSamples is the number of logged outcomes required before any
	// adjustment is made.
	MinSamples int

	// Step is the fixed threshold nudge per calibration.
	Step float64

	// Floor and Ceil clamp the threshold after every adjustment.
	Floor float64
	Ceil  float64

	// LogCap bounds the per-node outcome ring.
	LogCap int
}

// DefaultConfig returns the standard calibration parameters.
func DefaultConfig() Config {
	return Config{
		MinSamples: 3,
		Step:       0.05,
		Floor:      0.50,
		Ceil:       0.95,
		LogCap:     50,
	}
}

// Direction indicates which way a calibration moved the threshold.
type Direction string

const (
	DirectionNone  Direction = "none"
	DirectionLower Direction = "lower" // more sensitive
	DirectionRaise Direction = "raise" // less sensitive
)

// Adjustment reports the result of one calibration pass. Applied is false
// for the explicit no-op cases (too few samples, balanced errors, already at
// the clamp bound); it is never an error.
type Adjustment struct {
	Node           string    `json:"node"`
	Applied        bool      `json:"applied"`
	Reason         string    `json:"reason"`
	Direction      Direction `json:"direction"`
	Before         float64   `json:"before"`
	After          float64   `json:"after"`
	FalseNegatives int       `json:"false_negatives"`
	FalsePositives int       `json:"false_positives"`
	Samples        int       `json:"samples"`
}

// Calibrate computes the threshold adjustment for one node from its outcome
// log. More false negatives (predicted safe, actual damage) than false
// positives lowers the threshold; the reverse raises it; a tie changes
// nothing. The result is always clamped to [Floor, Ceil].
func Calibrate(node string, outcomes []Outcome, current float64, cfg Config) Adjustment {
	adj := Adjustment{
		Node:      node,
		Direction: DirectionNone,
		Before:    current,
		After:     current,
		Samples:   len(outcomes),
	}

	if len(outcomes) < cfg.MinSamples {
		adj.Reason = "insufficient samples"
		return adj
	}

	for _, o := range outcomes {
		if !o.Predicted && o.Actual {
			adj.FalseNegatives++
		}
		if o.Predicted && !o.Actual {
			adj.FalsePositives++
		}
	}

	switch {
	case adj.FalseNegatives > adj.FalsePositives:
		adj.Direction = DirectionLower
		adj.After = clamp(current-cfg.Step, cfg.Floor, cfg.Ceil)
		adj.Reason = "under-alerting: lowering threshold"
	case adj.FalsePositives > adj.FalseNegatives:
		adj.Direction = DirectionRaise
		adj.After = clamp(current+cfg.Step, cfg.Floor, cfg.Ceil)
		adj.Reason = "over-alerting: raising threshold"
	default:
		adj.Reason = "balanced outcomes"
		return adj
	}

	if adj.After == adj.Before {
		// The clamp swallowed the step entirely.
		adj.Direction = DirectionNone
		adj.Reason = "threshold at clamp bound"
		return adj
	}

	adj.Applied = true
	return adj
}

// Log is a bounded ring of outcomes. Appending past the cap evicts the
// oldest entry.
type Log struct {
	entries []Outcome
	cap     int
}

// NewLog creates a log bounded to the given capacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultConfig().LogCap
	}
	return &Log{cap: capacity}
}

// Append records an outcome, evicting the oldest entry when full.
func (l *Log) Append(o Outcome) {
	if len(l.entries) >= l.cap {
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = o
		return
	}
	l.entries = append(l.entries, o)
}

// Entries returns a copy of the logged outcomes, oldest first.
func (l *Log) Entries() []Outcome {
	out := make([]Outcome, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of logged outcomes.
func (l *Log) Len() int { return len(l.entries) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
