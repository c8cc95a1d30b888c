package simulation

import (
	"time"

	"vitals/internal/calibration"
	"vitals/internal/engine"
	"vitals/internal/graph"
)

// Scenario defines a complete multi-step simulation experiment against a
// real engine and store.
type Scenario struct {
	Name string

	// Topology seeds the engine graph. Nil uses the default topology.
	Topology *graph.Topology

	// Config overrides the engine configuration. Nil uses defaults.
	Config *engine.Config

	// Steps run in order; each step is exactly one engine operation.
	Steps []Step

	// BeforeStep, when non-nil, is called before each step executes. Use
	// this to inspect or perturb the engine between steps.
	BeforeStep func(stepIndex int, e *engine.Engine)
}

// Step is one engine operation in a scenario. Exactly one field besides
// Label should be set.
type Step struct {
	// Label is an optional human-readable tag for debugging output.
	Label string

	Apply     *ApplyStep
	Propagate *PropagateStep
	Tick      *TickStep
	Outcome   *OutcomeStep
	Calibrate *CalibrateStep
	Snapshot  string // snapshot name to write
	Restore   string // snapshot name to restore
}

// ApplyStep perturbs one node.
type ApplyStep struct {
	Node     string
	Motion   graph.Motion
	Delta    float64
	Friction float64
}

// PropagateStep runs one diffusion cycle.
type PropagateStep struct {
	Dt float64
}

// TickStep decays all pressures over elapsed wall-clock time.
type TickStep struct {
	Elapsed time.Duration
}

// OutcomeStep records one prediction-vs-outcome pair.
type OutcomeStep struct {
	Node      string
	Predicted bool
	Actual    bool
}

// CalibrateStep runs threshold calibration for one node.
type CalibrateStep struct {
	Node string
}

// StepResult captures the engine output of one step plus the post-step
// pressure vector.
type StepResult struct {
	Index     int
	Label     string
	Pressures map[string]float64

	Applied    *engine.ApplyResult     // set for Apply steps
	Deltas     map[string]float64      // set for Propagate and Tick steps
	Adjustment *calibration.Adjustment // set for Calibrate steps
}

// ScenarioResult captures all steps and the final engine for direct
// inspection.
type ScenarioResult struct {
	Steps  []StepResult
	Engine *engine.Engine
}

// Final returns the last step result.
func (r ScenarioResult) Final() StepResult {
	return r.Steps[len(r.Steps)-1]
}
