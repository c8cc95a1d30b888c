// Package simulation is a scenario harness for end-to-end engine
// experiments: seed a topology, run a scripted sequence of engine
// operations against a real store, and inspect the per-step results.
package simulation

import (
	"fmt"
	"testing"

	"vitals/internal/engine"
	"vitals/internal/graph"
	"vitals/internal/store"
)

// Runner orchestrates scenario experiments against a real engine backed by
// an isolated SQLite store.
type Runner struct {
	t  *testing.T
	st *store.Store
}

// NewRunner creates a simulation runner with an isolated store under a
// temporary directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()

	s, err := store.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewRunner: failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return &Runner{t: t, st: s}
}

// Run executes the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) ScenarioResult {
	r.t.Helper()

	topo := graph.DefaultTopology()
	if scenario.Topology != nil {
		topo = *scenario.Topology
	}
	cfg := engine.DefaultConfig()
	if scenario.Config != nil {
		cfg = *scenario.Config
	}

	e, err := engine.New(topo, cfg, engine.WithStore(r.st))
	if err != nil {
		r.t.Fatalf("scenario %s: engine: %v", scenario.Name, err)
	}

	results := make([]StepResult, len(scenario.Steps))
	for i, step := range scenario.Steps {
		if scenario.BeforeStep != nil {
			scenario.BeforeStep(i, e)
		}
		results[i] = r.runStep(e, scenario.Name, i, step)
	}

	return ScenarioResult{Steps: results, Engine: e}
}

// runStep executes a single step and captures its result.
func (r *Runner) runStep(e *engine.Engine, name string, index int, step Step) StepResult {
	r.t.Helper()

	res := StepResult{Index: index, Label: step.Label}
	fail := func(op string, err error) {
		r.t.Fatalf("scenario %s step %d (%s): %s: %v", name, index, step.Label, op, err)
	}

	switch {
	case step.Apply != nil:
		a := step.Apply
		applied, err := e.Apply(a.Node, a.Motion, a.Delta, a.Friction, "simulation")
		if err != nil {
			fail("Apply", err)
		}
		res.Applied = &applied

	case step.Propagate != nil:
		deltas, err := e.Propagate(step.Propagate.Dt)
		if err != nil {
			fail("Propagate", err)
		}
		res.Deltas = deltas

	case step.Tick != nil:
		deltas, err := e.Tick(step.Tick.Elapsed)
		if err != nil {
			fail("Tick", err)
		}
		res.Deltas = deltas

	case step.Outcome != nil:
		o := step.Outcome
		if err := e.RecordOutcome(o.Node, o.Predicted, o.Actual); err != nil {
			fail("RecordOutcome", err)
		}

	case step.Calibrate != nil:
		adj, err := e.Calibrate(step.Calibrate.Node)
		if err != nil {
			fail("Calibrate", err)
		}
		res.Adjustment = &adj

	case step.Snapshot != "":
		if _, err := e.Snapshot(step.Snapshot); err != nil {
			fail("Snapshot", err)
		}

	case step.Restore != "":
		if err := e.RestoreSnapshot(step.Restore); err != nil {
			fail("RestoreSnapshot", err)
		}

	default:
		r.t.Fatalf("scenario %s step %d (%s): empty step", name, index, step.Label)
	}

	res.Pressures = e.Pressures()
	return res
}

// FormatStepDebug returns a debug string for a step result.
func FormatStepDebug(sr StepResult) string {
	s := fmt.Sprintf("Step %d (%s):\n", sr.Index, sr.Label)
	for node, p := range sr.Pressures {
		s += fmt.Sprintf("  %s: pressure=%.4f\n", node, p)
	}
	if sr.Adjustment != nil {
		s += fmt.Sprintf("  calibration: applied=%v %s %.2f->%.2f\n",
			sr.Adjustment.Applied, sr.Adjustment.Direction, sr.Adjustment.Before, sr.Adjustment.After)
	}
	return s
}
