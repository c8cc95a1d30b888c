package mcp

import "vitals/internal/gates"

// PressuresInput defines the input for the vitals_pressures tool.
type PressuresInput struct{}

// PressuresOutput defines the output for the vitals_pressures tool.
type PressuresOutput struct {
	Pressures map[string]float64 `json:"pressures" jsonschema:"Current pressure per node in [0 1]"`
}

// GatesInput defines the input for the vitals_gates tool.
type GatesInput struct {
	Node string `json:"node,omitempty" jsonschema:"Evaluate a single node instead of all nodes"`
}

// GateView is a single gate evaluation result.
type GateView struct {
	Node        string  `json:"node"`
	Pressure    float64 `json:"pressure"`
	State       string  `json:"state"`
	Passed      bool    `json:"passed"`
	Confidence  float64 `json:"confidence"`
	DisplayMode string  `json:"display_mode"`
}

// GatesOutput defines the output for the vitals_gates tool.
type GatesOutput struct {
	Gates []GateView `json:"gates" jsonschema:"Gate evaluations sorted by node ID"`
	Count int        `json:"count" jsonschema:"Number of evaluated gates"`
}

// ApplyInput defines the input for the vitals_apply tool.
type ApplyInput struct {
	Node     string  `json:"node" jsonschema:"Target node ID"`
	Motion   string  `json:"motion" jsonschema:"Perturbation category: impulse drift shock or relief"`
	Delta    float64 `json:"delta" jsonschema:"Pressure delta in [-1 1]"`
	Friction float64 `json:"friction,omitempty" jsonschema:"Friction factor dampened by node mass (default 0)"`
	Source   string  `json:"source,omitempty" jsonschema:"Originating source label"`
}

// ApplyOutput defines the output for the vitals_apply tool.
type ApplyOutput struct {
	Node    string  `json:"node"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
	Applied float64 `json:"applied" jsonschema:"Post-clamp applied delta"`
	Damping float64 `json:"damping"`
}

// PropagateInput defines the input for the vitals_propagate tool.
type PropagateInput struct {
	Dt float64 `json:"dt,omitempty" jsonschema:"Cycle time step (default 1)"`
}

// PropagateOutput defines the output for the vitals_propagate tool.
type PropagateOutput struct {
	Applied map[string]float64 `json:"applied" jsonschema:"Applied delta per node for this cycle"`
}

// TickInput defines the input for the vitals_tick tool.
type TickInput struct {
	ElapsedHours float64 `json:"elapsed_hours" jsonschema:"Elapsed wall-clock hours to decay over"`
}

// TickOutput defines the output for the vitals_tick tool.
type TickOutput struct {
	Decayed map[string]float64 `json:"decayed" jsonschema:"Decay amount per node"`
}

// SnapshotInput defines the input for the vitals_snapshot tool.
type SnapshotInput struct {
	Name string `json:"name,omitempty" jsonschema:"Snapshot name; generated when empty"`
}

// SnapshotOutput defines the output for the vitals_snapshot tool.
type SnapshotOutput struct {
	Name string `json:"name" jsonschema:"Stored snapshot name"`
}

// OutcomeInput defines the input for the vitals_outcome tool.
type OutcomeInput struct {
	Node      string `json:"node" jsonschema:"Node the prediction was made for"`
	Predicted bool   `json:"predicted" jsonschema:"Whether danger was predicted"`
	Actual    bool   `json:"actual" jsonschema:"Whether damage actually occurred"`
}

// OutcomeOutput defines the output for the vitals_outcome tool.
type OutcomeOutput struct {
	Recorded bool `json:"recorded"`
}

func gateView(g gates.Gate) GateView {
	return GateView{
		Node:        g.Node,
		Pressure:    g.Pressure,
		State:       string(g.State),
		Passed:      g.Passed,
		Confidence:  g.Confidence,
		DisplayMode: string(g.DisplayMode),
	}
}
