// Package graph defines the static topology of the pressure engine: the set
// of named life-dimension nodes, the typed weighted edges between them, and
// the per-layer decay constants. A Topology is validated once at engine
// construction and treated as read-only afterwards.
package graph

import "time"

// Layer classifies a node into one of the closed life dimensions.
type Layer string

const (
	LayerFinancial   Layer = "financial"
	LayerBiometric   Layer = "biometric"
	LayerOperational Layer = "operational"
	LayerCustomer    Layer = "customer"
	LayerExternal    Layer = "external"
)

// Layers returns all valid layers in a stable order.
func Layers() []Layer {
	return []Layer{LayerFinancial, LayerBiometric, LayerOperational, LayerCustomer, LayerExternal}
}

// Valid reports whether l is one of the closed layer set.
func (l Layer) Valid() bool {
	switch l {
	case LayerFinancial, LayerBiometric, LayerOperational, LayerCustomer, LayerExternal:
		return true
	}
	return false
}

// Motion categorizes an external perturbation applied to a node.
type Motion string

const (
	MotionImpulse Motion = "impulse" // a deliberate one-off push
	MotionDrift   Motion = "drift"   // slow accumulation from routine readings
	MotionShock   Motion = "shock"   // sudden large external event
	MotionRelief  Motion = "relief"  // pressure released by an intervention
)

// Motions returns all valid motions in a stable order.
func Motions() []Motion {
	return []Motion{MotionImpulse, MotionDrift, MotionShock, MotionRelief}
}

// Valid reports whether m is one of the closed motion set.
func (m Motion) Valid() bool {
	switch m {
	case MotionImpulse, MotionDrift, MotionShock, MotionRelief:
		return true
	}
	return false
}

// EdgeType selects the transfer function applied along an edge each cycle.
type EdgeType string

const (
	// EdgeDependency equalizes the target toward the upstream value.
	EdgeDependency EdgeType = "dependency"
	// EdgeBuffer absorbs pressure from the target up to a fixed ceiling.
	EdgeBuffer EdgeType = "buffer"
	// EdgeSubstitution lets a healthy substitute drain the target.
	EdgeSubstitution EdgeType = "substitution"
	// EdgeAmplify is a multiplicative, self-reinforcing coupling.
	EdgeAmplify EdgeType = "amplify"
)

// EdgeTypes returns all valid edge types in a stable order.
func EdgeTypes() []EdgeType {
	return []EdgeType{EdgeDependency, EdgeBuffer, EdgeSubstitution, EdgeAmplify}
}

// Valid reports whether t is one of the closed edge type set.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeDependency, EdgeBuffer, EdgeSubstitution, EdgeAmplify:
		return true
	}
	return false
}

// Node is a single pressure node in the topology. The node itself is static;
// its runtime pressure lives in the engine state.
type Node struct {
	// ID is the unique, stable identifier. Lowercase alphanumeric with
	// hyphens/underscores.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Label is the human-readable display name.
	Label string `json:"label" yaml:"label" validate:"required"`

	// Layer is the life dimension this node belongs to.
	Layer Layer `json:"layer" yaml:"layer" validate:"required"`

	// Resting is the pressure a fresh or reset node starts at.
	Resting float64 `json:"resting" yaml:"resting" validate:"gte=0,lte=1"`

	// EntropyRate is the natural drift added per unit time each cycle.
	EntropyRate float64 `json:"entropy_rate" yaml:"entropy_rate" validate:"gte=0"`

	// Mass is the inertia weight. It dampens external perturbations and is
	// exported to downstream classifiers; propagation itself never reads it.
	Mass float64 `json:"mass" yaml:"mass" validate:"gt=0"`

	// ThetaLow and ThetaHigh bound the monitoring and irreversible health
	// states. ThetaHigh is the initial value of the calibratable alert
	// threshold; the runtime value lives in the engine state.
	ThetaLow  float64 `json:"theta_low" yaml:"theta_low" validate:"gte=0"`
	ThetaHigh float64 `json:"theta_high" yaml:"theta_high" validate:"lte=1"`
}

// Edge is a directed, typed, weighted coupling between two nodes.
type Edge struct {
	From         string   `json:"from" yaml:"from" validate:"required"`
	To           string   `json:"to" yaml:"to" validate:"required"`
	Type         EdgeType `json:"type" yaml:"type" validate:"required"`
	Weight       float64  `json:"weight" yaml:"weight" validate:"gte=0,lte=1"`
	Conductivity float64  `json:"conductivity" yaml:"conductivity" validate:"gte=0,lte=1"`
}

// Key returns the identity triple of the edge. No two edges in a topology may
// share a key.
func (e Edge) Key() string {
	return e.From + "->" + e.To + ":" + string(e.Type)
}

// HalfLife is the per-layer decay half-life. Shorter half-lives model
// volatile dimensions, longer ones durable dimensions.
type HalfLife struct {
	Layer Layer         `json:"layer" yaml:"layer"`
	Value time.Duration `json:"value" yaml:"value"`
}
