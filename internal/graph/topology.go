package graph

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for construction-time data-integrity faults. All of them
// are fatal to engine startup.
var (
	ErrDuplicateNode    = errors.New("duplicate node id")
	ErrDuplicateEdge    = errors.New("duplicate edge")
	ErrInvalidReference = errors.New("edge references unknown node")
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrUnknownEdgeType  = errors.New("unknown edge type")
	ErrThresholdOrder   = errors.New("theta_low must be strictly below theta_high")
)

var nodeIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Topology is the full static graph: nodes, edges, and per-layer half-lives.
// It is a plain value; build one with DefaultTopology, Load, or by hand, then
// call Validate before handing it to the engine.
type Topology struct {
	Nodes     []Node                  `json:"nodes" yaml:"nodes" validate:"required,min=1,dive"`
	Edges     []Edge                  `json:"edges" yaml:"edges" validate:"dive"`
	HalfLives map[Layer]time.Duration `json:"half_lives" yaml:"half_lives"`
}

// Node returns the node with the given ID, if present.
func (t Topology) Node(id string) (Node, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns all node IDs in declaration order.
func (t Topology) NodeIDs() []string {
	ids := make([]string, len(t.Nodes))
	for i, n := range t.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// HalfLife returns the decay half-life for a layer, falling back to the
// default table for layers the topology does not override.
func (t Topology) HalfLife(layer Layer) time.Duration {
	if hl, ok := t.HalfLives[layer]; ok && hl > 0 {
		return hl
	}
	return defaultHalfLives[layer]
}

// Validate checks every construction-time invariant: struct-level field
// ranges, node ID shape, closed enums, threshold ordering, duplicate nodes
// and edges, and dangling edge references.
func (t Topology) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("topology fields: %w", err)
	}

	seen := make(map[string]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		if !nodeIDPattern.MatchString(n.ID) {
			return fmt.Errorf("node %q: id must match %s", n.ID, nodeIDPattern)
		}
		if seen[n.ID] {
			return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateNode)
		}
		seen[n.ID] = true

		if !n.Layer.Valid() {
			return fmt.Errorf("node %q: layer %q: %w", n.ID, n.Layer, ErrUnknownLayer)
		}
		// Cross-field check the validator tags cannot express.
		if n.ThetaLow >= n.ThetaHigh {
			return fmt.Errorf("node %q (low=%.2f high=%.2f): %w", n.ID, n.ThetaLow, n.ThetaHigh, ErrThresholdOrder)
		}
	}

	edgeKeys := make(map[string]bool, len(t.Edges))
	for _, e := range t.Edges {
		if !e.Type.Valid() {
			return fmt.Errorf("edge %s->%s: type %q: %w", e.From, e.To, e.Type, ErrUnknownEdgeType)
		}
		if !seen[e.From] {
			return fmt.Errorf("edge %s: from %q: %w", e.Key(), e.From, ErrInvalidReference)
		}
		if !seen[e.To] {
			return fmt.Errorf("edge %s: to %q: %w", e.Key(), e.To, ErrInvalidReference)
		}
		if edgeKeys[e.Key()] {
			return fmt.Errorf("edge %s: %w", e.Key(), ErrDuplicateEdge)
		}
		edgeKeys[e.Key()] = true
	}

	for layer := range t.HalfLives {
		if !layer.Valid() {
			return fmt.Errorf("half_lives: layer %q: %w", layer, ErrUnknownLayer)
		}
	}

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// topologyFile is the YAML wire shape. Half-lives are expressed in days
// because that is the natural unit for life-dimension decay.
type topologyFile struct {
	Nodes        []Node            `yaml:"nodes"`
	Edges        []Edge            `yaml:"edges"`
	HalfLifeDays map[Layer]float64 `yaml:"half_life_days"`
}

// Load reads a topology from a YAML file and validates it.
func Load(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("reading topology file: %w", err)
	}

	var tf topologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return Topology{}, fmt.Errorf("parsing topology file: %w", err)
	}

	topo := Topology{Nodes: tf.Nodes, Edges: tf.Edges}
	if len(tf.HalfLifeDays) > 0 {
		topo.HalfLives = make(map[Layer]time.Duration, len(tf.HalfLifeDays))
		for layer, days := range tf.HalfLifeDays {
			topo.HalfLives[layer] = time.Duration(days * 24 * float64(time.Hour))
		}
	}

	if err := topo.Validate(); err != nil {
		return Topology{}, fmt.Errorf("topology %s: %w", path, err)
	}
	return topo, nil
}
