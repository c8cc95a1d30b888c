package graph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// minimalTopology returns a two-node topology that passes validation.
func minimalTopology() Topology {
	return Topology{
		Nodes: []Node{
			{ID: "a", Label: "A", Layer: LayerFinancial, Resting: 0.2, EntropyRate: 0.01, Mass: 1.0, ThetaLow: 0.3, ThetaHigh: 0.8},
			{ID: "b", Label: "B", Layer: LayerBiometric, Resting: 0.2, EntropyRate: 0.01, Mass: 1.0, ThetaLow: 0.3, ThetaHigh: 0.8},
		},
		Edges: []Edge{
			{From: "a", To: "b", Type: EdgeDependency, Weight: 0.5, Conductivity: 0.5},
		},
	}
}

func TestDefaultTopology_Valid(t *testing.T) {
	topo := DefaultTopology()
	if err := topo.Validate(); err != nil {
		t.Fatalf("default topology should validate: %v", err)
	}
	if len(topo.Nodes) == 0 || len(topo.Edges) == 0 {
		t.Fatal("default topology should have nodes and edges")
	}

	// Every layer must resolve to a positive half-life.
	for _, layer := range Layers() {
		if topo.HalfLife(layer) <= 0 {
			t.Errorf("layer %s: expected positive half-life", layer)
		}
	}
}

func TestDefaultTopology_FreshValue(t *testing.T) {
	a := DefaultTopology()
	b := DefaultTopology()
	a.Nodes[0].ThetaHigh = 0.99
	if b.Nodes[0].ThetaHigh == 0.99 {
		t.Error("DefaultTopology must return an independent copy")
	}
}

func TestTopology_Node(t *testing.T) {
	topo := minimalTopology()

	n, ok := topo.Node("a")
	if !ok {
		t.Fatal("expected node a to exist")
	}
	if n.Label != "A" {
		t.Errorf("expected label A, got %s", n.Label)
	}

	if _, ok := topo.Node("missing"); ok {
		t.Error("expected missing node lookup to fail")
	}
}

func TestValidate_DuplicateNode(t *testing.T) {
	topo := minimalTopology()
	topo.Nodes = append(topo.Nodes, topo.Nodes[0])

	err := topo.Validate()
	if !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestValidate_DuplicateEdge(t *testing.T) {
	topo := minimalTopology()
	topo.Edges = append(topo.Edges, topo.Edges[0])

	err := topo.Validate()
	if !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("expected ErrDuplicateEdge, got %v", err)
	}
}

func TestValidate_SameEndpointsDifferentType(t *testing.T) {
	// Two edges between the same endpoints are fine when their types differ.
	topo := minimalTopology()
	topo.Edges = append(topo.Edges, Edge{From: "a", To: "b", Type: EdgeBuffer, Weight: 0.5, Conductivity: 0.5})

	if err := topo.Validate(); err != nil {
		t.Errorf("edges with distinct types should be allowed: %v", err)
	}
}

func TestValidate_DanglingEdge(t *testing.T) {
	topo := minimalTopology()
	topo.Edges = append(topo.Edges, Edge{From: "a", To: "ghost", Type: EdgeAmplify, Weight: 0.5, Conductivity: 0.5})

	err := topo.Validate()
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestValidate_ThresholdOrder(t *testing.T) {
	topo := minimalTopology()
	topo.Nodes[0].ThetaLow = 0.8
	topo.Nodes[0].ThetaHigh = 0.8

	err := topo.Validate()
	if !errors.Is(err, ErrThresholdOrder) {
		t.Errorf("expected ErrThresholdOrder, got %v", err)
	}
}

func TestValidate_UnknownEdgeType(t *testing.T) {
	topo := minimalTopology()
	topo.Edges[0].Type = "osmosis"

	err := topo.Validate()
	if !errors.Is(err, ErrUnknownEdgeType) {
		t.Errorf("expected ErrUnknownEdgeType, got %v", err)
	}
}

func TestValidate_BadNodeID(t *testing.T) {
	topo := minimalTopology()
	topo.Nodes[0].ID = "Not Valid"
	topo.Edges = nil

	if err := topo.Validate(); err == nil {
		t.Error("expected error for malformed node id")
	}
}

func TestValidate_FieldRanges(t *testing.T) {
	topo := minimalTopology()
	topo.Edges[0].Weight = 1.5

	if err := topo.Validate(); err == nil {
		t.Error("expected error for weight > 1")
	}

	topo = minimalTopology()
	topo.Nodes[0].Mass = 0

	if err := topo.Validate(); err == nil {
		t.Error("expected error for zero mass")
	}
}

func TestLoad_YAML(t *testing.T) {
	content := `
nodes:
  - id: alpha
    label: Alpha
    layer: financial
    resting: 0.2
    entropy_rate: 0.01
    mass: 1.0
    theta_low: 0.3
    theta_high: 0.8
  - id: beta
    label: Beta
    layer: external
    resting: 0.1
    entropy_rate: 0.0
    mass: 0.5
    theta_low: 0.4
    theta_high: 0.9
edges:
  - from: alpha
    to: beta
    type: dependency
    weight: 0.7
    conductivity: 0.9
half_life_days:
  external: 2
`
	path := filepath.Join(t.TempDir(), "topology.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	topo, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(topo.Nodes) != 2 || len(topo.Edges) != 1 {
		t.Fatalf("unexpected topology shape: %d nodes, %d edges", len(topo.Nodes), len(topo.Edges))
	}
	if got := topo.HalfLife(LayerExternal); got != 48*time.Hour {
		t.Errorf("expected 48h external half-life, got %v", got)
	}
	// Layers without an override fall back to defaults.
	if got := topo.HalfLife(LayerFinancial); got != 45*24*time.Hour {
		t.Errorf("expected default financial half-life, got %v", got)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("nodes: {not a list}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
