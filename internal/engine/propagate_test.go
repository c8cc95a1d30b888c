package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals/internal/graph"
)

// pairTopo builds a two-node topology with a single edge, zero entropy, so
// transfer arithmetic can be asserted exactly.
func pairTopo(restA, restB float64, edge graph.Edge) graph.Topology {
	return graph.Topology{
		Nodes: []graph.Node{
			{ID: "a", Label: "A", Layer: graph.LayerFinancial, Resting: restA, Mass: 1, ThetaLow: 0.3, ThetaHigh: 0.7},
			{ID: "b", Label: "B", Layer: graph.LayerOperational, Resting: restB, Mass: 1, ThetaLow: 0.3, ThetaHigh: 0.7},
		},
		Edges: []graph.Edge{edge},
	}
}

func TestPropagateDependencyEqualizes(t *testing.T) {
	topo := pairTopo(0.8, 0.2, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeDependency, Weight: 0.9, Conductivity: 0.95,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)

	// 0.9 * 0.95 * (0.8 - 0.2) = 0.513
	assert.InDelta(t, 0.513, applied["b"], 1e-9)
	assert.InDelta(t, 0.713, e.Pressures()["b"], 1e-9)
	// The source node only receives its (zero) entropy drift.
	assert.InDelta(t, 0, applied["a"], 1e-9)
}

func TestPropagateAmplifyCompounds(t *testing.T) {
	topo := pairTopo(0.6, 0.6, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeAmplify, Weight: 0.8, Conductivity: 0.85,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)

	// 0.8 * 0.85 * 0.6 * 0.6 = 0.2448
	assert.InDelta(t, 0.2448, applied["b"], 1e-9)
	assert.InDelta(t, 0.8448, e.Pressures()["b"], 1e-9)
}

func TestPropagateAmplifyDeadAtZero(t *testing.T) {
	topo := pairTopo(0, 0.6, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeAmplify, Weight: 0.8, Conductivity: 0.85,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)
	assert.InDelta(t, 0, applied["b"], 1e-9)
}

func TestPropagateBufferAbsorbsToCeiling(t *testing.T) {
	topo := pairTopo(0.2, 0.5, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeBuffer, Weight: 0.6, Conductivity: 0.5,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)

	// -min(0.5, 0.3) * 0.6 * 0.5 = -0.09
	assert.InDelta(t, -0.09, applied["b"], 1e-9)
	assert.InDelta(t, 0.41, e.Pressures()["b"], 1e-9)
}

func TestPropagateBufferLowPressureTarget(t *testing.T) {
	// Below the ceiling the absorption scales with the target itself.
	topo := pairTopo(0.2, 0.1, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeBuffer, Weight: 0.6, Conductivity: 0.5,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)
	assert.InDelta(t, -0.03, applied["b"], 1e-9)
}

func TestPropagateSubstitutionDrains(t *testing.T) {
	topo := pairTopo(0.1, 0.6, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeSubstitution, Weight: 0.8, Conductivity: 1,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)

	// -max(0, 1-0.1) * 0.6 * 0.8 * 0.5 = -0.216
	assert.InDelta(t, -0.216, applied["b"], 1e-9)
}

func TestPropagateSubstitutionUselessWhenStressed(t *testing.T) {
	// A fully stressed substitute provides no relief.
	topo := pairTopo(1, 0.6, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeSubstitution, Weight: 0.8, Conductivity: 1,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)
	assert.InDelta(t, 0, applied["b"], 1e-9)
}

func TestPropagateClampsAtBounds(t *testing.T) {
	topo := pairTopo(1, 0.9, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeAmplify, Weight: 1, Conductivity: 1,
	})
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(1)
	require.NoError(t, err)

	// Raw delta is 0.9, post-clamp gain only 0.1.
	assert.InDelta(t, 0.1, applied["b"], 1e-9)
	assert.Equal(t, 1.0, e.Pressures()["b"])
}

func TestPropagateEntropySeedScalesWithDt(t *testing.T) {
	topo := graph.Topology{
		Nodes: []graph.Node{
			{ID: "a", Label: "A", Layer: graph.LayerExternal, Resting: 0.1, EntropyRate: 0.01, Mass: 1, ThetaLow: 0.3, ThetaHigh: 0.7},
		},
	}
	e, err := New(topo, DefaultConfig())
	require.NoError(t, err)

	applied, err := e.Propagate(2)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, applied["a"], 1e-9)
}

func TestPropagateOnceOrderIndependent(t *testing.T) {
	topo := graph.DefaultTopology()
	frozen := make(map[string]float64, len(topo.Nodes))
	for i, n := range topo.Nodes {
		frozen[n.ID] = float64(i) / float64(len(topo.Nodes))
	}

	forward, skippedF := propagateOnce(topo, frozen, 1, nil)

	reversed := topo
	reversed.Edges = make([]graph.Edge, len(topo.Edges))
	for i, e := range topo.Edges {
		reversed.Edges[len(topo.Edges)-1-i] = e
	}
	backward, skippedB := propagateOnce(reversed, frozen, 1, nil)

	assert.Equal(t, skippedF, skippedB)
	require.Equal(t, len(forward), len(backward))
	for id, delta := range forward {
		assert.InDelta(t, delta, backward[id], 1e-12, "node %s", id)
	}
}

func TestPropagateOnceSkipsStaleEdges(t *testing.T) {
	topo := pairTopo(0.8, 0.2, graph.Edge{
		From: "a", To: "b", Type: graph.EdgeDependency, Weight: 0.9, Conductivity: 0.95,
	})

	// Snapshot missing one endpoint: the edge is skipped, the rest of the
	// cycle still completes.
	frozen := map[string]float64{"a": 0.8}
	pending, skipped := propagateOnce(topo, frozen, 1, nil)

	assert.Equal(t, 1, skipped)
	assert.Contains(t, pending, "a")
	assert.NotContains(t, pending, "b")
}
