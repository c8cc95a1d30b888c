package engine

import "vitals/internal/graph"

// bufferCeiling caps how much pressure a buffer edge can absorb from its
// target in one cycle.
const bufferCeiling = 0.3

// transferFunc computes one edge's contribution to its target's pending
// delta. Both pressures come from the frozen pre-cycle snapshot, never from
// values written during the cycle.
type transferFunc func(pFrom, pTo float64, e graph.Edge) float64

// transferFuncs is the closed dispatch table from edge type to transfer
// function. Topology validation guarantees every edge type has an entry, so
// there is no name-based lookup failure at cycle time.
var transferFuncs = map[graph.EdgeType]transferFunc{
	// Equalizing flow toward the upstream value.
	graph.EdgeDependency: func(pFrom, pTo float64, e graph.Edge) float64 {
		return e.Weight * e.Conductivity * (pFrom - pTo)
	},
	// Absorbs up to a fixed ceiling, never amplifies.
	graph.EdgeBuffer: func(pFrom, pTo float64, e graph.Edge) float64 {
		return -min64(pTo, bufferCeiling) * e.Weight * e.Conductivity
	},
	// A healthy substitute node drains the target.
	graph.EdgeSubstitution: func(pFrom, pTo float64, e graph.Edge) float64 {
		return -max64(0, 1-pFrom) * pTo * e.Weight * 0.5
	},
	// Multiplicative, self-reinforcing coupling; only grows when both
	// ends are already non-zero.
	graph.EdgeAmplify: func(pFrom, pTo float64, e graph.Edge) float64 {
		return e.Weight * e.Conductivity * pFrom * pTo
	},
}

// propagateOnce computes one full diffusion cycle from a frozen snapshot.
// It returns the pending (pre-clamp) delta per node and the number of edges
// skipped because an endpoint was missing from the snapshot. Edges may be
// evaluated in any order: every contribution reads only frozen values.
// A non-nil record is called with each edge's contribution, for trace
// logging.
func propagateOnce(topo graph.Topology, frozen map[string]float64, dt float64, record func(graph.Edge, float64)) (pending map[string]float64, skipped int) {
	pending = make(map[string]float64, len(frozen))
	for _, n := range topo.Nodes {
		if _, ok := frozen[n.ID]; !ok {
			continue
		}
		pending[n.ID] = n.EntropyRate * dt
	}

	for _, e := range topo.Edges {
		pFrom, okFrom := frozen[e.From]
		pTo, okTo := frozen[e.To]
		if !okFrom || !okTo {
			// Stale edge: skip it and let the rest of the cycle
			// complete.
			skipped++
			continue
		}
		delta := transferFuncs[e.Type](pFrom, pTo, e)
		pending[e.To] += delta
		if record != nil {
			record(e, delta)
		}
	}

	return pending, skipped
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
