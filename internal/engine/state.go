package engine

import (
	"time"

	"vitals/internal/graph"
	"vitals/internal/store"
)

// State is the complete mutable engine state: the pressure vector, the
// per-node update and motion counters, the calibrated thresholds, and the
// timestamp of the most recent mutation. Health states are never part of
// it; they are derived from pressure on demand.
type State struct {
	Pressures    map[string]float64
	UpdateCounts map[string]int
	MotionCounts map[string]map[graph.Motion]int
	Thresholds   map[string]float64
	LastUpdate   time.Time
}

// defaultState builds a fresh state from the topology: every node at its
// resting pressure with its initial threshold and zeroed counters.
func defaultState(topo graph.Topology) State {
	st := State{
		Pressures:    make(map[string]float64, len(topo.Nodes)),
		UpdateCounts: make(map[string]int, len(topo.Nodes)),
		MotionCounts: make(map[string]map[graph.Motion]int, len(topo.Nodes)),
		Thresholds:   make(map[string]float64, len(topo.Nodes)),
	}
	for _, n := range topo.Nodes {
		st.Pressures[n.ID] = n.Resting
		st.Thresholds[n.ID] = n.ThetaHigh
	}
	return st
}

// toPersisted converts the state to its wire shape.
func (st State) toPersisted() store.PersistedState {
	motions := make(map[string]map[string]int, len(st.MotionCounts))
	for node, counts := range st.MotionCounts {
		m := make(map[string]int, len(counts))
		for motion, count := range counts {
			m[string(motion)] = count
		}
		motions[node] = m
	}

	var ms int64
	if !st.LastUpdate.IsZero() {
		ms = st.LastUpdate.UnixMilli()
	}

	return store.PersistedState{
		Pressures:        clonePressures(st.Pressures),
		UpdateCounts:     cloneCounts(st.UpdateCounts),
		MotionCounts:     motions,
		Thresholds:       clonePressures(st.Thresholds),
		LastUpdateMillis: ms,
	}
}

// stateFromPersisted rebuilds engine state from the wire shape, reconciled
// against the topology: nodes added since the save start at their resting
// pressure, nodes removed since the save are dropped, and missing
// thresholds fall back to the node's initial theta_high.
func stateFromPersisted(topo graph.Topology, ps store.PersistedState) State {
	st := defaultState(topo)

	for _, n := range topo.Nodes {
		if p, ok := ps.Pressures[n.ID]; ok {
			st.Pressures[n.ID] = clamp01(p)
		}
		if c, ok := ps.UpdateCounts[n.ID]; ok {
			st.UpdateCounts[n.ID] = c
		}
		if th, ok := ps.Thresholds[n.ID]; ok {
			st.Thresholds[n.ID] = th
		}
		if counts, ok := ps.MotionCounts[n.ID]; ok {
			m := make(map[graph.Motion]int, len(counts))
			for motion, count := range counts {
				m[graph.Motion(motion)] = count
			}
			st.MotionCounts[n.ID] = m
		}
	}

	if ps.LastUpdateMillis > 0 {
		st.LastUpdate = time.UnixMilli(ps.LastUpdateMillis)
	}
	return st
}

func clonePressures(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
