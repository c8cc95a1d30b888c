package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals/internal/graph"
	"vitals/internal/logging"
)

func readTrace(t *testing.T, dir string) []logging.Event {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "cycles.jsonl"))
	require.NoError(t, err)

	var events []logging.Event
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var ev logging.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		events = append(events, ev)
	}
	return events
}

func TestCycleTraceRecordsTypedEvents(t *testing.T) {
	dir := t.TempDir()
	cl := logging.NewCycleLogger(dir, "debug")
	e := newTestEngine(t, WithCycleLogger(cl))

	_, err := e.Apply("sleep", graph.MotionShock, 0.3, 0, "wearable")
	require.NoError(t, err)
	_, err = e.Propagate(1)
	require.NoError(t, err)
	require.NoError(t, e.RecordOutcome("sleep", true, false))
	cl.Close()

	events := readTrace(t, dir)
	require.Len(t, events, 3)

	assert.Equal(t, logging.KindApply, events[0].Kind)
	require.NotNil(t, events[0].Apply)
	assert.Equal(t, "sleep", events[0].Apply.Node)
	assert.Equal(t, "shock", events[0].Apply.Motion)
	assert.Equal(t, "wearable", events[0].Apply.Source)
	assert.InDelta(t, 0.25, events[0].Apply.Before, 1e-9)
	assert.InDelta(t, 0.55, events[0].Apply.After, 1e-9)

	assert.Equal(t, logging.KindCycle, events[1].Kind)
	require.NotNil(t, events[1].Cycle)
	assert.Equal(t, float64(1), events[1].Cycle.Dt)
	assert.Contains(t, events[1].Cycle.Deltas, "sleep")
	// Debug level records the cycle but not the per-edge breakdown.
	assert.Empty(t, events[1].Cycle.Edges)

	assert.Equal(t, logging.KindOutcome, events[2].Kind)
	require.NotNil(t, events[2].Outcome)
	assert.True(t, events[2].Outcome.Predicted)
	assert.False(t, events[2].Outcome.Actual)
}

func TestCycleTraceEdgeContributionsAtTrace(t *testing.T) {
	dir := t.TempDir()
	cl := logging.NewCycleLogger(dir, "trace")
	e := newTestEngine(t, WithCycleLogger(cl))

	_, err := e.Propagate(1)
	require.NoError(t, err)
	cl.Close()

	events := readTrace(t, dir)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Cycle)

	contributions := events[0].Cycle.Edges
	require.Len(t, contributions, len(e.Topology().Edges))

	// Each recorded contribution names a real edge and its exact pre-clamp
	// delta: recompute one from the resting pressures to check.
	byPair := make(map[string]logging.EdgeContribution, len(contributions))
	for _, c := range contributions {
		byPair[c.From+">"+c.To+">"+c.Type] = c
	}
	for _, edge := range e.Topology().Edges {
		c, ok := byPair[edge.From+">"+edge.To+">"+string(edge.Type)]
		require.True(t, ok, "missing contribution for edge %s -> %s", edge.From, edge.To)
		if edge.Type == graph.EdgeDependency {
			from, _ := e.Topology().Node(edge.From)
			to, _ := e.Topology().Node(edge.To)
			want := edge.Weight * edge.Conductivity * (from.Resting - to.Resting)
			assert.InDelta(t, want, c.Delta, 1e-9)
		}
	}
}
