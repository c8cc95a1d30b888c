package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState() PersistedState {
	return PersistedState{
		Pressures:        map[string]float64{"a": 0.42, "b": 0.13},
		UpdateCounts:     map[string]int{"a": 3},
		MotionCounts:     map[string]map[string]int{"a": {"impulse": 2, "drift": 1}},
		Thresholds:       map[string]float64{"a": 0.8, "b": 0.75},
		LastUpdateMillis: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := sampleState()
	require.NoError(t, s.SaveState(ctx, want))

	res, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceSaved, res.Source)
	require.NotNil(t, res.State)

	assert.Equal(t, want.Pressures, res.State.Pressures)
	assert.Equal(t, want.UpdateCounts, res.State.UpdateCounts)
	assert.Equal(t, want.MotionCounts, res.State.MotionCounts)
	assert.Equal(t, want.Thresholds, res.State.Thresholds)
	assert.Equal(t, want.LastUpdateMillis, res.State.LastUpdateMillis)
}

func TestSaveState_Overwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleState()
	require.NoError(t, s.SaveState(ctx, first))

	second := sampleState()
	second.Pressures["a"] = 0.99
	require.NoError(t, s.SaveState(ctx, second))

	res, err := s.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.99, res.State.Pressures["a"])
}

func TestLoadState_MissingRow(t *testing.T) {
	s := openTestStore(t)

	res, err := s.LoadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Nil(t, res.State)
}

func TestLoadState_CorruptPayload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `INSERT INTO engine_state (id, state, last_update_ms) VALUES (1, 'not json', 0)`)
	require.NoError(t, err)

	// Corruption degrades to the default source, never an error.
	res, err := s.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Nil(t, res.State)
}

func TestResetState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveState(ctx, sampleState()))
	require.NoError(t, s.ResetState(ctx))

	res, err := s.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
}

func TestSnapshots_InsertOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	info, err := s.SaveSnapshot(ctx, "before-launch", sampleState())
	require.NoError(t, err)
	assert.Equal(t, "before-launch", info.Name)

	// A snapshot is immutable: the same name can never be written twice.
	_, err = s.SaveSnapshot(ctx, "before-launch", sampleState())
	assert.True(t, errors.Is(err, ErrSnapshotExists), "expected ErrSnapshotExists, got %v", err)

	st, err := s.LoadSnapshot(ctx, "before-launch")
	require.NoError(t, err)
	assert.Equal(t, 0.42, st.Pressures["a"])
}

func TestSnapshots_GeneratedName(t *testing.T) {
	s := openTestStore(t)

	info, err := s.SaveSnapshot(context.Background(), "", sampleState())
	require.NoError(t, err)
	assert.Contains(t, info.Name, "snap-")
}

func TestSnapshots_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadSnapshot(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrSnapshotNotFound), "expected ErrSnapshotNotFound, got %v", err)
}

func TestListSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSnapshot(ctx, "one", sampleState())
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "two", sampleState())
	require.NoError(t, err)

	infos, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestOutcomes_PersistAndPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		rec := OutcomeRecord{Node: "a", Predicted: i%2 == 0, Actual: true, At: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.AddOutcome(ctx, rec, 3))
	}
	require.NoError(t, s.AddOutcome(ctx, OutcomeRecord{Node: "b", Predicted: true, Actual: false, At: base}, 3))

	outcomes, err := s.LoadOutcomes(ctx)
	require.NoError(t, err)

	// Node a pruned to cap, node b untouched.
	require.Len(t, outcomes["a"], 3)
	require.Len(t, outcomes["b"], 1)

	// Oldest entries were the ones evicted.
	assert.Equal(t, base.Add(2*time.Minute).UnixMilli(), outcomes["a"][0].At.UnixMilli())
}

func TestBackup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveState(ctx, sampleState()))
	_, err := s.SaveSnapshot(ctx, "audit", sampleState())
	require.NoError(t, err)
	require.NoError(t, s.AddOutcome(ctx, OutcomeRecord{Node: "a", Predicted: true, Actual: true, At: time.Now()}, 10))

	path := filepath.Join(t.TempDir(), "backups", "vitals.json")
	b, err := s.Backup(ctx, path)
	require.NoError(t, err)

	assert.NotNil(t, b.State)
	assert.Len(t, b.Snapshots, 1)
	assert.Len(t, b.Outcomes["a"], 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "audit")
}

func TestOpen_Reopens(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	s, err := Open(root, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveState(ctx, sampleState()))
	require.NoError(t, s.Close())

	s2, err := Open(root, nil)
	require.NoError(t, err)
	defer s2.Close()

	res, err := s2.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSaved, res.Source)
}
