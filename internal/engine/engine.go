// Package engine implements the pressure propagation engine: a fixed graph
// of life-dimension nodes advanced over discrete cycles by typed transfer
// functions, exponential decay toward rest, threshold-derived health states,
// and outcome-driven threshold calibration.
//
// The engine is single-threaded and synchronous. Every mutating call is a
// complete read-modify-write over the whole state: it reads the current
// state, computes the complete next state, swaps it in, invalidates the
// derived-view cache, and persists. Hosts embedding the engine in a
// concurrent process must serialize all mutating calls behind one lock; the
// engine performs no internal locking.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vitals/internal/calibration"
	"vitals/internal/gates"
	"vitals/internal/graph"
	"vitals/internal/logging"
	"vitals/internal/metrics"
	"vitals/internal/store"
)

// Config holds the engine tunables.
type Config struct {
	// HistoryCap bounds the in-memory ring of post-cycle pressure vectors.
	HistoryCap int

	// Calibration parameterizes threshold calibration.
	Calibration calibration.Config

	// HalfLifeOverrides replaces the topology's per-layer decay half-life
	// for the listed layers.
	HalfLifeOverrides map[graph.Layer]time.Duration
}

// DefaultConfig returns the standard engine parameters.
func DefaultConfig() Config {
	return Config{
		HistoryCap:  64,
		Calibration: calibration.DefaultConfig(),
	}
}

// ApplyResult reports one external perturbation.
type ApplyResult struct {
	Node    string       `json:"node"`
	Motion  graph.Motion `json:"motion"`
	Source  string       `json:"source,omitempty"`
	Before  float64      `json:"before"`
	After   float64      `json:"after"`
	Applied float64      `json:"applied_delta"`
	Damping float64      `json:"damping"`
}

// HistoryEntry is one post-cycle pressure vector.
type HistoryEntry struct {
	At        time.Time          `json:"at"`
	Pressures map[string]float64 `json:"pressures"`
}

// Engine is the propagation engine. Construct with New; the zero value is
// not usable.
type Engine struct {
	topo     graph.Topology
	cfg      Config
	state    State
	outcomes map[string]*calibration.Log
	history  []HistoryEntry
	cache    viewCache

	store   *store.Store
	logger  *slog.Logger
	cycles  *logging.CycleLogger
	metrics *metrics.Registry
	now     func() time.Time
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithStore attaches a persistence store. The engine loads its state from
// the store at construction and persists after every mutating call.
func WithStore(s *store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCycleLogger attaches a JSONL cycle-trace logger. Nil is fine.
func WithCycleLogger(cl *logging.CycleLogger) Option {
	return func(e *Engine) { e.cycles = cl }
}

// WithMetrics attaches a metrics registry. Nil is fine.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New validates the topology and builds an engine. Topology faults
// (duplicate edges, dangling references, threshold violations) are fatal
// here: a broken graph must stop startup, not limp through cycles. If a
// store is attached, prior state and outcome logs are loaded; a missing or
// corrupt save degrades to the fresh default state.
func New(topo graph.Topology, cfg Config, opts ...Option) (*Engine, error) {
	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("engine topology: %w", err)
	}
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = DefaultConfig().HistoryCap
	}
	if cfg.Calibration.LogCap <= 0 {
		cfg.Calibration = calibration.DefaultConfig()
	}

	e := &Engine{
		topo:     topo,
		cfg:      cfg,
		state:    defaultState(topo),
		outcomes: make(map[string]*calibration.Log, len(topo.Nodes)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	for _, n := range topo.Nodes {
		e.outcomes[n.ID] = calibration.NewLog(cfg.Calibration.LogCap)
	}

	if e.store != nil {
		if err := e.loadFromStore(); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// loadFromStore restores state and outcome logs from the attached store.
func (e *Engine) loadFromStore() error {
	ctx := context.Background()

	res, err := e.store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("loading engine state: %w", err)
	}
	if res.Source == store.SourceSaved {
		e.state = stateFromPersisted(e.topo, *res.State)
		e.logger.Debug("restored engine state", "nodes", len(e.state.Pressures), "last_update", e.state.LastUpdate)
	} else {
		e.logger.Debug("starting from default engine state")
	}

	persisted, err := e.store.LoadOutcomes(ctx)
	if err != nil {
		return fmt.Errorf("loading outcome logs: %w", err)
	}
	for node, records := range persisted {
		log, ok := e.outcomes[node]
		if !ok {
			// Outcomes for nodes no longer in the topology are kept
			// in the store but not loaded.
			continue
		}
		for _, rec := range records {
			log.Append(calibration.Outcome{Predicted: rec.Predicted, Actual: rec.Actual, At: rec.At})
		}
	}

	return nil
}

// Topology returns the engine's static topology.
func (e *Engine) Topology() graph.Topology { return e.topo }

// halfLife resolves the decay half-life for a layer, applying config
// overrides over the topology's table.
func (e *Engine) halfLife(layer graph.Layer) time.Duration {
	if hl, ok := e.cfg.HalfLifeOverrides[layer]; ok && hl > 0 {
		return hl
	}
	return e.topo.HalfLife(layer)
}

// Apply perturbs a single node. The delta is damped by the node's inertia:
// effective = delta * clamp(1 - mass * friction, 0, 1). Deltas outside
// [-1, 1] are clamped on input; the post-add pressure is clamped to [0, 1].
// Clamping is the designed recovery, never an error.
func (e *Engine) Apply(nodeID string, motion graph.Motion, delta, friction float64, source string) (ApplyResult, error) {
	node, ok := e.topo.Node(nodeID)
	if !ok {
		return ApplyResult{}, fmt.Errorf("apply %q: %w", nodeID, ErrNotFound)
	}
	if !motion.Valid() {
		return ApplyResult{}, fmt.Errorf("apply %q: motion %q: %w", nodeID, motion, ErrUnknownMotion)
	}

	if delta > 1 {
		delta = 1
	} else if delta < -1 {
		delta = -1
	}

	damping := clamp01(1 - node.Mass*friction)
	before := e.state.Pressures[nodeID]
	after := clamp01(before + delta*damping)

	e.state.Pressures[nodeID] = after
	e.state.UpdateCounts[nodeID]++
	if e.state.MotionCounts[nodeID] == nil {
		e.state.MotionCounts[nodeID] = make(map[graph.Motion]int)
	}
	e.state.MotionCounts[nodeID][motion]++
	e.state.LastUpdate = e.now()
	e.cache.invalidate()

	e.metrics.ObserveApply(string(motion))
	e.metrics.SetPressure(nodeID, string(node.Layer), after)
	e.cycles.Log(logging.Event{Kind: logging.KindApply, Apply: &logging.ApplyEvent{
		Node:    nodeID,
		Motion:  string(motion),
		Source:  source,
		Before:  before,
		After:   after,
		Damping: damping,
	}})

	result := ApplyResult{
		Node:    nodeID,
		Motion:  motion,
		Source:  source,
		Before:  before,
		After:   after,
		Applied: after - before,
		Damping: damping,
	}

	if err := e.persist(); err != nil {
		return result, err
	}
	return result, nil
}

// Propagate advances every node by exactly one diffusion cycle. All edge
// contributions and the entropy drift are computed from the frozen pre-cycle
// snapshot, then applied simultaneously with clamping; no edge ever reads
// another edge's output, so evaluation order cannot change the result.
// Edges referencing a node absent from the state vector are skipped and the
// cycle completes for all others. Returns the post-clamp applied delta per
// node.
func (e *Engine) Propagate(dt float64) (map[string]float64, error) {
	if dt <= 0 {
		dt = 1
	}

	frozen := clonePressures(e.state.Pressures)

	// Per-edge contributions are only collected when the trace wants them.
	var contributions []logging.EdgeContribution
	var record func(graph.Edge, float64)
	if e.cycles.TraceEnabled() {
		record = func(edge graph.Edge, delta float64) {
			contributions = append(contributions, logging.EdgeContribution{
				From:  edge.From,
				To:    edge.To,
				Type:  string(edge.Type),
				Delta: delta,
			})
		}
	}

	pending, skipped := propagateOnce(e.topo, frozen, dt, record)

	applied := make(map[string]float64, len(pending))
	for id, delta := range pending {
		old := frozen[id]
		next := clamp01(old + delta)
		e.state.Pressures[id] = next
		applied[id] = next - old
	}

	if skipped > 0 {
		e.logger.Debug("skipped stale edges during cycle", "count", skipped)
	}

	e.state.LastUpdate = e.now()
	e.appendHistory()
	e.cache.invalidate()

	e.metrics.ObserveCycle(skipped)
	for _, n := range e.topo.Nodes {
		e.metrics.SetPressure(n.ID, string(n.Layer), e.state.Pressures[n.ID])
	}
	e.cycles.Log(logging.Event{Kind: logging.KindCycle, Cycle: &logging.CycleEvent{
		Dt:           dt,
		Deltas:       applied,
		SkippedEdges: skipped,
		Edges:        contributions,
	}})

	if err := e.persist(); err != nil {
		return applied, err
	}
	return applied, nil
}

// Tick applies exponential decay toward zero, independent of propagation:
// if nothing happens, pressure still drifts down at the layer's half-life.
// A zero or negative elapsed is a no-op. Returns the decay amount per node.
func (e *Engine) Tick(elapsed time.Duration) (map[string]float64, error) {
	decayed := make(map[string]float64, len(e.topo.Nodes))
	if elapsed <= 0 {
		return decayed, nil
	}

	for _, n := range e.topo.Nodes {
		old := e.state.Pressures[n.ID]
		next := old * decayFactor(elapsed, e.halfLife(n.Layer))
		e.state.Pressures[n.ID] = next
		decayed[n.ID] = old - next
	}

	e.state.LastUpdate = e.now()
	e.cache.invalidate()

	e.metrics.ObserveTick()
	for _, n := range e.topo.Nodes {
		e.metrics.SetPressure(n.ID, string(n.Layer), e.state.Pressures[n.ID])
	}
	e.cycles.Log(logging.Event{Kind: logging.KindTick, Tick: &logging.TickEvent{
		ElapsedHours: elapsed.Hours(),
		Decayed:      decayed,
	}})

	if err := e.persist(); err != nil {
		return decayed, err
	}
	return decayed, nil
}

// Gate evaluates one node's confidence-qualified classification.
func (e *Engine) Gate(nodeID string) (gates.Gate, error) {
	all, err := e.gatesView()
	if err != nil {
		return gates.Gate{}, err
	}
	g, ok := all[nodeID]
	if !ok {
		return gates.Gate{}, fmt.Errorf("gate %q: %w", nodeID, ErrNotFound)
	}
	g.AgeDays = gates.Age(e.state.LastUpdate, e.now())
	return g, nil
}

// Gates evaluates every node. The result is a copy; mutating it does not
// affect the cache.
func (e *Engine) Gates() (map[string]gates.Gate, error) {
	all, err := e.gatesView()
	if err != nil {
		return nil, err
	}
	age := gates.Age(e.state.LastUpdate, e.now())
	out := make(map[string]gates.Gate, len(all))
	for id, g := range all {
		g.AgeDays = age
		out[id] = g
	}
	return out, nil
}

// gatesView returns the memoized gate map, recomputing it when stale. The
// cached gates are pure state functions; age is wall-clock dependent, so
// Gate and Gates attach it per read instead of freezing it into the cache.
func (e *Engine) gatesView() (map[string]gates.Gate, error) {
	if cached, ok := e.cache.cachedGates(); ok {
		e.metrics.ObserveCache(true)
		return cached, nil
	}
	e.metrics.ObserveCache(false)

	all := make(map[string]gates.Gate, len(e.topo.Nodes))
	for _, n := range e.topo.Nodes {
		all[n.ID] = gates.Evaluate(
			n.ID,
			e.state.Pressures[n.ID],
			n.ThetaLow,
			e.state.Thresholds[n.ID],
			e.state.UpdateCounts[n.ID],
		)
	}
	e.cache.storeGates(all)
	return all, nil
}

// Pressures returns a read-only copy of the current pressure vector, for
// downstream classifiers. They never mutate engine state through it.
func (e *Engine) Pressures() map[string]float64 {
	return clonePressures(e.state.Pressures)
}

// Threshold returns the current calibrated alert threshold for a node.
func (e *Engine) Threshold(nodeID string) (float64, error) {
	th, ok := e.state.Thresholds[nodeID]
	if !ok {
		return 0, fmt.Errorf("threshold %q: %w", nodeID, ErrNotFound)
	}
	return th, nil
}

// UpdateCount returns how many external perturbations a node has received.
func (e *Engine) UpdateCount(nodeID string) int {
	return e.state.UpdateCounts[nodeID]
}

// LastUpdate returns the timestamp of the most recent mutation.
func (e *Engine) LastUpdate() time.Time {
	return e.state.LastUpdate
}

// History returns copies of the retained post-cycle pressure vectors,
// oldest first.
func (e *Engine) History() []HistoryEntry {
	out := make([]HistoryEntry, len(e.history))
	for i, h := range e.history {
		out[i] = HistoryEntry{At: h.At, Pressures: clonePressures(h.Pressures)}
	}
	return out
}

// appendHistory pushes the current pressure vector onto the bounded ring.
func (e *Engine) appendHistory() {
	entry := HistoryEntry{At: e.state.LastUpdate, Pressures: clonePressures(e.state.Pressures)}
	if len(e.history) >= e.cfg.HistoryCap {
		copy(e.history, e.history[1:])
		e.history[len(e.history)-1] = entry
		return
	}
	e.history = append(e.history, entry)
}

// RecordOutcome logs one prediction-vs-outcome pair for a node, feeding the
// calibrator. Predicted is true when the engine called danger, actual is
// true when damage occurred.
func (e *Engine) RecordOutcome(nodeID string, predicted, actual bool) error {
	log, ok := e.outcomes[nodeID]
	if !ok {
		return fmt.Errorf("outcome %q: %w", nodeID, ErrNotFound)
	}

	at := e.now()
	log.Append(calibration.Outcome{Predicted: predicted, Actual: actual, At: at})
	e.cache.invalidate()

	e.cycles.Log(logging.Event{Kind: logging.KindOutcome, Outcome: &logging.OutcomeEvent{
		Node:      nodeID,
		Predicted: predicted,
		Actual:    actual,
	}})

	if e.store != nil {
		rec := store.OutcomeRecord{Node: nodeID, Predicted: predicted, Actual: actual, At: at}
		if err := e.store.AddOutcome(context.Background(), rec, e.cfg.Calibration.LogCap); err != nil {
			return fmt.Errorf("persisting outcome: %w", err)
		}
	}
	return nil
}

// Calibrate nudges a node's alert threshold from its outcome log. Too few
// samples yields an explicit not-applied result, never an error.
func (e *Engine) Calibrate(nodeID string) (calibration.Adjustment, error) {
	log, ok := e.outcomes[nodeID]
	if !ok {
		return calibration.Adjustment{}, fmt.Errorf("calibrate %q: %w", nodeID, ErrNotFound)
	}

	adj := calibration.Calibrate(nodeID, log.Entries(), e.state.Thresholds[nodeID], e.cfg.Calibration)
	if !adj.Applied {
		return adj, nil
	}

	e.state.Thresholds[nodeID] = adj.After
	e.state.LastUpdate = e.now()
	e.cache.invalidate()

	e.metrics.ObserveCalibration(string(adj.Direction))
	e.cycles.Log(logging.Event{Kind: logging.KindCalibration, Calibration: &logging.CalibrationEvent{
		Node:      nodeID,
		Direction: string(adj.Direction),
		Before:    adj.Before,
		After:     adj.After,
	}})
	e.logger.Info("calibrated threshold", "node", nodeID, "direction", adj.Direction, "before", adj.Before, "after", adj.After)

	if err := e.persist(); err != nil {
		return adj, err
	}
	return adj, nil
}

// CalibrateAll calibrates every node and returns the per-node adjustments.
func (e *Engine) CalibrateAll() (map[string]calibration.Adjustment, error) {
	out := make(map[string]calibration.Adjustment, len(e.topo.Nodes))
	for _, n := range e.topo.Nodes {
		adj, err := e.Calibrate(n.ID)
		if err != nil {
			return nil, err
		}
		out[n.ID] = adj
	}
	return out, nil
}

// Snapshot writes an immutable named copy of the current state. An empty
// name gets a generated handle. Names are never overwritten.
func (e *Engine) Snapshot(name string) (store.SnapshotInfo, error) {
	if e.store == nil {
		return store.SnapshotInfo{}, ErrNoStore
	}
	info, err := e.store.SaveSnapshot(context.Background(), name, e.state.toPersisted())
	if err != nil {
		return store.SnapshotInfo{}, err
	}
	e.metrics.ObserveSnapshot()
	e.logger.Info("snapshot written", "name", info.Name)
	return info, nil
}

// ListSnapshots returns the stored snapshots, newest first.
func (e *Engine) ListSnapshots() ([]store.SnapshotInfo, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	return e.store.ListSnapshots(context.Background())
}

// RestoreSnapshot replaces the current state with a named snapshot and
// persists the result.
func (e *Engine) RestoreSnapshot(name string) error {
	if e.store == nil {
		return ErrNoStore
	}
	ps, err := e.store.LoadSnapshot(context.Background(), name)
	if err != nil {
		return err
	}

	e.state = stateFromPersisted(e.topo, *ps)
	e.cache.invalidate()
	e.cycles.Log(logging.Event{Kind: logging.KindRestore, Snapshot: name})

	return e.persist()
}

// Save persists the current state explicitly.
func (e *Engine) Save() error {
	if e.store == nil {
		return ErrNoStore
	}
	return e.persist()
}

// Load re-reads state from the store, replacing the in-memory state. It
// reports which path the load took: a missing or corrupt save degrades to
// the fresh default state.
func (e *Engine) Load() (store.Source, error) {
	if e.store == nil {
		return "", ErrNoStore
	}

	res, err := e.store.LoadState(context.Background())
	if err != nil {
		return "", err
	}
	if res.Source == store.SourceSaved {
		e.state = stateFromPersisted(e.topo, *res.State)
	} else {
		e.state = defaultState(e.topo)
	}
	e.cache.invalidate()
	return res.Source, nil
}

// Reset discards all runtime state and returns every node to its resting
// pressure. Snapshots and outcome logs in the store survive a reset.
func (e *Engine) Reset() error {
	e.state = defaultState(e.topo)
	e.history = nil
	for _, n := range e.topo.Nodes {
		e.outcomes[n.ID] = calibration.NewLog(e.cfg.Calibration.LogCap)
	}
	e.cache.invalidate()
	e.cycles.Log(logging.Event{Kind: logging.KindReset})

	if e.store != nil {
		if err := e.store.ResetState(context.Background()); err != nil {
			return err
		}
	}
	return nil
}

// persist writes the full state to the store, if one is attached.
func (e *Engine) persist() error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SaveState(context.Background(), e.state.toPersisted()); err != nil {
		return fmt.Errorf("persisting engine state: %w", err)
	}
	return nil
}
