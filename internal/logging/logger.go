// Package logging carries the two log surfaces of vitals: a leveled
// slog.Logger on stderr for operational messages, and a CycleLogger that
// appends one typed JSONL record per engine mutation to
// .vitals/cycles.jsonl. The cycle trace is the audit trail for "why is this
// node pressuring" questions: every apply, cycle, tick, outcome,
// calibration, restore, and reset leaves a line.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace sits below Debug. Debug turns the cycle trace on; trace
// additionally records the per-edge contributions inside each cycle record.
const LevelTrace = slog.LevelDebug - 4

var levelNames = map[string]slog.Level{
	"info":  slog.LevelInfo,
	"debug": slog.LevelDebug,
	"trace": LevelTrace,
}

// ParseLevel maps "info", "debug", or "trace" (case-insensitive) to a
// slog.Level. Anything else is info.
func ParseLevel(s string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(s)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// NewLogger builds the leveled operational logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: labelTraceLevel,
	})
	return slog.New(h)
}

// labelTraceLevel renders the custom trace level as TRACE rather than
// slog's DEBUG-4 fallback.
func labelTraceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// Kind names the engine mutation a cycle-trace record describes.
type Kind string

const (
	KindApply       Kind = "apply"
	KindCycle       Kind = "cycle"
	KindTick        Kind = "tick"
	KindOutcome     Kind = "outcome"
	KindCalibration Kind = "calibration"
	KindRestore     Kind = "restore"
	KindReset       Kind = "reset"
)

// ApplyEvent records one external perturbation.
type ApplyEvent struct {
	Node    string  `json:"node"`
	Motion  string  `json:"motion"`
	Source  string  `json:"source,omitempty"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
	Damping float64 `json:"damping"`
}

// EdgeContribution is one edge's pre-clamp delta within a cycle. Only
// recorded at trace level.
type EdgeContribution struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Type  string  `json:"type"`
	Delta float64 `json:"delta"`
}

// CycleEvent records one propagation cycle: the post-clamp delta per node,
// how many stale edges were skipped, and at trace level the contribution of
// every edge that fired.
type CycleEvent struct {
	Dt           float64            `json:"dt"`
	Deltas       map[string]float64 `json:"deltas"`
	SkippedEdges int                `json:"skipped_edges"`
	Edges        []EdgeContribution `json:"edges,omitempty"`
}

// TickEvent records one decay pass.
type TickEvent struct {
	ElapsedHours float64            `json:"elapsed_hours"`
	Decayed      map[string]float64 `json:"decayed"`
}

// OutcomeEvent records one prediction-vs-reality observation.
type OutcomeEvent struct {
	Node      string `json:"node"`
	Predicted bool   `json:"predicted"`
	Actual    bool   `json:"actual"`
}

// CalibrationEvent records one applied threshold adjustment.
type CalibrationEvent struct {
	Node      string  `json:"node"`
	Direction string  `json:"direction"`
	Before    float64 `json:"before"`
	After     float64 `json:"after"`
}

// Event is one line of the cycle trace. Exactly one payload field is set,
// matching Kind; restore carries only the snapshot name and reset nothing.
type Event struct {
	Time        string            `json:"time"`
	Kind        Kind              `json:"kind"`
	Apply       *ApplyEvent       `json:"apply,omitempty"`
	Cycle       *CycleEvent       `json:"cycle,omitempty"`
	Tick        *TickEvent        `json:"tick,omitempty"`
	Outcome     *OutcomeEvent     `json:"outcome,omitempty"`
	Calibration *CalibrationEvent `json:"calibration,omitempty"`
	Snapshot    string            `json:"snapshot,omitempty"`
}

// CycleLogger appends cycle-trace records to a JSONL file. Safe for
// concurrent use, and a nil *CycleLogger is a valid no-op logger so the
// engine never checks whether tracing is wired.
type CycleLogger struct {
	mu    sync.Mutex
	file  *os.File
	enc   *json.Encoder
	trace bool
}

// NewCycleLogger opens dir/cycles.jsonl for append. At "info" (the default
// level) it returns nil: no trace, no file. A file that cannot be opened
// also yields nil rather than an error; tracing is never worth failing
// startup over.
func NewCycleLogger(dir string, level string) *CycleLogger {
	lvl := ParseLevel(level)
	if lvl > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "cycles.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &CycleLogger{
		file:  f,
		enc:   json.NewEncoder(f),
		trace: lvl == LevelTrace,
	}
}

// TraceEnabled reports whether the logger wants per-edge contributions.
// False on nil receiver, so callers can skip collecting them entirely.
func (cl *CycleLogger) TraceEnabled() bool {
	return cl != nil && cl.trace
}

// Log appends one record, stamping it with the current UTC time. No-op on
// nil receiver or after Close.
func (cl *CycleLogger) Log(ev Event) {
	if cl == nil {
		return
	}
	ev.Time = time.Now().UTC().Format(time.RFC3339Nano)

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.enc == nil {
		return
	}
	_ = cl.enc.Encode(ev)
}

// Close releases the trace file. No-op on nil receiver.
func (cl *CycleLogger) Close() {
	if cl == nil {
		return
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.file != nil {
		cl.file.Close()
		cl.file = nil
		cl.enc = nil
	}
}
