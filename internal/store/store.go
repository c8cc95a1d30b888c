// Package store persists engine state to SQLite. It holds the singleton
// engine-state row, named immutable snapshots, and the per-node outcome log.
// Persistence is synchronous; writes are transactional but not guaranteed
// atomic against a process crash mid-write.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Sentinel errors surfaced to the engine.
var (
	ErrSnapshotExists   = errors.New("snapshot name already exists")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// PersistedState is the wire shape of the engine state: the full value
// vector, the update and motion counters, the calibrated thresholds, and
// the timestamp of the most recent mutation.
type PersistedState struct {
	Pressures        map[string]float64        `json:"values"`
	UpdateCounts     map[string]int            `json:"update_counts"`
	MotionCounts     map[string]map[string]int `json:"motion_counts"`
	Thresholds       map[string]float64        `json:"thresholds"`
	LastUpdateMillis int64                     `json:"last_update_timestamp_millis"`
}

// Source tells callers which path a load took, so tests can assert on the
// fail-soft fallback explicitly instead of guessing from the values.
type Source string

const (
	// SourceSaved means the state came from a prior Save.
	SourceSaved Source = "saved"
	// SourceDefault means nothing usable was stored; the caller should
	// start from the fresh default state.
	SourceDefault Source = "default"
)

// LoadResult is the outcome of LoadState. State is nil when Source is
// SourceDefault.
type LoadResult struct {
	State  *PersistedState
	Source Source
}

// SnapshotInfo describes one named snapshot.
type SnapshotInfo struct {
	Name    string    `json:"name"`
	TakenAt time.Time `json:"taken_at"`
}

// OutcomeRecord is one persisted prediction-vs-outcome pair.
type OutcomeRecord struct {
	Node      string    `json:"node"`
	Predicted bool      `json:"predicted"`
	Actual    bool      `json:"actual"`
	At        time.Time `json:"at"`
}

// Store wraps the SQLite database under <root>/.vitals/vitals.db.
type Store struct {
	db     *sql.DB
	dir    string
	dbPath string
	logger *slog.Logger
}

// Open creates or opens the store rooted at root. The .vitals directory is
// created if missing. A nil logger falls back to slog.Default.
func Open(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Join(root, ".vitals")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating .vitals directory: %w", err)
	}

	dbPath := filepath.Join(dir, "vitals.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db, dir: dir, dbPath: dbPath, logger: logger}, nil
}

// Dir returns the .vitals directory the store lives in.
func (s *Store) Dir() string { return s.dir }

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveState overwrites the singleton engine-state row in one transaction.
// There are no partial or append writes; the row always holds a complete
// state.
func (s *Store) SaveState(ctx context.Context, st PersistedState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO engine_state (id, state, last_update_ms)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, last_update_ms = excluded.last_update_ms
	`, string(payload), st.LastUpdateMillis)
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// LoadState reads the singleton state row. A missing row or corrupt payload
// is not an error: the result reports SourceDefault and the corruption is
// logged, so a damaged database degrades to a fresh start instead of
// refusing to boot.
func (s *Store) LoadState(ctx context.Context) (LoadResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM engine_state WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return LoadResult{Source: SourceDefault}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("reading state row: %w", err)
	}

	var st PersistedState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		s.logger.Warn("stored engine state is corrupt, falling back to default", "error", err)
		return LoadResult{Source: SourceDefault}, nil
	}
	if st.Pressures == nil {
		s.logger.Warn("stored engine state has no value vector, falling back to default")
		return LoadResult{Source: SourceDefault}, nil
	}

	return LoadResult{State: &st, Source: SourceSaved}, nil
}

// ResetState deletes the singleton state row. Snapshots and outcomes are
// kept; a reset engine can still be compared against its history.
func (s *Store) ResetState(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM engine_state WHERE id = 1`); err != nil {
		return fmt.Errorf("resetting state: %w", err)
	}
	return nil
}

// SaveSnapshot writes an immutable named copy of the state. Names are
// insert-only: writing an existing name fails with ErrSnapshotExists. An
// empty name gets a generated snap-<uuid> handle.
func (s *Store) SaveSnapshot(ctx context.Context, name string, st PersistedState) (SnapshotInfo, error) {
	if name == "" {
		name = "snap-" + uuid.NewString()
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("encoding snapshot: %w", err)
	}

	takenAt := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, taken_at_ms, state) VALUES (?, ?, ?)
	`, name, takenAt.UnixMilli(), string(payload))
	if err != nil {
		if isUniqueViolation(err) {
			return SnapshotInfo{}, fmt.Errorf("snapshot %q: %w", name, ErrSnapshotExists)
		}
		return SnapshotInfo{}, fmt.Errorf("writing snapshot %q: %w", name, err)
	}

	return SnapshotInfo{Name: name, TakenAt: takenAt}, nil
}

// LoadSnapshot reads a named snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (*PersistedState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM snapshots WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", name, err)
	}

	var st PersistedState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", name, err)
	}
	return &st, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, taken_at_ms FROM snapshots ORDER BY taken_at_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var name string
		var ms int64
		if err := rows.Scan(&name, &ms); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		infos = append(infos, SnapshotInfo{Name: name, TakenAt: time.UnixMilli(ms)})
	}
	return infos, rows.Err()
}

// AddOutcome appends one outcome for a node and prunes the node's log down
// to cap entries, oldest first.
func (s *Store) AddOutcome(ctx context.Context, rec OutcomeRecord, cap int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning outcome tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outcomes (node, predicted, actual, at_ms) VALUES (?, ?, ?, ?)
	`, rec.Node, rec.Predicted, rec.Actual, rec.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}

	if cap > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM outcomes WHERE node = ? AND id NOT IN (
				SELECT id FROM outcomes WHERE node = ? ORDER BY id DESC LIMIT ?
			)
		`, rec.Node, rec.Node, cap)
		if err != nil {
			return fmt.Errorf("pruning outcomes: %w", err)
		}
	}

	return tx.Commit()
}

// LoadOutcomes returns all persisted outcomes grouped by node, oldest first
// within each node.
func (s *Store) LoadOutcomes(ctx context.Context) (map[string][]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node, predicted, actual, at_ms FROM outcomes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("loading outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]OutcomeRecord)
	for rows.Next() {
		var rec OutcomeRecord
		var ms int64
		if err := rows.Scan(&rec.Node, &rec.Predicted, &rec.Actual, &ms); err != nil {
			return nil, fmt.Errorf("scanning outcome row: %w", err)
		}
		rec.At = time.UnixMilli(ms)
		out[rec.Node] = append(out[rec.Node], rec)
	}
	return out, rows.Err()
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. modernc.org/sqlite does not export a typed error for this, so
// match on the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
