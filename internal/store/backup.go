package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BackupFormat is the JSON structure for a full backup file: the current
// engine state plus every named snapshot and the outcome log, for audit and
// off-machine recovery.
type BackupFormat struct {
	Version   int                        `json:"version"`
	CreatedAt time.Time                  `json:"created_at"`
	State     *PersistedState            `json:"state,omitempty"`
	Snapshots []BackupSnapshot           `json:"snapshots"`
	Outcomes  map[string][]OutcomeRecord `json:"outcomes"`
}

// BackupSnapshot pairs a snapshot's metadata with its full state.
type BackupSnapshot struct {
	SnapshotInfo
	State PersistedState `json:"state"`
}

// Backup exports the full store contents to a JSON file.
func (s *Store) Backup(ctx context.Context, outputPath string) (*BackupFormat, error) {
	b := &BackupFormat{
		Version:   1,
		CreatedAt: time.Now(),
		Snapshots: []BackupSnapshot{},
	}

	res, err := s.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading state for backup: %w", err)
	}
	b.State = res.State

	infos, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots for backup: %w", err)
	}
	for _, info := range infos {
		st, err := s.LoadSnapshot(ctx, info.Name)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %q for backup: %w", info.Name, err)
		}
		b.Snapshots = append(b.Snapshots, BackupSnapshot{SnapshotInfo: info, State: *st})
	}

	b.Outcomes, err = s.LoadOutcomes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading outcomes for backup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("creating backup file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(b); err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}

	return b, nil
}
