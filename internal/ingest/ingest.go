// Package ingest is the acquisition boundary: it normalizes raw metric
// readings from external sources (bank feeds, wearables, ticket queues) into
// pressure deltas the engine can apply. Acquisition internals stay outside;
// only the adapter lives here.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"vitals/internal/graph"
)

// Scale declares how a reading's raw value maps onto the pressure axis.
type Scale string

const (
	// ScaleAbsolute means the value is already a pressure level in [0,1].
	ScaleAbsolute Scale = "absolute"
	// ScalePercent means the value is a percentage in [0,100].
	ScalePercent Scale = "percent"
	// ScaleInverse means high values are GOOD: a [0,1] value inverted onto
	// the pressure axis (e.g. sleep quality, cash ratio).
	ScaleInverse Scale = "inverse"
)

// Valid reports whether s is one of the closed scale set.
func (s Scale) Valid() bool {
	switch s {
	case ScaleAbsolute, ScalePercent, ScaleInverse:
		return true
	}
	return false
}

// neutralLevel is the pressure level substituted for a missing value. A
// source that reports nothing moves the node toward the middle, never
// aborts the feed.
const neutralLevel = 0.5

// Reading is one raw observation from an external source. Value is a
// pointer so "source reported nothing" is distinguishable from zero.
type Reading struct {
	Source string   `json:"source"`
	Node   string   `json:"node"`
	Metric string   `json:"metric"`
	Value  *float64 `json:"value"`
	Scale  Scale    `json:"scale"`
}

// Delta is a normalized perturbation ready for the engine.
type Delta struct {
	Node   string       `json:"node"`
	Motion graph.Motion `json:"motion"`
	Delta  float64      `json:"delta"`
	Source string       `json:"source"`
}

// Normalize converts one reading into a pressure delta. The raw value is
// first mapped to a level in [0,1] by its scale, then the delta is the
// signed distance from the neutral midpoint, clamped to [-1,1]. Readings
// above neutral push pressure up as drift; readings below it release
// pressure as relief.
func Normalize(r Reading) (Delta, error) {
	if strings.TrimSpace(r.Node) == "" {
		return Delta{}, fmt.Errorf("reading from %q: missing node", r.Source)
	}
	if !r.Scale.Valid() {
		return Delta{}, fmt.Errorf("reading for %q: unknown scale %q", r.Node, r.Scale)
	}

	level := neutralLevel
	if r.Value != nil {
		switch r.Scale {
		case ScaleAbsolute:
			level = clamp01(*r.Value)
		case ScalePercent:
			level = clamp01(*r.Value / 100)
		case ScaleInverse:
			level = clamp01(1 - *r.Value)
		}
	}

	delta := level - neutralLevel
	if delta > 1 {
		delta = 1
	} else if delta < -1 {
		delta = -1
	}

	motion := graph.MotionDrift
	if delta < 0 {
		motion = graph.MotionRelief
	}

	return Delta{Node: r.Node, Motion: motion, Delta: delta, Source: r.Source}, nil
}

// FeedResult is the outcome of reading one JSONL feed.
type FeedResult struct {
	Deltas  []Delta
	Skipped int
}

// ReadFeed parses a JSONL stream of readings, one object per line. Blank
// lines are ignored; lines that fail to parse or normalize are skipped and
// counted, never abort the feed. A read error on the stream itself is
// returned.
func ReadFeed(r io.Reader) (FeedResult, error) {
	var res FeedResult

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var reading Reading
		if err := json.Unmarshal([]byte(line), &reading); err != nil {
			res.Skipped++
			continue
		}

		delta, err := Normalize(reading)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Deltas = append(res.Deltas, delta)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading feed: %w", err)
	}

	return res, nil
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
