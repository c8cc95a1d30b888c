package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals/internal/graph"
)

func fptr(v float64) *float64 { return &v }

func TestNormalizeScales(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		delta   float64
		motion  graph.Motion
	}{
		{
			name:    "absolute above neutral",
			reading: Reading{Node: "strain", Value: fptr(0.8), Scale: ScaleAbsolute},
			delta:   0.3,
			motion:  graph.MotionDrift,
		},
		{
			name:    "absolute below neutral",
			reading: Reading{Node: "strain", Value: fptr(0.1), Scale: ScaleAbsolute},
			delta:   -0.4,
			motion:  graph.MotionRelief,
		},
		{
			name:    "percent",
			reading: Reading{Node: "backlog", Value: fptr(90), Scale: ScalePercent},
			delta:   0.4,
			motion:  graph.MotionDrift,
		},
		{
			name:    "inverse flips good readings into relief",
			reading: Reading{Node: "sleep", Value: fptr(0.9), Scale: ScaleInverse},
			delta:   -0.4,
			motion:  graph.MotionRelief,
		},
		{
			name:    "out-of-range value clamps at the level step",
			reading: Reading{Node: "backlog", Value: fptr(250), Scale: ScalePercent},
			delta:   0.5,
			motion:  graph.MotionDrift,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Normalize(tt.reading)
			require.NoError(t, err)
			assert.InDelta(t, tt.delta, d.Delta, 1e-9)
			assert.Equal(t, tt.motion, d.Motion)
			assert.Equal(t, tt.reading.Node, d.Node)
		})
	}
}

func TestNormalizeMissingValueIsNeutral(t *testing.T) {
	d, err := Normalize(Reading{Node: "sleep", Scale: ScaleAbsolute, Source: "wearable"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.Delta)
	assert.Equal(t, graph.MotionDrift, d.Motion)
	assert.Equal(t, "wearable", d.Source)
}

func TestNormalizeRejectsBadReadings(t *testing.T) {
	_, err := Normalize(Reading{Scale: ScaleAbsolute})
	require.Error(t, err)

	_, err = Normalize(Reading{Node: "sleep", Scale: Scale("logarithmic")})
	require.Error(t, err)
}

func TestReadFeedSkipsMalformedLines(t *testing.T) {
	feed := strings.Join([]string{
		`{"node":"sleep","value":0.9,"scale":"inverse","source":"wearable"}`,
		`not json at all`,
		``,
		`{"node":"","value":0.5,"scale":"absolute"}`,
		`{"node":"backlog","value":70,"scale":"percent","source":"tickets"}`,
	}, "\n")

	res, err := ReadFeed(strings.NewReader(feed))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Deltas, 2)
	assert.Equal(t, "sleep", res.Deltas[0].Node)
	assert.Equal(t, "backlog", res.Deltas[1].Node)
	assert.InDelta(t, 0.2, res.Deltas[1].Delta, 1e-9)
}

func TestReadFeedEmpty(t *testing.T) {
	res, err := ReadFeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Deltas)
	assert.Zero(t, res.Skipped)
}
