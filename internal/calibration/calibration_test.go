package calibration

import (
	"testing"
	"time"
)

// outcomes builds a slice with the given count of false negatives, false
// positives, and correct predictions.
func outcomes(falseNeg, falsePos, correct int) []Outcome {
	var out []Outcome
	now := time.Now()
	for i := 0; i < falseNeg; i++ {
		out = append(out, Outcome{Predicted: false, Actual: true, At: now})
	}
	for i := 0; i < falsePos; i++ {
		out = append(out, Outcome{Predicted: true, Actual: false, At: now})
	}
	for i := 0; i < correct; i++ {
		out = append(out, Outcome{Predicted: true, Actual: true, At: now})
	}
	return out
}

func TestCalibrate_InsufficientSamples(t *testing.T) {
	cfg := DefaultConfig()

	adj := Calibrate("n", outcomes(2, 0, 0), 0.8, cfg)
	if adj.Applied {
		t.Error("two samples must not trigger an adjustment")
	}
	if adj.Reason != "insufficient samples" {
		t.Errorf("unexpected reason: %s", adj.Reason)
	}
	if adj.After != 0.8 {
		t.Errorf("threshold must be unchanged, got %f", adj.After)
	}
}

func TestCalibrate_UnderAlerting(t *testing.T) {
	cfg := DefaultConfig()

	// Missed damage three times: become more sensitive.
	adj := Calibrate("n", outcomes(3, 1, 0), 0.8, cfg)
	if !adj.Applied {
		t.Fatal("expected adjustment")
	}
	if adj.Direction != DirectionLower {
		t.Errorf("expected lower, got %s", adj.Direction)
	}
	if adj.After != 0.75 {
		t.Errorf("expected 0.75, got %f", adj.After)
	}
	if adj.FalseNegatives != 3 || adj.FalsePositives != 1 {
		t.Errorf("miscounted errors: fn=%d fp=%d", adj.FalseNegatives, adj.FalsePositives)
	}
}

func TestCalibrate_OverAlerting(t *testing.T) {
	adj := Calibrate("n", outcomes(0, 4, 2), 0.7, DefaultConfig())
	if !adj.Applied || adj.Direction != DirectionRaise {
		t.Fatalf("expected raise, got applied=%t direction=%s", adj.Applied, adj.Direction)
	}
	if adj.After != 0.75 {
		t.Errorf("expected 0.75, got %f", adj.After)
	}
}

func TestCalibrate_Balanced(t *testing.T) {
	adj := Calibrate("n", outcomes(2, 2, 1), 0.8, DefaultConfig())
	if adj.Applied {
		t.Error("balanced errors must not move the threshold")
	}
	if adj.Direction != DirectionNone {
		t.Errorf("expected none, got %s", adj.Direction)
	}
}

func TestCalibrate_ClampBounds(t *testing.T) {
	cfg := DefaultConfig()

	// Repeated under-alerting can never push below the floor.
	threshold := 0.55
	for i := 0; i < 20; i++ {
		adj := Calibrate("n", outcomes(5, 0, 0), threshold, cfg)
		threshold = adj.After
		if threshold < cfg.Floor || threshold > cfg.Ceil {
			t.Fatalf("threshold escaped bounds: %f", threshold)
		}
	}
	if threshold != cfg.Floor {
		t.Errorf("expected convergence to floor %f, got %f", cfg.Floor, threshold)
	}

	// Once at the bound, the adjustment reports not-applied.
	adj := Calibrate("n", outcomes(5, 0, 0), cfg.Floor, cfg)
	if adj.Applied {
		t.Error("adjustment at the floor must be a no-op")
	}
	if adj.Reason != "threshold at clamp bound" {
		t.Errorf("unexpected reason: %s", adj.Reason)
	}

	// Same at the ceiling.
	adj = Calibrate("n", outcomes(0, 5, 0), cfg.Ceil, cfg)
	if adj.Applied {
		t.Error("adjustment at the ceiling must be a no-op")
	}
}

func TestLog_RingEviction(t *testing.T) {
	l := NewLog(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		l.Append(Outcome{Predicted: true, Actual: true, At: base.Add(time.Duration(i) * time.Minute)})
	}

	if l.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", l.Len())
	}
	entries := l.Entries()
	// Oldest two evicted: the survivors start at minute 2.
	if !entries[0].At.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected oldest survivor at +2m, got %v", entries[0].At)
	}
	if !entries[2].At.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("expected newest at +4m, got %v", entries[2].At)
	}
}

func TestLog_EntriesIsCopy(t *testing.T) {
	l := NewLog(3)
	l.Append(Outcome{Predicted: true})

	entries := l.Entries()
	entries[0].Predicted = false

	if !l.Entries()[0].Predicted {
		t.Error("Entries must return an independent copy")
	}
}
