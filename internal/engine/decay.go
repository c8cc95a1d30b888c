package engine

import (
	"math"
	"time"
)

// decayFactor returns the multiplicative survival factor for one decay step:
// e^(-lambda * elapsed) with lambda = ln2 / halfLife. The factor is always
// in (0, 1] for positive elapsed, so decay can only shrink pressure.
func decayFactor(elapsed, halfLife time.Duration) float64 {
	if elapsed <= 0 || halfLife <= 0 {
		return 1
	}
	lambda := math.Ln2 / float64(halfLife)
	return math.Exp(-lambda * float64(elapsed))
}
