package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilRegistryIsNoOp(t *testing.T) {
	var r *Registry

	// None of these may panic.
	r.ObserveCycle(3)
	r.ObserveApply("shock")
	r.ObserveTick()
	r.ObserveCalibration("lower")
	r.ObserveSnapshot()
	r.ObserveCache(true)
	r.SetPressure("sleep", "biometric", 0.4)
	assert.NotNil(t, r.Handler())
}

func TestCountersAccumulate(t *testing.T) {
	r := New()

	r.ObserveCycle(2)
	r.ObserveCycle(0)
	r.ObserveApply("shock")
	r.ObserveApply("shock")
	r.ObserveApply("drift")
	r.SetPressure("sleep", "biometric", 0.42)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.CyclesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.SkippedEdgesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.AppliesTotal.WithLabelValues("shock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.AppliesTotal.WithLabelValues("drift")))
	assert.Equal(t, 0.42, testutil.ToFloat64(r.NodePressure.WithLabelValues("sleep", "biometric")))
}
