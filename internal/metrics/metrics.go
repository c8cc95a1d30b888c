// Package metrics exposes engine instrumentation through a Prometheus
// registry. The Registry is an explicit value handed to the engine and
// server at construction; there is no package-level default. A nil *Registry
// is safe to use; all record methods are no-ops on nil receiver so the
// engine core never has to check whether metrics are wired.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all vitals metrics.
type Registry struct {
	CyclesTotal       prometheus.Counter
	AppliesTotal      *prometheus.CounterVec
	TicksTotal        prometheus.Counter
	SkippedEdgesTotal prometheus.Counter
	CalibrationsTotal *prometheus.CounterVec
	SnapshotsTotal    prometheus.Counter
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
	NodePressure      *prometheus.GaugeVec

	reg *prometheus.Registry
}

// New creates a Registry with all metrics registered.
func New() *Registry {
	r := &Registry{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitals_cycles_total",
			Help: "Number of propagation cycles executed",
		}),
		AppliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitals_applies_total",
			Help: "Number of external perturbations applied, by motion",
		}, []string{"motion"}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitals_ticks_total",
			Help: "Number of decay ticks executed",
		}),
		SkippedEdgesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitals_skipped_edges_total",
			Help: "Number of edges skipped mid-cycle due to missing state",
		}),
		CalibrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitals_calibrations_total",
			Help: "Number of threshold calibrations, by direction",
		}, []string{"direction"}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitals_snapshots_total",
			Help: "Number of named snapshots written",
		}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitals_cache_hits_total",
			Help: "Derived-view cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitals_cache_misses_total",
			Help: "Derived-view cache misses",
		}),
		NodePressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vitals_node_pressure",
			Help: "Current pressure per node",
		}, []string{"node", "layer"}),
		reg: prometheus.NewRegistry(),
	}

	r.reg.MustRegister(
		r.CyclesTotal, r.AppliesTotal, r.TicksTotal, r.SkippedEdgesTotal,
		r.CalibrationsTotal, r.SnapshotsTotal, r.CacheHitsTotal,
		r.CacheMissesTotal, r.NodePressure,
	)

	return r
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveCycle records one propagation cycle and its skipped edge count.
func (r *Registry) ObserveCycle(skippedEdges int) {
	if r == nil {
		return
	}
	r.CyclesTotal.Inc()
	r.SkippedEdgesTotal.Add(float64(skippedEdges))
}

// ObserveApply records one external perturbation.
func (r *Registry) ObserveApply(motion string) {
	if r == nil {
		return
	}
	r.AppliesTotal.WithLabelValues(motion).Inc()
}

// ObserveTick records one decay tick.
func (r *Registry) ObserveTick() {
	if r == nil {
		return
	}
	r.TicksTotal.Inc()
}

// ObserveCalibration records one applied threshold calibration.
func (r *Registry) ObserveCalibration(direction string) {
	if r == nil {
		return
	}
	r.CalibrationsTotal.WithLabelValues(direction).Inc()
}

// ObserveSnapshot records one written snapshot.
func (r *Registry) ObserveSnapshot() {
	if r == nil {
		return
	}
	r.SnapshotsTotal.Inc()
}

// ObserveCache records a cache hit or miss.
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheHitsTotal.Inc()
	} else {
		r.CacheMissesTotal.Inc()
	}
}

// SetPressure updates the pressure gauge for one node.
func (r *Registry) SetPressure(node, layer string, pressure float64) {
	if r == nil {
		return
	}
	r.NodePressure.WithLabelValues(node, layer).Set(pressure)
}
