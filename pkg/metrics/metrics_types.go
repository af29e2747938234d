package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for a community detection run
type Registry struct {
	// Engine Metrics
	RoundsTotal    prometheus.Counter
	RoundDuration  prometheus.Histogram
	ActiveVertices prometheus.Gauge
	Communities    prometheus.Gauge
	Modularity     prometheus.Gauge
	BestModularity prometheus.Gauge
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram

	// I/O Metrics
	GraphVertices      prometheus.Gauge
	GraphEdges         prometheus.Gauge
	IODuration         *prometheus.HistogramVec
	EdgesLoadedTotal   prometheus.Counter
	MalformedRowsTotal prometheus.Counter
	LabelsWrittenTotal prometheus.Counter

	// System Metrics
	RunInfo       *prometheus.GaugeVec
	UptimeSeconds prometheus.Gauge
	GoRoutines    prometheus.Gauge
	MemoryBytes   *prometheus.GaugeVec
	GCCycles      prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initEngineMetrics()
	r.initIOMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
