package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes recorded by RecordRun
const (
	OutcomeConverged    = "converged"
	OutcomeLimitReached = "limit_reached"
	OutcomeError        = "error"
)

// I/O phases and statuses recorded by RecordIO
const (
	PhaseLoad  = "load"
	PhaseStore = "store"

	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordRound records one evaluated propagation round
func (r *Registry) RecordRound(active int64, communities int, modularity, best float64, duration time.Duration) {
	r.RoundsTotal.Inc()
	r.RoundDuration.Observe(duration.Seconds())
	r.ActiveVertices.Set(float64(active))
	r.Communities.Set(float64(communities))
	r.Modularity.Set(modularity)
	r.BestModularity.Set(best)
}

// RecordRun records the outcome of a whole propagation run
func (r *Registry) RecordRun(outcome string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// RecordGraph records the size of the loaded graph
func (r *Registry) RecordGraph(vertices, edges int) {
	r.GraphVertices.Set(float64(vertices))
	r.GraphEdges.Set(float64(edges))
}

// RecordLoad records edge rows accepted and skipped by the loader
func (r *Registry) RecordLoad(edges, malformed int) {
	r.EdgesLoadedTotal.Add(float64(edges))
	r.MalformedRowsTotal.Add(float64(malformed))
}

// RecordStore records labels written to an output
func (r *Registry) RecordStore(labels int) {
	r.LabelsWrittenTotal.Add(float64(labels))
}

// RecordIO records the duration of a load or store phase
func (r *Registry) RecordIO(phase string, err error, duration time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.IODuration.WithLabelValues(phase, status).Observe(duration.Seconds())
}

// RecordRunInfo labels the run so exports from different runs can be told
// apart
func (r *Registry) RecordRunInfo(runID string, seed uint64, workers int) {
	r.RunInfo.WithLabelValues(runID, strconv.FormatUint(seed, 10), strconv.Itoa(workers)).Set(1)
}

// UpdateSystemMetrics refreshes uptime and Go runtime gauges
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryBytes.WithLabelValues(memoryAlloc).Set(float64(m.Alloc))
	r.MemoryBytes.WithLabelValues(memorySys).Set(float64(m.Sys))
	r.MemoryBytes.WithLabelValues(memoryHeapInuse).Set(float64(m.HeapInuse))
	r.GCCycles.Set(float64(m.NumGC))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node exporter's
// textfile collector
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
