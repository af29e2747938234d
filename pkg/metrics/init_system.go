package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Memory kinds reported under lpa_memory_bytes
const (
	memoryAlloc     = "alloc"
	memorySys       = "sys"
	memoryHeapInuse = "heap_inuse"
)

func (r *Registry) initSystemMetrics() {
	factory := promauto.With(r.registry)

	// Process CPU, RSS and open fds, under lpa_process_*
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: "lpa",
	}))

	r.RunInfo = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lpa_run_info",
			Help: "Identity of the run; always 1",
		},
		[]string{"run_id", "seed", "workers"},
	)

	r.UptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_uptime_seconds",
			Help: "Time since the run started in seconds",
		},
	)

	r.GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_goroutines",
			Help: "Number of goroutines",
		},
	)

	r.MemoryBytes = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lpa_memory_bytes",
			Help: "Go runtime memory by kind (alloc, sys, heap_inuse)",
		},
		[]string{"kind"},
	)

	r.GCCycles = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_gc_cycles",
			Help: "Completed garbage collection cycles",
		},
	)
}
