package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.RoundsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lpa_rounds_total",
			Help: "Total number of completed propagation rounds",
		},
	)

	r.RoundDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lpa_round_duration_seconds",
			Help:    "Duration of a propagation round including modularity evaluation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
		},
	)

	r.ActiveVertices = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_active_vertices",
			Help: "Vertices whose label changed in the latest round",
		},
	)

	r.Communities = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_communities",
			Help: "Number of communities after the latest round",
		},
	)

	r.Modularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_modularity",
			Help: "Modularity of the latest round's assignment",
		},
	)

	r.BestModularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_best_modularity",
			Help: "Highest modularity observed in the current run",
		},
	)

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpa_runs_total",
			Help: "Total number of propagation runs by outcome",
		},
		[]string{"outcome"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lpa_run_duration_seconds",
			Help:    "Wall time of a propagation run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
		},
	)
}
