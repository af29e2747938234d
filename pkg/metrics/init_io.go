package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIOMetrics() {
	r.GraphVertices = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_graph_vertices",
			Help: "Number of vertices in the loaded graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lpa_graph_edges",
			Help: "Number of undirected edges in the loaded graph",
		},
	)

	r.IODuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lpa_io_duration_seconds",
			Help:    "Duration of load and store phases",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"phase", "status"},
	)

	r.EdgesLoadedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lpa_edges_loaded_total",
			Help: "Total number of edge rows accepted by the loader",
		},
	)

	r.MalformedRowsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lpa_malformed_rows_total",
			Help: "Total number of edge rows skipped as malformed",
		},
	)

	r.LabelsWrittenTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lpa_labels_written_total",
			Help: "Total number of vertex labels written to the output",
		},
	)
}
