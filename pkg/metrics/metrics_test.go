package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.RoundsTotal == nil {
		t.Error("RoundsTotal not initialized")
	}
	if r.IODuration == nil {
		t.Error("IODuration not initialized")
	}
	if r.UptimeSeconds == nil {
		t.Error("UptimeSeconds not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestRecordRound(t *testing.T) {
	r := NewRegistry()

	r.RecordRound(120, 40, 0.31, 0.31, 15*time.Millisecond)
	r.RecordRound(0, 12, 0.28, 0.31, 10*time.Millisecond)

	if got := counterValue(t, r.RoundsTotal); got != 2 {
		t.Errorf("RoundsTotal = %v, want 2", got)
	}
	if got := gaugeValue(t, r.ActiveVertices); got != 0 {
		t.Errorf("ActiveVertices = %v, want 0", got)
	}
	if got := gaugeValue(t, r.Communities); got != 12 {
		t.Errorf("Communities = %v, want 12", got)
	}
	if got := gaugeValue(t, r.Modularity); got != 0.28 {
		t.Errorf("Modularity = %v, want 0.28", got)
	}
	if got := gaugeValue(t, r.BestModularity); got != 0.31 {
		t.Errorf("BestModularity = %v, want 0.31", got)
	}

	var metric dto.Metric
	if err := r.RoundDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("RoundDuration sample count = %d, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()

	r.RecordRun(OutcomeConverged, time.Second)
	r.RecordRun(OutcomeConverged, 2*time.Second)
	r.RecordRun(OutcomeLimitReached, 3*time.Second)

	counter, err := r.RunsTotal.GetMetricWithLabelValues(OutcomeConverged)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, counter); got != 2 {
		t.Errorf("converged runs = %v, want 2", got)
	}

	counter, err = r.RunsTotal.GetMetricWithLabelValues(OutcomeLimitReached)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, counter); got != 1 {
		t.Errorf("limit_reached runs = %v, want 1", got)
	}
}

func TestRecordLoadAndGraph(t *testing.T) {
	r := NewRegistry()

	r.RecordGraph(1000, 4500)
	r.RecordLoad(4500, 3)
	r.RecordStore(1000)
	r.RecordIO(PhaseLoad, nil, 200*time.Millisecond)
	r.RecordIO(PhaseStore, errors.New("disk full"), 10*time.Millisecond)

	if got := gaugeValue(t, r.GraphVertices); got != 1000 {
		t.Errorf("GraphVertices = %v, want 1000", got)
	}
	if got := gaugeValue(t, r.GraphEdges); got != 4500 {
		t.Errorf("GraphEdges = %v, want 4500", got)
	}
	if got := counterValue(t, r.EdgesLoadedTotal); got != 4500 {
		t.Errorf("EdgesLoadedTotal = %v, want 4500", got)
	}
	if got := counterValue(t, r.MalformedRowsTotal); got != 3 {
		t.Errorf("MalformedRowsTotal = %v, want 3", got)
	}
	if got := counterValue(t, r.LabelsWrittenTotal); got != 1000 {
		t.Errorf("LabelsWrittenTotal = %v, want 1000", got)
	}

	observer, err := r.IODuration.GetMetricWithLabelValues(PhaseStore, StatusError)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := observer.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("store error samples = %d, want 1", metric.Histogram.GetSampleCount())
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()

	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))

	if got := gaugeValue(t, r.UptimeSeconds); got < 60 {
		t.Errorf("UptimeSeconds = %v, want >= 60", got)
	}
	if got := gaugeValue(t, r.GoRoutines); got < 1 {
		t.Errorf("GoRoutines = %v, want >= 1", got)
	}
	for _, kind := range []string{memoryAlloc, memorySys, memoryHeapInuse} {
		if got := gaugeValue(t, r.MemoryBytes.WithLabelValues(kind)); got <= 0 {
			t.Errorf("MemoryBytes{kind=%q} = %v, want > 0", kind, got)
		}
	}
}

func TestRecordRunInfo(t *testing.T) {
	r := NewRegistry()
	r.RecordRunInfo("run-1", 42, 8)

	if got := gaugeValue(t, r.RunInfo.WithLabelValues("run-1", "42", "8")); got != 1 {
		t.Errorf("RunInfo = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordRound(5, 2, 0.5, 0.5, time.Millisecond)

	server := httptest.NewServer(r.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	for _, want := range []string{"lpa_rounds_total 1", "lpa_best_modularity 0.5"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Exposition missing %q", want)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(OutcomeConverged, time.Second)

	path := filepath.Join(t.TempDir(), "lpa.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `lpa_runs_total{outcome="converged"} 1`) {
		t.Errorf("Textfile missing run counter:\n%s", data)
	}
}

func TestMetricsNamespace(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(OutcomeError, time.Second)
	r.RecordIO(PhaseLoad, nil, time.Millisecond)

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("Expected gathered metric families")
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "lpa_") {
			t.Errorf("Metric %q is outside the lpa_ namespace", mf.GetName())
		}
	}
}
