package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-lpa/pkg/config"
	"github.com/dd0wney/cluso-lpa/pkg/edgelist"
	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/health"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
	"github.com/dd0wney/cluso-lpa/pkg/metrics"
)

const twoTriangles = `# two triangles joined by nothing
6 6
0 1
1 2
0 2
3 4
4 5
3 5
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseArgs([]string{"graph.txt"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "graph.txt", cfg.Input)
	assert.Equal(t, 20, cfg.Engine.RoundLimit)
	assert.Equal(t, edgelist.Whitespace, cfg.Delimiter)
	assert.True(t, cfg.Header)
	assert.Empty(t, cfg.Output)
}

func TestParseArgsFlags(t *testing.T) {
	cfg, err := parseArgs([]string{
		"-o", "labels.csv",
		"-d", "comma",
		"-l", "5",
		"-workers", "2",
		"-seed", "99",
		"-no-header",
		"-strict",
		"-top", "3",
		"-baseline",
		"-s3-region", "us-east-1",
		"-s3-path-style",
		"edges.csv",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "labels.csv", cfg.Output)
	assert.Equal(t, edgelist.Comma, cfg.Delimiter)
	assert.Equal(t, 5, cfg.Engine.RoundLimit)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, uint64(99), cfg.Engine.Seed)
	assert.False(t, cfg.Header)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 3, cfg.Report.Top)
	assert.True(t, cfg.Report.Baseline)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.True(t, cfg.S3.PathStyle)
}

func TestParseArgsPrecedence(t *testing.T) {
	path := writeFile(t, "lpa.yaml", "input: from-file.txt\nengine:\n  round_limit: 40\n  workers: 6\n")
	t.Setenv(config.EnvWorkers, "3")

	cfg, err := parseArgs([]string{"-config", path, "-limit", "8"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "from-file.txt", cfg.Input, "file supplies the input when no argument is given")
	assert.Equal(t, 8, cfg.Engine.RoundLimit, "flag beats file")
	assert.Equal(t, 3, cfg.Engine.Workers, "environment beats file")
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", nil, "input: field is required"},
		{"two inputs", []string{"a.txt", "b.txt"}, errUsage.Error()},
		{"bad delimiter", []string{"-d", "pipe", "a.txt"}, "unknown delimiter"},
		{"negative limit", []string{"-l", "-1", "a.txt"}, "round_limit"},
		{"unknown flag", []string{"-frobnicate", "a.txt"}, "frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunEndToEnd(t *testing.T) {
	input := writeFile(t, "edges.txt", twoTriangles)
	dir := t.TempDir()
	output := filepath.Join(dir, "labels.txt")
	textfile := filepath.Join(dir, "lpa.prom")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-o", output,
		"-l", "200",
		"-workers", "1",
		"-seed", "7",
		"-baseline",
		"-metrics-textfile", textfile,
		"-progress-addr", "inproc://lpa-end-to-end",
		input,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "vertices: 6, edges: 6")
	assert.Contains(t, out, "INIT | active: 6 community: 6")
	assert.Contains(t, out, "best: communities 2, modularity 0.500000")
	assert.Contains(t, out, "3 internal edges, density 1.0000")
	assert.Contains(t, out, "baseline (connected components): communities 2, modularity 0.500000")

	labels, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(labels)), "\n")
	require.Len(t, lines, 6)
	first := strings.Fields(lines[0])[1]
	for _, line := range lines[:3] {
		assert.Equal(t, first, strings.Fields(line)[1])
	}
	assert.NotEqual(t, first, strings.Fields(lines[3])[1])

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `lpa_runs_total{outcome="converged"} 1`)
	assert.Contains(t, string(prom), "lpa_graph_vertices 6")

	assert.Contains(t, stderr.String(), `"run_id"`)
}

func TestRunMissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{filepath.Join(t.TempDir(), "absent.txt")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load")
}

func TestRunMalformedRowStrict(t *testing.T) {
	input := writeFile(t, "edges.txt", "3 2\n0 1\n1 x\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-strict", input}, &stdout, &stderr)
	require.Error(t, err)
	assert.ErrorIs(t, err, edgelist.ErrInvalidVertex)
}

var errClosedPipe = errors.New("closed pipe")

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errClosedPipe }

func TestWriteCohesionError(t *testing.T) {
	g, _, err := edgelist.Load(strings.NewReader(twoTriangles), edgelist.DefaultLoadOptions())
	require.NoError(t, err)
	labels := []graph.VertexID{0, 0, 0, 3, 3, 3}

	a := &app{cfg: config.Default(), stdout: brokenWriter{}}
	assert.ErrorIs(t, a.writeCohesion(g, labels), errClosedPipe)

	var out bytes.Buffer
	a.stdout = &out
	require.NoError(t, a.writeCohesion(g, labels))
	assert.Contains(t, out.String(), "label 0: 3 internal edges, density 1.0000")
}

func TestServeMetrics(t *testing.T) {
	a := &app{
		logger:  logging.NewNopLogger(),
		metrics: metrics.NewRegistry(),
		tracker: health.NewRunTracker(),
	}
	require.NoError(t, a.serveMetrics("127.0.0.1:0"))
	defer a.close()

	a.metrics.RecordGraph(6, 6)

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get("http://" + a.bound + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "lpa_graph_vertices 6")

	code, _ = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code, "not ready before the graph is loaded")

	a.tracker.SetPhase(health.PhasePropagating)
	code, body = get("/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"phase":"propagating"`)
}
