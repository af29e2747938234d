package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-lpa/pkg/algorithms"
	"github.com/dd0wney/cluso-lpa/pkg/config"
	"github.com/dd0wney/cluso-lpa/pkg/edgelist"
	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/health"
	"github.com/dd0wney/cluso-lpa/pkg/labelstore"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
	"github.com/dd0wney/cluso-lpa/pkg/metrics"
	"github.com/dd0wney/cluso-lpa/pkg/progress"
	"github.com/dd0wney/cluso-lpa/pkg/report"
	"github.com/dd0wney/cluso-lpa/pkg/resource"
	"github.com/dd0wney/cluso-lpa/pkg/validation"
)

// app carries the collaborators of one run.
type app struct {
	cfg      *config.Config
	runID    string
	logger   logging.Logger
	metrics  *metrics.Registry
	resolver *resource.Resolver
	progress *progress.Publisher
	server   *http.Server
	bound    string // metrics listener address
	tracker  *health.RunTracker
	stdout   io.Writer
	started  time.Time
}

// resultMessage is published on the result topic.
type resultMessage struct {
	Communities int     `json:"communities"`
	Modularity  float64 `json:"modularity"`
	BestRound   int     `json:"best_round"`
	Rounds      int     `json:"rounds"`
	Termination string  `json:"termination"`
	Seed        uint64  `json:"seed"`
	DurationMS  int64   `json:"duration_ms"`
}

// roundMessage is published on the round topic.
type roundMessage struct {
	Round       int     `json:"round"`
	Active      int64   `json:"active"`
	Communities int     `json:"communities"`
	Modularity  float64 `json:"modularity"`
	Improved    bool    `json:"improved"`
	DurationMS  int64   `json:"duration_ms"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	a := &app{
		cfg:     cfg,
		runID:   uuid.NewString(),
		metrics: metrics.NewRegistry(),
		tracker: health.NewRunTracker(),
		stdout:  stdout,
		started: time.Now(),
	}
	a.logger = logging.NewJSONLogger(stderr, cfg.Level()).With(logging.RunID(a.runID))

	defer a.close()
	if err := a.setup(ctx); err != nil {
		return err
	}

	err = a.execute(ctx)
	if err != nil {
		a.tracker.Fail(err)
	} else {
		a.tracker.SetPhase(health.PhaseDone)
	}
	if path := cfg.Metrics.Textfile; path != "" {
		a.metrics.UpdateSystemMetrics(a.started)
		if werr := a.metrics.WriteTextfile(path); werr != nil {
			a.logger.Warn("failed to write metrics textfile", logging.String("path", path), logging.Error(werr))
		}
	}
	return err
}

// setup wires the optional S3 client, metrics endpoint and progress
// publisher.
func (a *app) setup(ctx context.Context) error {
	a.resolver = &resource.Resolver{Logger: a.logger}
	if usesS3(a.cfg.Input) || usesS3(a.cfg.Output) {
		client, err := resource.NewS3Client(ctx, a.cfg.S3)
		if err != nil {
			return err
		}
		a.resolver.S3 = client
	}

	if addr := a.cfg.Metrics.Addr; addr != "" {
		if err := a.serveMetrics(addr); err != nil {
			return err
		}
	}

	if addr := a.cfg.Progress.Addr; addr != "" {
		pub, err := progress.NewPublisher(addr, a.runID)
		if err != nil {
			return err
		}
		a.progress = pub
		a.logger.Info("publishing progress", logging.String("addr", addr))
	}
	return nil
}

func (a *app) close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	if a.progress != nil {
		if err := a.progress.Close(); err != nil {
			a.logger.Warn("failed to close progress publisher", logging.Error(err))
		}
	}
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	checker := health.NewChecker()
	checker.Add(health.ProbeHealth, "run", a.tracker.LivenessCheck())
	checker.Add(health.ProbeHealth, "memory", health.MemoryCheck(health.RuntimeMemory))
	checker.Add(health.ProbeReadiness, "run", a.tracker.ReadinessCheck())
	checker.Add(health.ProbeLiveness, "run", a.tracker.LivenessCheck())

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	checker.Register(mux)
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", logging.Error(err))
		}
	}()

	a.bound = ln.Addr().String()
	a.logger.Info("serving metrics", logging.String("addr", a.bound))
	return nil
}

func (a *app) execute(ctx context.Context) error {
	a.tracker.SetPhase(health.PhaseLoading)
	g, err := a.load(ctx)
	if err != nil {
		return err
	}
	a.tracker.SetPhase(health.PhasePropagating)
	fmt.Fprintf(a.stdout, "vertices: %d, edges: %d\n", g.VertexCount(), g.EdgeCount())

	result, err := a.propagate(g)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "initial: communities %d, modularity %.6f\n",
		result.Initial.Communities, result.Initial.Modularity)
	fmt.Fprintf(a.stdout, "best: communities %d, modularity %.6f (round %d of %d, %s)\n",
		result.Communities, result.Modularity, result.BestRound, result.Rounds, result.Termination)
	if err := report.Summarize(result.Labels, a.cfg.Report.Top).Write(a.stdout); err != nil {
		return err
	}
	if err := a.writeCohesion(g, result.Labels); err != nil {
		return err
	}

	if a.cfg.Report.Baseline {
		baseline, err := algorithms.ConnectedComponents(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "baseline (connected components): communities %d, modularity %.6f\n",
			baseline.Communities, baseline.Modularity)
	}

	if a.cfg.Output != "" {
		a.tracker.SetPhase(health.PhaseStoring)
		if err := a.store(ctx, result.Labels); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.stdout, "total time: %s\n", time.Since(a.started).Round(time.Millisecond))
	return nil
}

// writeCohesion reports internal edges and density of the largest
// communities.
func (a *app) writeCohesion(g *graph.Graph, labels []graph.VertexID) error {
	if a.cfg.Report.Top == 0 {
		return nil
	}
	communities, err := algorithms.BuildCommunities(g, labels)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(a.stdout, "cohesion of largest communities:"); err != nil {
		return err
	}
	for _, c := range communities[:min(a.cfg.Report.Top, len(communities))] {
		if _, err := fmt.Fprintf(a.stdout, "  %3d. label %d: %d internal edges, density %.4f\n",
			c.ID+1, c.Label, c.InternalEdges, c.Density); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) load(ctx context.Context) (*graph.Graph, error) {
	timer := logging.StartTimer(a.logger, "graph loaded", logging.Resource(a.cfg.Input))

	g, stats, err := a.readGraph(ctx)
	elapsed := timer.Elapsed()
	a.metrics.RecordIO(metrics.PhaseLoad, err, elapsed)
	a.metrics.RecordLoad(stats.Edges, stats.Skipped)
	if err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("failed to load %s: %w", a.cfg.Input, err)
	}

	a.metrics.RecordGraph(g.VertexCount(), g.EdgeCount())
	timer.End(
		logging.Vertices(g.VertexCount()),
		logging.Edges(g.EdgeCount()),
		logging.Int("skipped", stats.Skipped),
	)
	return g, nil
}

func (a *app) readGraph(ctx context.Context) (*graph.Graph, edgelist.LoadStats, error) {
	rc, err := a.resolver.Open(ctx, a.cfg.Input)
	if err != nil {
		return nil, edgelist.LoadStats{}, err
	}
	defer rc.Close()
	return edgelist.Load(rc, a.cfg.LoadOptions(a.logger))
}

func (a *app) propagate(g *graph.Graph) (*algorithms.PropagationResult, error) {
	opts := a.cfg.PropagationOptions(a.logger)
	opts.Observer = a.observeRound()

	start := time.Now()
	result, err := algorithms.LabelPropagation(g, opts)
	if err != nil {
		a.metrics.RecordRun(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	outcome := metrics.OutcomeLimitReached
	if result.Converged() {
		outcome = metrics.OutcomeConverged
	}
	a.metrics.RecordRun(outcome, result.Duration)
	a.metrics.RecordRunInfo(a.runID, result.Seed, validation.DefaultOr(opts.Workers, runtime.GOMAXPROCS(0)))

	a.publish(progress.TopicResult, resultMessage{
		Communities: result.Communities,
		Modularity:  result.Modularity,
		BestRound:   result.BestRound,
		Rounds:      result.Rounds,
		Termination: result.Termination.String(),
		Seed:        result.Seed,
		DurationMS:  result.Duration.Milliseconds(),
	})
	return result, nil
}

// observeRound feeds every evaluated round to metrics, progress and the
// console.
func (a *app) observeRound() algorithms.RoundObserver {
	var best float64
	first := true
	return func(s algorithms.RoundStats) {
		if first || s.Improved {
			best = s.Modularity
			first = false
		}
		a.tracker.ObserveRound(s.Round, s.Active)
		a.metrics.RecordRound(s.Active, s.Communities, s.Modularity, best, s.Duration)

		label := fmt.Sprintf("%d", s.Round)
		if s.Round == algorithms.InitialRound {
			label = "INIT"
		}
		fmt.Fprintf(a.stdout, "%s | active: %d community: %d modularity: %.6f\n",
			label, s.Active, s.Communities, s.Modularity)

		a.publish(progress.TopicRound, roundMessage{
			Round:       s.Round,
			Active:      s.Active,
			Communities: s.Communities,
			Modularity:  s.Modularity,
			Improved:    s.Improved,
			DurationMS:  s.Duration.Milliseconds(),
		})
	}
}

func (a *app) publish(topic string, v any) {
	if a.progress == nil {
		return
	}
	if err := a.progress.Publish(topic, v); err != nil {
		a.logger.Warn("failed to publish progress", logging.String("topic", topic), logging.Error(err))
	}
}

func (a *app) store(ctx context.Context, labels []graph.VertexID) error {
	start := time.Now()
	w, err := labelstore.NewWriter(a.cfg.Output, a.resolver, a.cfg.Delimiter, a.logger)
	if err == nil {
		err = w.Write(ctx, labels)
	}
	a.metrics.RecordIO(metrics.PhaseStore, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to store labels to %s: %w", a.cfg.Output, err)
	}
	a.metrics.RecordStore(len(labels))
	return nil
}

func usesS3(uri string) bool {
	loc, err := resource.Parse(uri)
	return err == nil && loc.Scheme == resource.SchemeS3
}
