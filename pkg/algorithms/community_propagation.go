package algorithms

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
	"github.com/dd0wney/cluso-lpa/pkg/parallel"
	"github.com/dd0wney/cluso-lpa/pkg/pools"
)

// tallyResetSize is the tally size past which a task drops its count map
// instead of clearing it for the next vertex. Clearing costs the map's
// capacity, not its length.
const tallyResetSize = 256

// Propagator runs label propagation rounds over a shared label store.
// Each round forks one task per vertex chunk onto a worker pool and returns
// only after every task has finished.
type Propagator struct {
	g      *graph.Graph
	labels *LabelStore
	pool   *parallel.WorkerPool
	spans  []parallel.Span
	tasks  []func()
	seed   uint64
	round  int
	active atomic.Int64
}

// NewPropagator prepares a propagator over g with every vertex in its own
// singleton community. Close releases its workers.
func NewPropagator(g *graph.Graph, opts PropagationOptions) (*Propagator, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	pool, err := parallel.NewWorkerPool(opts.Workers)
	if err != nil {
		return nil, err
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	p := &Propagator{
		g:      g,
		labels: NewLabelStore(g.VertexCount()),
		pool:   pool,
		spans:  parallel.Chunks(g.VertexCount(), pool.Workers()*4, chunkSize),
		seed:   seed,
	}
	p.tasks = make([]func(), len(p.spans))
	for i := range p.spans {
		p.tasks[i] = func() { p.propagateSpan(i) }
	}
	return p, nil
}

// Labels returns the live label store.
func (p *Propagator) Labels() *LabelStore {
	return p.labels
}

// Seed returns the seed the per-task random sources derive from.
func (p *Propagator) Seed() uint64 {
	return p.seed
}

// Workers returns the number of worker goroutines.
func (p *Propagator) Workers() int {
	return p.pool.Workers()
}

// Round returns the number of completed rounds.
func (p *Propagator) Round() int {
	return p.round
}

// Step runs one full round and returns how many vertices changed label.
// A panicking task fails the whole round.
func (p *Propagator) Step() (int64, error) {
	p.active.Store(0)
	if err := p.pool.Run(p.tasks); err != nil {
		return 0, &RoundError{Round: p.round, Cause: err}
	}
	p.round++
	return p.active.Load(), nil
}

// Snapshot copies the current labels into dst. It must not overlap Step.
func (p *Propagator) Snapshot(dst []graph.VertexID) []graph.VertexID {
	if cap(dst) < p.labels.Len() {
		dst = make([]graph.VertexID, p.labels.Len())
	}
	dst = dst[:p.labels.Len()]
	_ = parallel.ForEachSpan(p.spans, p.pool.Workers(), func(_ int, s parallel.Span) error {
		p.labels.snapshotRange(dst, s.Lo, s.Hi)
		return nil
	})
	return dst
}

// Close stops the worker pool.
func (p *Propagator) Close() {
	p.pool.Close()
}

// taskRand returns the random source for one task of the current round.
// Streams never repeat across rounds or chunks of a run.
func (p *Propagator) taskRand(chunk int) *rand.Rand {
	return rand.New(rand.NewPCG(p.seed, uint64(p.round)<<32|uint64(chunk)))
}

func (p *Propagator) propagateSpan(chunk int) {
	span := p.spans[chunk]
	rng := p.taskRand(chunk)
	tally := pools.GetCountMap()

	var changed int64
	for v := span.Lo; v < span.Hi; v++ {
		if p.propagateVertex(graph.VertexID(v), tally, rng) {
			changed++
		}
		if len(tally) > tallyResetSize {
			tally = make(map[uint64]int, 16)
		} else {
			clear(tally)
		}
	}
	pools.PutCountMap(tally)

	if changed > 0 {
		p.active.Add(changed)
	}
}

// propagateVertex adopts the most frequent label among v's neighbors, ties
// broken uniformly at random, and reports whether the label changed.
func (p *Propagator) propagateVertex(v graph.VertexID, tally map[uint64]int, rng *rand.Rand) bool {
	neighbors := p.g.Neighbors(v)
	if len(neighbors) == 0 {
		return false
	}

	current := p.labels.Load(v)
	tb := tieBreaker{label: current}
	for _, w := range neighbors {
		l := p.labels.Load(w)
		tally[l]++
		tb.offer(l, tally[l], rng)
	}

	if tb.label == current {
		return false
	}
	return p.labels.Swap(v, tb.label) != tb.label
}

// LabelPropagation detects communities in g by asynchronous label
// propagation and returns the highest-modularity assignment observed,
// including the initial singleton assignment. It stops when a round changes
// no label or after opts.MaxRounds rounds.
func LabelPropagation(g *graph.Graph, opts PropagationOptions) (*PropagationResult, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if opts.MaxRounds < 0 {
		return nil, ErrNegativeRounds
	}

	logger := logging.OrNop(opts.Logger).With(logging.Component("propagation"))
	start := time.Now()

	p, err := NewPropagator(g, opts)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	logger.Debug("propagation started",
		logging.Vertices(g.VertexCount()),
		logging.Edges(g.EdgeCount()),
		logging.Int("workers", p.Workers()),
		logging.Int("tasks", len(p.spans)),
		logging.Uint64("seed", p.Seed()),
	)

	var tracker BestTracker
	snapshot := p.Snapshot(nil)
	communities, q := evaluateModularity(g, snapshot, p.Workers())
	initial := RoundStats{
		Round:       InitialRound,
		Active:      int64(g.VertexCount()),
		Communities: communities,
		Modularity:  q,
		Improved:    tracker.Observe(InitialRound, snapshot, communities, q),
		Duration:    time.Since(start),
	}
	notify(opts.Observer, initial)

	history := make([]RoundStats, 0, min(opts.MaxRounds, 64))
	active := initial.Active
	for p.Round() < opts.MaxRounds && active > 0 {
		roundStart := time.Now()
		round := p.Round()

		active, err = p.Step()
		if err != nil {
			logger.Error("propagation round failed", logging.Round(round), logging.Error(err))
			return nil, err
		}

		snapshot = p.Snapshot(snapshot)
		communities, q = evaluateModularity(g, snapshot, p.Workers())
		stats := RoundStats{
			Round:       round,
			Active:      active,
			Communities: communities,
			Modularity:  q,
			Improved:    tracker.Observe(round, snapshot, communities, q),
			Duration:    time.Since(roundStart),
		}
		history = append(history, stats)

		logger.Debug("round complete",
			logging.Round(round),
			logging.Active(active),
			logging.Communities(communities),
			logging.Modularity(q),
			logging.Latency(stats.Duration),
		)
		notify(opts.Observer, stats)
	}

	termination := LimitReached
	if active == 0 {
		termination = Converged
	}

	best, _ := tracker.Best()
	result := &PropagationResult{
		Partition:   best.Partition,
		BestRound:   best.Round,
		Rounds:      p.Round(),
		Termination: termination,
		Initial:     initial,
		History:     history,
		Seed:        p.Seed(),
		Duration:    time.Since(start),
	}

	logger.Info("propagation finished",
		logging.Int("rounds", result.Rounds),
		logging.String("termination", termination.String()),
		logging.Communities(result.Communities),
		logging.Modularity(result.Modularity),
		logging.Int("best_round", result.BestRound),
		logging.Latency(result.Duration),
	)
	return result, nil
}

func notify(observer RoundObserver, stats RoundStats) {
	if observer != nil {
		observer(stats)
	}
}
