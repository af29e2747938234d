package algorithms

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
)

// InitialRound is the round number reported for the singleton assignment
// that exists before the first propagation round.
const InitialRound = -1

// DefaultMaxRounds bounds a propagation run when no limit is configured.
const DefaultMaxRounds = 20

// DefaultChunkSize is the minimum number of vertices a propagation task owns.
const DefaultChunkSize = 1024

var (
	// ErrNilGraph is returned when an algorithm is handed a nil graph.
	ErrNilGraph = errors.New("graph is nil")

	// ErrNegativeRounds is returned for a negative round limit.
	ErrNegativeRounds = errors.New("round limit must be non-negative")

	// ErrAssignmentLength is returned when a label assignment does not cover
	// exactly the graph's vertices.
	ErrAssignmentLength = errors.New("label assignment length does not match vertex count")

	// ErrLabelOutOfRange is returned when an assignment names a label that is
	// not a vertex ID.
	ErrLabelOutOfRange = errors.New("label out of range")
)

// RoundError reports a propagation round that could not complete.
type RoundError struct {
	Round int
	Cause error
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("propagation round %d: %v", e.Round, e.Cause)
}

func (e *RoundError) Unwrap() error {
	return e.Cause
}

// Community is one group of vertices sharing a label.
type Community struct {
	ID            int
	Label         graph.VertexID
	Nodes         []graph.VertexID
	Size          int
	InternalEdges int
	Density       float64 // Edge density within community
}

// Partition is a label assignment together with its quality.
type Partition struct {
	Labels      []graph.VertexID
	Communities int
	Modularity  float64
}

// Termination records why a propagation run stopped.
type Termination int

const (
	// Converged means a full round changed no label.
	Converged Termination = iota
	// LimitReached means the round limit was hit while labels were still moving.
	LimitReached
)

func (t Termination) String() string {
	switch t {
	case Converged:
		return "converged"
	case LimitReached:
		return "limit_reached"
	default:
		return "unknown"
	}
}

// RoundStats describes one evaluated assignment.
type RoundStats struct {
	Round       int
	Active      int64 // Vertices whose label changed during the round
	Communities int
	Modularity  float64
	Improved    bool // The assignment became the new best
	Duration    time.Duration
}

// RoundObserver is called synchronously after every evaluated assignment,
// starting with the initial singleton assignment.
type RoundObserver func(RoundStats)

// PropagationOptions configures a label propagation run.
type PropagationOptions struct {
	MaxRounds int
	Workers   int    // <= 0 uses GOMAXPROCS
	ChunkSize int    // minimum vertices per task, <= 0 uses DefaultChunkSize
	Seed      uint64 // 0 draws a fresh seed per run
	Observer  RoundObserver
	Logger    logging.Logger
}

// DefaultPropagationOptions returns the options used by the CLI when nothing
// is configured.
func DefaultPropagationOptions() PropagationOptions {
	return PropagationOptions{
		MaxRounds: DefaultMaxRounds,
		Workers:   runtime.GOMAXPROCS(0),
		ChunkSize: DefaultChunkSize,
	}
}

// PropagationResult is the best assignment seen during a run along with the
// run's trajectory.
type PropagationResult struct {
	Partition
	BestRound   int
	Rounds      int
	Termination Termination
	Initial     RoundStats
	History     []RoundStats
	Seed        uint64
	Duration    time.Duration
}

// Converged reports whether the run stopped because labels stopped changing.
func (r *PropagationResult) Converged() bool {
	return r.Termination == Converged
}
