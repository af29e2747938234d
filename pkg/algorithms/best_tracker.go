package algorithms

import "github.com/dd0wney/cluso-lpa/pkg/graph"

// BestAssignment is a copy of the highest-modularity assignment observed.
type BestAssignment struct {
	Partition
	Round int
}

// BestTracker remembers the assignment with the highest modularity among
// those offered to it. It starts empty, so the first offer always wins.
type BestTracker struct {
	best BestAssignment
	set  bool
}

// Observe offers an assignment and reports whether it replaced the best.
// Only a strictly greater modularity replaces the current best; the labels
// are deep-copied so the caller may keep mutating its slice.
func (t *BestTracker) Observe(round int, labels []graph.VertexID, communities int, modularity float64) bool {
	if t.set && modularity <= t.best.Modularity {
		return false
	}

	dst := t.best.Labels
	if cap(dst) < len(labels) {
		dst = make([]graph.VertexID, len(labels))
	}
	dst = dst[:len(labels)]
	copy(dst, labels)

	t.best = BestAssignment{
		Partition: Partition{
			Labels:      dst,
			Communities: communities,
			Modularity:  modularity,
		},
		Round: round,
	}
	t.set = true
	return true
}

// HasBest reports whether any assignment has been observed.
func (t *BestTracker) HasBest() bool {
	return t.set
}

// Best returns the best assignment and false when nothing was observed.
// The returned labels are owned by the tracker until the next Observe.
func (t *BestTracker) Best() (BestAssignment, bool) {
	return t.best, t.set
}
