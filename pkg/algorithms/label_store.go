package algorithms

import (
	"sync/atomic"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
)

// LabelStore holds one atomically updated label per vertex. Every vertex is
// written only by the task that owns its chunk while any task may read it.
type LabelStore struct {
	cells []atomic.Uint64
}

// NewLabelStore returns a store of n labels with label[v] = v.
func NewLabelStore(n int) *LabelStore {
	s := &LabelStore{cells: make([]atomic.Uint64, n)}
	for v := range s.cells {
		s.cells[v].Store(uint64(v))
	}
	return s
}

// Len returns the number of vertices.
func (s *LabelStore) Len() int {
	return len(s.cells)
}

// Load returns the current label of v.
func (s *LabelStore) Load(v graph.VertexID) graph.VertexID {
	return s.cells[v].Load()
}

// Swap publishes label as the label of v and returns the previous value.
func (s *LabelStore) Swap(v graph.VertexID, label graph.VertexID) graph.VertexID {
	return s.cells[v].Swap(label)
}

// snapshotRange copies the labels in [lo, hi) into dst[lo:hi].
func (s *LabelStore) snapshotRange(dst []graph.VertexID, lo, hi int) {
	for v := lo; v < hi; v++ {
		dst[v] = s.cells[v].Load()
	}
}

// Snapshot copies every label into dst, allocating it when it is too short,
// and returns the filled slice. Callers take snapshots only between rounds.
func (s *LabelStore) Snapshot(dst []graph.VertexID) []graph.VertexID {
	if cap(dst) < len(s.cells) {
		dst = make([]graph.VertexID, len(s.cells))
	}
	dst = dst[:len(s.cells)]
	s.snapshotRange(dst, 0, len(s.cells))
	return dst
}
