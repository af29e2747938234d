// Package report summarizes a label assignment for people: how many
// communities there are, how their sizes are distributed and which are the
// largest.
package report

import (
	"cmp"
	"fmt"
	"io"
	"math/bits"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
)

// CommunitySize is the number of vertices carrying a label.
type CommunitySize struct {
	Label graph.VertexID
	Size  int
}

// SizeBucket counts the communities whose size falls in [Min, Max].
type SizeBucket struct {
	Min, Max    int
	Communities int
	Vertices    int
}

// Summary describes the community structure of an assignment.
type Summary struct {
	Vertices    int
	Communities int
	Singletons  int
	Largest     []CommunitySize // largest first
	Histogram   []SizeBucket    // power-of-two size classes, ascending
}

// Summarize counts community sizes. Labels must be vertex IDs, as produced by
// label propagation. topK bounds the Largest list.
func Summarize(labels []graph.VertexID, topK int) Summary {
	sizes := make([]int, len(labels))
	for _, l := range labels {
		if l < graph.VertexID(len(sizes)) {
			sizes[l]++
		}
	}

	s := Summary{Vertices: len(labels)}
	histogram := treemap.NewWith(utils.IntComparator)
	top := binaryheap.NewWith(smallerFirst)

	for l, size := range sizes {
		if size == 0 {
			continue
		}
		s.Communities++
		if size == 1 {
			s.Singletons++
		}

		lo := bucketFloor(size)
		b, found := histogram.Get(lo)
		if !found {
			b = &SizeBucket{Min: lo, Max: 2*lo - 1}
			histogram.Put(lo, b)
		}
		bucket := b.(*SizeBucket)
		bucket.Communities++
		bucket.Vertices += size

		if topK > 0 {
			offerTop(top, CommunitySize{Label: graph.VertexID(l), Size: size}, topK)
		}
	}

	it := histogram.Iterator()
	for it.Next() {
		s.Histogram = append(s.Histogram, *it.Value().(*SizeBucket))
	}

	s.Largest = make([]CommunitySize, top.Size())
	for i := len(s.Largest) - 1; i >= 0; i-- {
		v, _ := top.Pop()
		s.Largest[i] = v.(CommunitySize)
	}
	return s
}

// smallerFirst orders the top-K heap so its root is the community that
// would be evicted first: the smallest, and among equals the highest label.
func smallerFirst(a, b interface{}) int {
	x, y := a.(CommunitySize), b.(CommunitySize)
	if c := cmp.Compare(x.Size, y.Size); c != 0 {
		return c
	}
	return cmp.Compare(y.Label, x.Label)
}

func offerTop(top *binaryheap.Heap, c CommunitySize, k int) {
	if top.Size() < k {
		top.Push(c)
		return
	}
	root, _ := top.Peek()
	if smallerFirst(c, root) > 0 {
		top.Pop()
		top.Push(c)
	}
}

// bucketFloor returns the largest power of two not above size.
func bucketFloor(size int) int {
	return 1 << (bits.Len(uint(size)) - 1)
}

// Write renders the summary as plain text.
func (s Summary) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "vertices: %d, communities: %d, singletons: %d\n",
		s.Vertices, s.Communities, s.Singletons); err != nil {
		return err
	}

	if len(s.Largest) > 0 {
		if _, err := fmt.Fprintln(w, "largest communities:"); err != nil {
			return err
		}
		for i, c := range s.Largest {
			if _, err := fmt.Fprintf(w, "  %3d. label %d: %d vertices\n", i+1, c.Label, c.Size); err != nil {
				return err
			}
		}
	}

	if len(s.Histogram) > 0 {
		if _, err := fmt.Fprintln(w, "size distribution:"); err != nil {
			return err
		}
		for _, b := range s.Histogram {
			if _, err := fmt.Fprintf(w, "  %8d-%-8d %8d communities %10d vertices\n",
				b.Min, b.Max, b.Communities, b.Vertices); err != nil {
				return err
			}
		}
	}
	return nil
}
