package algorithms

import (
	"runtime"

	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/parallel"
)

// Modularity scores a label assignment of g:
//
//	Q = Σ_c [ l_c/(2m) − (d_c/(2m))² ]
//
// where l_c counts ordered adjacency entries with both ends in community c and
// d_c is the degree sum of c. A graph without edges scores 0. It also returns
// the number of non-empty communities.
func Modularity(g *graph.Graph, labels []graph.VertexID) (int, float64, error) {
	if g == nil {
		return 0, 0, ErrNilGraph
	}
	if err := validateAssignment(g, labels); err != nil {
		return 0, 0, err
	}
	communities, q := evaluateModularity(g, labels, 0)
	return communities, q, nil
}

func validateAssignment(g *graph.Graph, labels []graph.VertexID) error {
	if len(labels) != g.VertexCount() {
		return ErrAssignmentLength
	}
	n := graph.VertexID(len(labels))
	for _, l := range labels {
		if l >= n {
			return ErrLabelOutOfRange
		}
	}
	return nil
}

// communityIndex groups vertices by label with a counting sort: the members
// of label l are members[offsets[l]:offsets[l+1]].
type communityIndex struct {
	offsets []int
	members []graph.VertexID
	count   int
}

func indexCommunities(labels []graph.VertexID) communityIndex {
	n := len(labels)
	offsets := make([]int, n+1)
	for _, l := range labels {
		offsets[l+1]++
	}

	count := 0
	for l := 0; l < n; l++ {
		if offsets[l+1] > 0 {
			count++
		}
		offsets[l+1] += offsets[l]
	}

	next := make([]int, n)
	copy(next, offsets[:n])
	members := make([]graph.VertexID, n)
	for v, l := range labels {
		members[next[l]] = graph.VertexID(v)
		next[l]++
	}

	return communityIndex{offsets: offsets, members: members, count: count}
}

// community returns the members of label l.
func (ix communityIndex) community(l int) []graph.VertexID {
	return ix.members[ix.offsets[l]:ix.offsets[l+1]]
}

// evaluateModularity assumes a validated assignment. Label ranges are scored
// in parallel and the partial sums are added in span order, so repeated
// evaluations of the same assignment return identical values.
func evaluateModularity(g *graph.Graph, labels []graph.VertexID, workers int) (int, float64) {
	ix := indexCommunities(labels)
	m := g.EdgeCount()
	if m == 0 {
		return ix.count, 0
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	twoM := float64(2 * m)
	spans := parallel.Chunks(len(labels), workers*4, 256)
	partials := make([]float64, len(spans))

	// Span callbacks never fail.
	_ = parallel.ForEachSpan(spans, workers, func(i int, s parallel.Span) error {
		var sum float64
		for l := s.Lo; l < s.Hi; l++ {
			members := ix.community(l)
			if len(members) == 0 {
				continue
			}
			internal, degree := communityEdges(g, labels, graph.VertexID(l), members)
			share := float64(degree) / twoM
			sum += float64(internal)/twoM - share*share
		}
		partials[i] = sum
		return nil
	})

	return ix.count, floats.Sum(partials)
}

// communityEdges returns the ordered internal adjacency entries and the
// degree sum of the community labelled label.
func communityEdges(g *graph.Graph, labels []graph.VertexID, label graph.VertexID, members []graph.VertexID) (internal, degree int) {
	for _, v := range members {
		neighbors := g.Neighbors(v)
		degree += len(neighbors)
		for _, w := range neighbors {
			if labels[w] == label {
				internal++
			}
		}
	}
	return internal, degree
}
