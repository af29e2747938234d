package algorithms

import (
	"cmp"
	"slices"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/parallel"
)

// BuildCommunities groups the vertices of g by label. Communities are ordered
// by size, largest first, with ties broken by label, and numbered in that
// order.
func BuildCommunities(g *graph.Graph, labels []graph.VertexID) ([]*Community, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if err := validateAssignment(g, labels); err != nil {
		return nil, err
	}

	ix := indexCommunities(labels)
	internal := make([]int, len(labels))
	_ = parallel.Range(len(labels), 0, func(lo, hi int) error {
		for l := lo; l < hi; l++ {
			if members := ix.community(l); len(members) > 0 {
				internal[l], _ = communityEdges(g, labels, graph.VertexID(l), members)
			}
		}
		return nil
	})

	communities := make([]*Community, 0, ix.count)
	for l := range labels {
		members := ix.community(l)
		if len(members) == 0 {
			continue
		}

		community := &Community{
			Label:         graph.VertexID(l),
			Nodes:         slices.Clone(members),
			Size:          len(members),
			InternalEdges: internal[l] / 2,
		}
		community.Density = density(community.InternalEdges, community.Size)
		communities = append(communities, community)
	}

	slices.SortFunc(communities, func(a, b *Community) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	for i, c := range communities {
		c.ID = i
	}
	return communities, nil
}

// density is the fraction of possible undirected pairs that are edges.
func density(edges, size int) float64 {
	if size < 2 {
		return 0
	}
	possible := float64(size) * float64(size-1) / 2
	return float64(edges) / possible
}
