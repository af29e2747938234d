package algorithms

import (
	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/pools"
)

// ConnectedComponents labels every vertex with the smallest vertex ID in its
// connected component and scores the result. It is the partition label
// propagation would reach if every component collapsed to one community.
func ConnectedComponents(g *graph.Graph) (*Partition, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	n := g.VertexCount()
	labels := make([]graph.VertexID, n)
	visited := make([]bool, n)

	// BFS to find each component
	queue := pools.GetVertices(64)
	defer func() { pools.PutVertices(queue) }()

	for start := range n {
		if visited[start] {
			continue
		}

		root := graph.VertexID(start)
		visited[start] = true
		queue = append(queue[:0], root)
		for head := 0; head < len(queue); head++ {
			v := queue[head]
			labels[v] = root
			for _, w := range g.Neighbors(v) {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
	}

	communities, q := evaluateModularity(g, labels, 0)
	return &Partition{
		Labels:      labels,
		Communities: communities,
		Modularity:  q,
	}, nil
}
