package graph

import "fmt"

// Builder accumulates undirected edges for a fixed number of vertices.
// It is not safe for concurrent use.
type Builder struct {
	adjacency [][]VertexID
	edges     int
	built     bool
}

// NewBuilder creates a builder for vertexCount vertices.
func NewBuilder(vertexCount int) (*Builder, error) {
	if vertexCount <= 0 {
		return nil, &GraphError{Op: "NewBuilder", Cause: ErrEmptyGraph}
	}
	return &Builder{adjacency: make([][]VertexID, vertexCount)}, nil
}

// VertexCount returns the number of vertices the builder was sized for.
func (b *Builder) VertexCount() int {
	return len(b.adjacency)
}

// EdgeCount returns the number of edges added so far.
func (b *Builder) EdgeCount() int {
	return b.edges
}

// AddEdge records the undirected edge u-v by appending each endpoint to the
// other's adjacency list.
func (b *Builder) AddEdge(u, v VertexID) error {
	if b.built {
		return edgeError("AddEdge", u, v, ErrGraphBuilt)
	}
	n := VertexID(len(b.adjacency))
	if u >= n || v >= n {
		return edgeError("AddEdge", u, v, fmt.Errorf("%w: vertex count is %d", ErrVertexOutOfRange, n))
	}
	b.adjacency[u] = append(b.adjacency[u], v)
	b.adjacency[v] = append(b.adjacency[v], u)
	b.edges++
	return nil
}

// Build freezes the builder and returns the graph. The builder cannot be used
// afterwards.
func (b *Builder) Build() (*Graph, error) {
	if b.built {
		return nil, &GraphError{Op: "Build", Cause: ErrGraphBuilt}
	}
	b.built = true

	degreeSum := 0
	for _, neighbors := range b.adjacency {
		degreeSum += len(neighbors)
	}
	return &Graph{
		adjacency: b.adjacency,
		edgeCount: b.edges,
		degreeSum: degreeSum,
	}, nil
}

// FromEdges builds a graph from an edge slice. It is mostly a convenience for
// tests and small inputs.
func FromEdges(vertexCount int, edges [][2]VertexID) (*Graph, error) {
	b, err := NewBuilder(vertexCount)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if err := b.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
