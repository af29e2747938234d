// Package graph holds the dense, undirected adjacency structure that the
// community detection engine reads.
//
// A Graph is immutable once built and may be shared between any number of
// goroutines without synchronization.
package graph

import "fmt"

// VertexID is a dense vertex handle in [0, VertexCount).
type VertexID = uint64

// Graph is an undirected graph stored as adjacency lists. Both directions of
// every input edge are present, so len(Neighbors(v)) is the degree of v.
// Self-loops and parallel edges are kept as delivered.
type Graph struct {
	adjacency [][]VertexID
	edgeCount int
	degreeSum int
}

// New validates the adjacency lists and wraps them in a Graph. The slices are
// retained, not copied; callers must not modify them afterwards.
func New(vertexCount int, adjacency [][]VertexID, edgeCount int) (*Graph, error) {
	if vertexCount <= 0 {
		return nil, &GraphError{Op: "New", Cause: ErrEmptyGraph}
	}
	if len(adjacency) != vertexCount {
		return nil, &GraphError{
			Op:    "New",
			Cause: fmt.Errorf("%w: %d lists for %d vertices", ErrAdjacencySize, len(adjacency), vertexCount),
		}
	}
	if edgeCount < 0 {
		return nil, &GraphError{Op: "New", Cause: fmt.Errorf("%w: %d", ErrNegativeEdgeCount, edgeCount)}
	}

	n := VertexID(vertexCount)
	degreeSum := 0
	for u, neighbors := range adjacency {
		for _, v := range neighbors {
			if v >= n {
				return nil, edgeError("New", VertexID(u), v, ErrVertexOutOfRange)
			}
		}
		degreeSum += len(neighbors)
	}

	return &Graph{
		adjacency: adjacency,
		edgeCount: edgeCount,
		degreeSum: degreeSum,
	}, nil
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	return len(g.adjacency)
}

// EdgeCount returns the number of undirected input edges (m).
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Neighbors returns the adjacency list of v. The slice must not be modified.
func (g *Graph) Neighbors(v VertexID) []VertexID {
	return g.adjacency[v]
}

// Degree returns the number of adjacency entries of v.
func (g *Graph) Degree(v VertexID) int {
	return len(g.adjacency[v])
}

// DegreeSum returns the total length of all adjacency lists.
func (g *Graph) DegreeSum() int {
	return g.degreeSum
}
