package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrEmptyGraph        = errors.New("graph has no vertices")
	ErrVertexOutOfRange  = errors.New("vertex out of range")
	ErrNegativeEdgeCount = errors.New("negative edge count")
	ErrAdjacencySize     = errors.New("adjacency size does not match vertex count")
	ErrGraphBuilt        = errors.New("graph already built")
)

// GraphError provides structured error information for graph construction.
type GraphError struct {
	Op       string   // Operation that failed (e.g., "New", "AddEdge")
	Vertex   VertexID // Vertex whose adjacency was being examined
	Neighbor VertexID // Offending neighbor, if any
	HasEdge  bool     // Whether Vertex/Neighbor identify an edge
	Cause    error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.HasEdge {
		return fmt.Sprintf("%s: edge %d-%d: %v", e.Op, e.Vertex, e.Neighbor, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func edgeError(op string, u, v VertexID, cause error) error {
	return &GraphError{Op: op, Vertex: u, Neighbor: v, HasEdge: true, Cause: cause}
}
