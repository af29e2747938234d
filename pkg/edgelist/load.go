package edgelist

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
)

// maxRowWarnings caps how many skipped rows are logged individually.
const maxRowWarnings = 10

// MaxVertexCount bounds the vertex count a header may declare or edges may
// imply. Each vertex costs a slice header plus a label cell, so the limit
// keeps the adjacency index within a few GiB.
const MaxVertexCount = 1 << 26

// MaxInferredVertexID is the largest vertex ID accepted when the vertex
// count is inferred from the edges rather than declared by a header.
const MaxInferredVertexID = MaxVertexCount - 1

// LoadOptions configures Load.
type LoadOptions struct {
	Delimiter Delimiter
	Header    bool // first record is "vertex_count<delim>edge_count"
	Strict    bool // abort on the first malformed row instead of skipping it
	Logger    logging.Logger
}

// DefaultLoadOptions returns options for a whitespace-separated edge list
// with a header.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Delimiter: Whitespace, Header: true}
}

// LoadStats summarizes one load.
type LoadStats struct {
	Vertices      int
	Edges         int // accepted edge records
	DeclaredEdges int // edge count from the header, -1 without a header
	Skipped       int // malformed records dropped
	Duration      time.Duration
}

// EdgeCountMismatch reports whether the header declared a different number
// of edges than were accepted.
func (s LoadStats) EdgeCountMismatch() bool {
	return s.DeclaredEdges >= 0 && s.DeclaredEdges != s.Edges
}

// loader carries the state shared by both load modes.
type loader struct {
	opts   LoadOptions
	logger logging.Logger
	parser *Parser
	stats  LoadStats
}

// Load reads an edge list from r and builds the graph. Malformed records are
// skipped and counted unless opts.Strict is set, in which case the first one
// aborts the load. A malformed header always aborts. The graph's edge count
// is the number of accepted records.
func Load(r io.Reader, opts LoadOptions) (*graph.Graph, LoadStats, error) {
	l := &loader{
		opts:   opts,
		logger: logging.OrNop(opts.Logger).With(logging.Component("edgelist")),
		parser: NewParser(r, opts.Delimiter),
		stats:  LoadStats{DeclaredEdges: -1},
	}
	start := time.Now()

	var (
		g   *graph.Graph
		err error
	)
	if opts.Header {
		g, err = l.loadWithHeader()
	} else {
		g, err = l.loadInferred()
	}
	l.stats.Duration = time.Since(start)
	if err != nil {
		return nil, l.stats, err
	}

	l.stats.Vertices = g.VertexCount()
	if l.stats.Skipped > maxRowWarnings {
		l.logger.Warn("additional malformed rows skipped",
			logging.Count(l.stats.Skipped-maxRowWarnings),
		)
	}
	if l.stats.EdgeCountMismatch() {
		l.logger.Warn("edge count differs from header",
			logging.Int("declared", l.stats.DeclaredEdges),
			logging.Edges(l.stats.Edges),
		)
	}
	l.logger.Debug("edge list loaded",
		logging.Vertices(l.stats.Vertices),
		logging.Edges(l.stats.Edges),
		logging.Int("skipped", l.stats.Skipped),
		logging.Latency(l.stats.Duration),
	)
	return g, l.stats, nil
}

func (l *loader) loadWithHeader() (*graph.Graph, error) {
	h, err := l.parser.Header()
	if err != nil {
		return nil, err
	}
	l.stats.DeclaredEdges = h.EdgeCount

	b, err := graph.NewBuilder(h.VertexCount)
	if err != nil {
		return nil, fmt.Errorf("header declares %d vertices: %w", h.VertexCount, err)
	}

	for edge, err := range l.parser.Edges() {
		if err == nil {
			if err = b.AddEdge(edge.Src, edge.Dst); err != nil {
				err = &RowError{
					Line:  l.parser.Line(),
					Raw:   l.parser.raw(l.parser.fields),
					Cause: err,
				}
			}
		}
		if err != nil {
			if err = l.reject(err); err != nil {
				return nil, err
			}
			continue
		}
		l.stats.Edges++
	}
	return b.Build()
}

// loadInferred buffers the edges to learn the largest vertex ID, then sizes
// the graph to hold it.
func (l *loader) loadInferred() (*graph.Graph, error) {
	var (
		edges []Edge
		maxID graph.VertexID
	)
	for edge, err := range l.parser.Edges() {
		if err == nil && max(edge.Src, edge.Dst) > MaxInferredVertexID {
			err = &RowError{
				Line:  l.parser.Line(),
				Raw:   l.parser.raw(l.parser.fields),
				Cause: fmt.Errorf("%w: limit is %d", graph.ErrVertexOutOfRange, uint64(MaxInferredVertexID)),
			}
		}
		if err != nil {
			if err = l.reject(err); err != nil {
				return nil, err
			}
			continue
		}
		edges = append(edges, edge)
		maxID = max(maxID, edge.Src, edge.Dst)
	}
	if len(edges) == 0 {
		return nil, ErrEmptyInput
	}

	b, err := graph.NewBuilder(int(maxID) + 1)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if err := b.AddEdge(e.Src, e.Dst); err != nil {
			return nil, err
		}
	}
	l.stats.Edges = len(edges)
	return b.Build()
}

// reject decides whether a bad record aborts the load. It returns nil when
// the record was skipped.
func (l *loader) reject(err error) error {
	var rowErr *RowError
	if !errors.As(err, &rowErr) || l.opts.Strict {
		return err
	}

	l.stats.Skipped++
	if l.stats.Skipped <= maxRowWarnings {
		l.logger.Warn("skipping malformed row",
			logging.Line(rowErr.Line),
			logging.String("row", rowErr.Raw),
			logging.Error(rowErr.Cause),
		)
	}
	return nil
}
