// Package edgelist reads and writes the delimited text formats used for
// graph input and label output.
//
// An edge list is a header record "vertex_count<delim>edge_count" followed by
// one "src<delim>dst" record per undirected edge. Lines starting with '#' are
// comments. Vertex IDs are dense integers in [0, vertex_count).
package edgelist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
)

// Header is the leading record of an edge list.
type Header struct {
	VertexCount int
	EdgeCount   int
}

// Edge is one undirected edge record.
type Edge struct {
	Src, Dst graph.VertexID
}

// Parser reads edge list records from a stream. It is not safe for
// concurrent use.
type Parser struct {
	reader    *csv.Reader
	delimiter Delimiter
	fields    []string
	line      int
}

// NewParser returns a parser reading records separated by d from r.
func NewParser(r io.Reader, d Delimiter) *Parser {
	d = d.orDefault()

	cr := csv.NewReader(r)
	cr.Comma = rune(d)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	return &Parser{reader: cr, delimiter: d}
}

// Line returns the line number of the most recently read record.
func (p *Parser) Line() int {
	return p.line
}

// next reads one record and normalizes its fields. In whitespace mode runs of
// blanks produce empty fields, which are dropped.
func (p *Parser) next() ([]string, error) {
	record, err := p.reader.Read()
	if err != nil {
		return nil, err
	}
	p.line, _ = p.reader.FieldPos(0)

	fields := p.fields[:0]
	for _, f := range record {
		f = strings.TrimSpace(f)
		if f == "" && p.delimiter == Whitespace {
			continue
		}
		fields = append(fields, f)
	}
	p.fields = fields
	return fields, nil
}

func (p *Parser) raw(fields []string) string {
	return strings.Join(fields, string(p.delimiter))
}

// Header reads the header record. It must be called before Edges when the
// input carries a header.
func (p *Parser) Header() (Header, error) {
	fields, err := p.next()
	if errors.Is(err, io.EOF) {
		return Header{}, ErrEmptyInput
	}
	if err != nil {
		return Header{}, p.headerError(err)
	}

	if len(fields) != 2 {
		return Header{}, &RowError{
			Line:  p.line,
			Raw:   p.raw(fields),
			Cause: fmt.Errorf("%w: %w", ErrMalformedHeader, ErrFieldCount),
		}
	}

	counts := [2]int{}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Header{}, &RowError{
				Line:  p.line,
				Raw:   p.raw(fields),
				Cause: fmt.Errorf("%w: count %q is not a non-negative integer", ErrMalformedHeader, f),
			}
		}
		counts[i] = n
	}
	if counts[0] > MaxVertexCount {
		return Header{}, &RowError{
			Line:  p.line,
			Raw:   p.raw(fields),
			Cause: fmt.Errorf("%w: vertex count %d exceeds limit %d", ErrMalformedHeader, counts[0], MaxVertexCount),
		}
	}
	return Header{VertexCount: counts[0], EdgeCount: counts[1]}, nil
}

func (p *Parser) headerError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &RowError{Line: pe.Line, Cause: fmt.Errorf("%w: %w", ErrMalformedHeader, pe.Err)}
	}
	return err
}

// Edges returns the remaining records as a lazy sequence. A record that is
// not a valid edge yields a *RowError and the sequence continues; any other
// error is yielded last.
func (p *Parser) Edges() iter.Seq2[Edge, error] {
	return func(yield func(Edge, error) bool) {
		for {
			fields, err := p.next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if !errors.As(err, &pe) {
					yield(Edge{}, err)
					return
				}
				p.line = pe.Line
				if !yield(Edge{}, &RowError{Line: pe.Line, Cause: pe.Err}) {
					return
				}
				continue
			}

			edge, err := parseEdge(fields)
			if err != nil {
				err = &RowError{Line: p.line, Raw: p.raw(fields), Cause: err}
			}
			if !yield(edge, err) {
				return
			}
		}
	}
}

func parseEdge(fields []string) (Edge, error) {
	if len(fields) != 2 {
		return Edge{}, fmt.Errorf("%w, got %d", ErrFieldCount, len(fields))
	}
	src, err := parseVertex(fields[0])
	if err != nil {
		return Edge{}, err
	}
	dst, err := parseVertex(fields[1])
	if err != nil {
		return Edge{}, err
	}
	return Edge{Src: src, Dst: dst}, nil
}

func parseVertex(s string) (graph.VertexID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVertex, s)
	}
	return v, nil
}
