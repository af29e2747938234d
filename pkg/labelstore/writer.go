// Package labelstore persists a final label assignment to a file, an object
// store or a PostgreSQL table.
package labelstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dd0wney/cluso-lpa/pkg/edgelist"
	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
	"github.com/dd0wney/cluso-lpa/pkg/resource"
)

// ErrNoDestination is returned when no output destination is configured.
var ErrNoDestination = errors.New("no label destination")

// Writer stores one label per vertex, indexed by vertex ID.
type Writer interface {
	Write(ctx context.Context, labels []graph.VertexID) error
}

// NewWriter picks a writer for dest. postgres:// and postgresql:// URLs go to
// a table; everything else is handed to the resolver as a file or object.
func NewWriter(dest string, resolver *resource.Resolver, d edgelist.Delimiter, logger logging.Logger) (Writer, error) {
	if strings.TrimSpace(dest) == "" {
		return nil, ErrNoDestination
	}
	if isPostgres(dest) {
		return NewPostgresWriter(dest, logger)
	}
	if resolver == nil {
		resolver = &resource.Resolver{Logger: logger}
	}
	return &FileWriter{URI: dest, Resolver: resolver, Delimiter: d, Logger: logger}, nil
}

func isPostgres(dest string) bool {
	return strings.HasPrefix(dest, "postgres://") || strings.HasPrefix(dest, "postgresql://")
}

// FileWriter writes "vertex<delim>label" records to a resource.
type FileWriter struct {
	URI       string
	Resolver  *resource.Resolver
	Delimiter edgelist.Delimiter
	Logger    logging.Logger
}

// Write stores labels. The resource is complete only if Write returns nil.
func (w *FileWriter) Write(ctx context.Context, labels []graph.VertexID) (err error) {
	timer := logging.StartTimer(logging.OrNop(w.Logger), "labels stored",
		logging.Resource(w.URI),
		logging.Vertices(len(labels)),
	)

	out, err := w.Resolver.Create(ctx, w.URI)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			timer.EndError(err)
		} else {
			timer.End()
		}
	}()

	return edgelist.Store(out, labels, w.Delimiter)
}
