package labelstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
)

// DefaultTable receives labels when the URL names no table.
const DefaultTable = "community_labels"

// ErrInvalidTable is returned for an empty or malformed table name.
var ErrInvalidTable = errors.New("invalid table name")

// PostgresWriter replaces the contents of a (vertex_id, label) table with an
// assignment in one transaction, streaming rows with COPY.
//
// Two query parameters are consumed from the URL and not passed to the
// server: table=[schema.]name selects the table and append=true keeps
// existing rows instead of truncating them.
type PostgresWriter struct {
	connString string
	table      pgx.Identifier
	appendRows bool
	logger     logging.Logger
}

// NewPostgresWriter parses dest without connecting.
func NewPostgresWriter(dest string, logger logging.Logger) (*PostgresWriter, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres url: %w", err)
	}

	q := u.Query()
	table, err := parseTable(q.Get("table"))
	if err != nil {
		return nil, err
	}
	appendRows := false
	if v := q.Get("append"); v != "" {
		if appendRows, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid append parameter %q: %w", v, err)
		}
	}
	q.Del("table")
	q.Del("append")
	u.RawQuery = q.Encode()

	return &PostgresWriter{
		connString: u.String(),
		table:      table,
		appendRows: appendRows,
		logger:     logging.OrNop(logger),
	}, nil
}

func parseTable(name string) (pgx.Identifier, error) {
	if name == "" {
		return pgx.Identifier{DefaultTable}, nil
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTable, name)
		}
	}
	return pgx.Identifier(parts), nil
}

// Table returns the sanitized target table name.
func (w *PostgresWriter) Table() string {
	return w.table.Sanitize()
}

// Write stores labels in the target table.
func (w *PostgresWriter) Write(ctx context.Context, labels []graph.VertexID) error {
	timer := logging.StartTimer(w.logger, "labels copied",
		logging.String("table", w.Table()),
		logging.Vertices(len(labels)),
	)

	conn, err := pgx.Connect(ctx, w.connString)
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close(context.Background())

	if err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		return w.copyLabels(ctx, tx, labels)
	}); err != nil {
		timer.EndError(err)
		return err
	}

	timer.End()
	return nil
}

func (w *PostgresWriter) copyLabels(ctx context.Context, tx pgx.Tx, labels []graph.VertexID) error {
	table := w.Table()
	ddl := "CREATE TABLE IF NOT EXISTS " + table + " (vertex_id BIGINT PRIMARY KEY, label BIGINT NOT NULL)"
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}
	if !w.appendRows {
		if _, err := tx.Exec(ctx, "TRUNCATE "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	n, err := tx.CopyFrom(ctx, w.table, []string{"vertex_id", "label"}, newLabelRows(labels))
	if err != nil {
		return fmt.Errorf("failed to copy labels into %s: %w", table, err)
	}
	if n != int64(len(labels)) {
		return fmt.Errorf("copied %d of %d labels into %s", n, len(labels), table)
	}
	return nil
}

// labelRows adapts an assignment to pgx.CopyFromSource. The row slice is
// reused between calls.
type labelRows struct {
	labels []graph.VertexID
	next   int
	row    []any
}

func newLabelRows(labels []graph.VertexID) *labelRows {
	return &labelRows{labels: labels, next: -1, row: make([]any, 2)}
}

func (r *labelRows) Next() bool {
	r.next++
	return r.next < len(r.labels)
}

func (r *labelRows) Values() ([]any, error) {
	r.row[0] = int64(r.next)
	r.row[1] = int64(r.labels[r.next])
	return r.row, nil
}

func (r *labelRows) Err() error {
	return nil
}
