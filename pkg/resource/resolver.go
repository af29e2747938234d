package resource

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-lpa/pkg/logging"
)

// Resolver opens resources by URI.
type Resolver struct {
	S3     ObjectClient // required for s3:// URIs
	Logger logging.Logger
}

// Open returns a reader for uri. Compressed resources are decompressed
// transparently.
func (r *Resolver) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	var rc io.ReadCloser
	switch loc.Scheme {
	case SchemeS3:
		if r.S3 == nil {
			return nil, fmt.Errorf("open %s: %w", loc, ErrMissingS3Client)
		}
		rc, err = openS3(ctx, r.S3, loc)
	default:
		rc, err = openLocal(loc.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}

	r.logger().Debug("resource opened",
		logging.Resource(loc.String()),
		logging.Bool("compressed", loc.Compressed),
	)
	if loc.Compressed {
		return &snappyReader{Reader: snappy.NewReader(rc), under: rc}, nil
	}
	return rc, nil
}

// Create returns a writer for uri. For s3:// URIs the object is uploaded when
// the writer is closed; callers must check the error from Close.
func (r *Resolver) Create(ctx context.Context, uri string) (io.WriteCloser, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	var wc io.WriteCloser
	switch loc.Scheme {
	case SchemeS3:
		if r.S3 == nil {
			return nil, fmt.Errorf("create %s: %w", loc, ErrMissingS3Client)
		}
		wc, err = createS3(ctx, r.S3, loc)
	default:
		wc, err = createLocal(loc.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", loc, err)
	}

	r.logger().Debug("resource created",
		logging.Resource(loc.String()),
		logging.Bool("compressed", loc.Compressed),
	)
	if loc.Compressed {
		return &snappyWriter{Writer: snappy.NewBufferedWriter(wc), under: wc}, nil
	}
	return wc, nil
}

func (r *Resolver) logger() logging.Logger {
	return logging.OrNop(r.Logger)
}

type snappyReader struct {
	*snappy.Reader
	under io.Closer
}

func (s *snappyReader) Close() error {
	return s.under.Close()
}

type snappyWriter struct {
	*snappy.Writer
	under io.WriteCloser
}

// Close flushes the snappy framing before closing the underlying writer.
func (s *snappyWriter) Close() error {
	if err := s.Writer.Close(); err != nil {
		s.under.Close()
		return err
	}
	return s.under.Close()
}
