package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Span is the half-open index range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

// Len returns the number of indices in the span.
func (s Span) Len() int {
	return s.Hi - s.Lo
}

// Chunks splits [0, n) into at most parts contiguous spans of at least
// minChunk indices each (the last span may be shorter).
func Chunks(n, parts, minChunk int) []Span {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	if minChunk <= 0 {
		minChunk = 1
	}

	// Use int64 to prevent overflow in intermediate calculation
	chunkSize := int((int64(n) + int64(parts) - 1) / int64(parts))
	if chunkSize < minChunk {
		chunkSize = minChunk
	}

	spans := make([]Span, 0, (n+chunkSize-1)/chunkSize)
	for lo := 0; lo < n; lo += chunkSize {
		hi := lo + chunkSize
		if hi > n || hi < lo {
			hi = n
		}
		spans = append(spans, Span{Lo: lo, Hi: hi})
	}
	return spans
}

// Range runs fn over [0, n) split into spans, with at most workers spans in
// flight at once, and returns the first error. A non-positive worker count
// uses runtime.GOMAXPROCS(0).
func Range(n, workers int, fn func(lo, hi int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// Oversplit so uneven spans do not leave workers idle
	return ForEachSpan(Chunks(n, workers*4, 1), workers, func(_ int, s Span) error {
		return fn(s.Lo, s.Hi)
	})
}

// ForEachSpan runs fn once per span with at most workers calls in flight and
// returns the first error. The span index lets callers write per-span results
// into a preallocated slice and reduce them in a fixed order.
func ForEachSpan(spans []Span, workers int, fn func(i int, s Span) error) error {
	if len(spans) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, s := range spans {
		g.Go(func() error {
			return fn(i, s)
		})
	}
	return g.Wait()
}
