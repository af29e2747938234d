package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
)

func TestSummarize(t *testing.T) {
	// Sizes: label 0 -> 3, label 3 -> 4, label 7 -> 1, label 8 -> 2
	labels := []graph.VertexID{0, 0, 0, 3, 3, 3, 3, 7, 8, 8}

	s := Summarize(labels, 2)

	assert.Equal(t, 10, s.Vertices)
	assert.Equal(t, 4, s.Communities)
	assert.Equal(t, 1, s.Singletons)
	assert.Equal(t, []CommunitySize{{Label: 3, Size: 4}, {Label: 0, Size: 3}}, s.Largest)
	assert.Equal(t, []SizeBucket{
		{Min: 1, Max: 1, Communities: 1, Vertices: 1},
		{Min: 2, Max: 3, Communities: 2, Vertices: 5},
		{Min: 4, Max: 7, Communities: 1, Vertices: 4},
	}, s.Histogram)
}

func TestSummarizeTiesPreferLowerLabel(t *testing.T) {
	labels := []graph.VertexID{5, 1, 1, 5, 4, 4}

	s := Summarize(labels, 2)
	assert.Equal(t, []CommunitySize{{Label: 1, Size: 2}, {Label: 4, Size: 2}}, s.Largest)

	s = Summarize(labels, 10)
	assert.Len(t, s.Largest, 3)
	assert.Equal(t, graph.VertexID(5), s.Largest[2].Label)
}

func TestSummarizeWithoutTopK(t *testing.T) {
	s := Summarize([]graph.VertexID{0, 1, 2}, 0)
	assert.Empty(t, s.Largest)
	assert.Equal(t, 3, s.Singletons)
	assert.Equal(t, 3, s.Communities)
}

func TestBucketFloor(t *testing.T) {
	for size, want := range map[int]int{1: 1, 2: 2, 3: 2, 4: 4, 1000: 512, 1024: 1024} {
		assert.Equal(t, want, bucketFloor(size), "size %d", size)
	}
}

func TestSummaryWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Summarize([]graph.VertexID{0, 0, 2}, 1).Write(&buf)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "vertices: 3, communities: 2, singletons: 1")
	assert.Contains(t, buf.String(), "label 0: 2 vertices")
	assert.Contains(t, buf.String(), "size distribution:")
}

var errShortWrite = errors.New("short write")

// cappedWriter fails every write once limit bytes have been accepted.
type cappedWriter struct {
	limit int
	n     int
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		return 0, errShortWrite
	}
	w.n += len(p)
	return len(p), nil
}

func TestSummaryWriteError(t *testing.T) {
	s := Summarize([]graph.VertexID{0, 0, 2}, 1)

	var full bytes.Buffer
	assert.NoError(t, s.Write(&full))

	// Every prefix of the output must surface the failure.
	for limit := 0; limit < full.Len(); limit++ {
		err := s.Write(&cappedWriter{limit: limit})
		assert.ErrorIs(t, err, errShortWrite, "limit %d", limit)
	}
}
