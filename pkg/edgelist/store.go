package edgelist

import (
	"io"
	"strconv"

	"github.com/dd0wney/cluso-lpa/pkg/graph"
	"github.com/dd0wney/cluso-lpa/pkg/pools"
)

// storeBufferSize is the batch of formatted records written at once.
const storeBufferSize = 32 << 10

var storeBuffers = pools.NewBufferPool(storeBufferSize)

// Store writes one "vertex<delim>label" record per vertex, in vertex order,
// without a header. The fields are plain integers, so no quoting is needed.
func Store(w io.Writer, labels []graph.VertexID, d Delimiter) error {
	d = d.orDefault()
	buf := storeBuffers.Get()
	defer func() { storeBuffers.Put(buf) }()

	for v, label := range labels {
		buf = strconv.AppendUint(buf, uint64(v), 10)
		buf = append(buf, byte(d))
		buf = strconv.AppendUint(buf, label, 10)
		buf = append(buf, '\n')

		if len(buf) >= storeBufferSize-64 {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}

	if len(buf) > 0 {
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
