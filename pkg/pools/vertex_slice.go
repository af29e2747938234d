package pools

import "sync"

// Capacity classes for pooled vertex slices. Anything larger is allocated
// directly and dropped on Put.
var vertexSliceClasses = [...]int{16, 64, 256, 1024}

// VertexSlicePool pools []uint64 buffers by capacity class.
type VertexSlicePool struct {
	classes [len(vertexSliceClasses)]sync.Pool
}

// NewVertexSlicePool creates a new vertex slice pool.
func NewVertexSlicePool() *VertexSlicePool {
	p := &VertexSlicePool{}
	for i, c := range vertexSliceClasses {
		p.classes[i].New = func() any {
			s := make([]uint64, 0, c)
			return &s
		}
	}
	return p
}

func classFor(size int) int {
	for i, c := range vertexSliceClasses {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns an empty slice with at least the requested capacity.
func (p *VertexSlicePool) Get(size int) []uint64 {
	i := classFor(size)
	if i < 0 {
		return make([]uint64, 0, size)
	}
	sp, ok := p.classes[i].Get().(*[]uint64)
	if !ok || cap(*sp) < size {
		return make([]uint64, 0, vertexSliceClasses[i])
	}
	return (*sp)[:0]
}

// Put returns a slice to the pool. The caller must not use s afterwards.
func (p *VertexSlicePool) Put(s []uint64) {
	c := cap(s)
	// Only exact class capacities go back, so Get never hands out a
	// slice smaller than its class promises.
	i := classFor(c)
	if i < 0 || vertexSliceClasses[i] != c {
		return
	}
	s = s[:0]
	p.classes[i].Put(&s)
}

var defaultVertexSlicePool = NewVertexSlicePool()

// GetVertices returns a vertex slice from the default pool.
func GetVertices(size int) []uint64 {
	return defaultVertexSlicePool.Get(size)
}

// PutVertices returns a vertex slice to the default pool.
func PutVertices(s []uint64) {
	defaultVertexSlicePool.Put(s)
}
