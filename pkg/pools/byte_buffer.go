package pools

import "sync"

// maxPooledBuffer caps the capacity of byte buffers kept for reuse.
const maxPooledBuffer = 1 << 16

// BufferPool pools byte buffers used to format output records in bulk.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a pool handing out buffers with at least size bytes
// of capacity.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 || size > maxPooledBuffer {
		size = maxPooledBuffer
	}
	p := &BufferPool{size: size}
	p.pool.New = func() any {
		b := make([]byte, 0, size)
		return &b
	}
	return p
}

// Get returns an empty buffer.
func (p *BufferPool) Get() []byte {
	bp, ok := p.pool.Get().(*[]byte)
	if !ok {
		return make([]byte, 0, p.size)
	}
	return (*bp)[:0]
}

// Put returns a buffer to the pool. Buffers that grew past the pool limit
// are dropped.
func (p *BufferPool) Put(b []byte) {
	if cap(b) < p.size || cap(b) > maxPooledBuffer {
		return
	}
	b = b[:0]
	p.pool.Put(&b)
}
