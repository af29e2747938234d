package pools

import "sync"

// maxPooledCountMap caps the size of tally maps kept for reuse. A hub vertex
// can see thousands of distinct labels; keeping its map would pin that memory.
const maxPooledCountMap = 4096

// CountMapPool pools map[uint64]int tallies keyed by label.
type CountMapPool struct {
	pool sync.Pool
}

// NewCountMapPool creates a new tally map pool.
func NewCountMapPool() *CountMapPool {
	return &CountMapPool{
		pool: sync.Pool{
			New: func() any {
				return make(map[uint64]int, 16)
			},
		},
	}
}

// Get returns an empty map from the pool.
func (p *CountMapPool) Get() map[uint64]int {
	m, ok := p.pool.Get().(map[uint64]int)
	if !ok {
		return make(map[uint64]int, 16)
	}
	clear(m)
	return m
}

// Put returns a map to the pool.
func (p *CountMapPool) Put(m map[uint64]int) {
	if m == nil || len(m) > maxPooledCountMap {
		return
	}
	p.pool.Put(m)
}

var defaultCountMapPool = NewCountMapPool()

// GetCountMap returns a tally map from the default pool.
func GetCountMap() map[uint64]int {
	return defaultCountMapPool.Get()
}

// PutCountMap returns a tally map to the default pool.
func PutCountMap(m map[uint64]int) {
	defaultCountMapPool.Put(m)
}
