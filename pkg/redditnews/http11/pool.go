package http11

import (
	"sync"
	"sync/atomic"
)

// ChunkPool recycles the fixed-size buffers requests are received into.
type ChunkPool struct {
	size int
	pool sync.Pool

	gets   atomic.Uint64
	misses atomic.Uint64
}

// NewChunkPool creates a pool of size-byte chunks.
func NewChunkPool(size int) *ChunkPool {
	p := &ChunkPool{size: size}
	p.pool.New = func() any {
		p.misses.Add(1)
		b := make([]byte, size)
		return &b
	}
	return p
}

// Size returns the chunk size.
func (p *ChunkPool) Size() int {
	return p.size
}

// Get returns a chunk of Size bytes.
func (p *ChunkPool) Get() *[]byte {
	p.gets.Add(1)
	return p.pool.Get().(*[]byte)
}

// Put returns a chunk obtained from Get.
func (p *ChunkPool) Put(b *[]byte) {
	if b == nil || len(*b) != p.size {
		return
	}
	p.pool.Put(b)
}

// PoolStats is a snapshot of pool usage.
type PoolStats struct {
	Gets   uint64
	Misses uint64
}

// Stats returns the number of chunks handed out and how many had to be allocated.
func (p *ChunkPool) Stats() PoolStats {
	return PoolStats{Gets: p.gets.Load(), Misses: p.misses.Load()}
}
