package server

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// releaseTimeout bounds how long Close waits for running batches.
const releaseTimeout = 30 * time.Second

type batch[T any] struct {
	items []T
	done  *sync.WaitGroup
}

// WorkerPool runs a fixed number of goroutines handling batches of items.
// Submit blocks while every worker is busy.
type WorkerPool[T any] struct {
	name   string
	handle func(T)
	pool   *ants.PoolWithFunc
	once   sync.Once
}

// NewWorkerPool starts size workers calling handle on every submitted item.
func NewWorkerPool[T any](name string, size int, handle func(T)) (*WorkerPool[T], error) {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool[T]{name: name, handle: handle}
	pool, err := ants.NewPoolWithFunc(size, func(arg interface{}) {
		p.process(arg.(batch[T]))
	},
		ants.WithPreAlloc(true),
		ants.WithDisablePurge(true),
		ants.WithPanicHandler(func(r interface{}) {
			log.Errorf("Panic in %s worker: %v", name, r)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s pool: %w", name, err)
	}
	p.pool = pool
	return p, nil
}

func (p *WorkerPool[T]) process(b batch[T]) {
	if b.done != nil {
		defer b.done.Done()
	}
	for _, item := range b.items {
		p.safeHandle(item)
	}
}

// safeHandle keeps one failing item from dropping the rest of its batch.
func (p *WorkerPool[T]) safeHandle(item T) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic in %s worker: %v\n%s", p.name, r, debug.Stack())
		}
	}()
	p.handle(item)
}

// Submit hands items as one batch to a single worker. When done is not
// nil it is marked done once the batch has been handled, or at once if
// the pool is closed.
func (p *WorkerPool[T]) Submit(items []T, done *sync.WaitGroup) error {
	if done != nil {
		done.Add(1)
	}
	if err := p.pool.Invoke(batch[T]{items: items, done: done}); err != nil {
		if done != nil {
			done.Done()
		}
		return fmt.Errorf("%s pool: %w", p.name, err)
	}
	return nil
}

// Close stops accepting work and waits for running batches to finish.
func (p *WorkerPool[T]) Close() {
	p.once.Do(func() {
		if err := p.pool.ReleaseTimeout(releaseTimeout); err != nil {
			log.Warnf("Releasing %s pool: %v", p.name, err)
		}
	})
}
