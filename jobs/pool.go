// Package jobs provides the persistent worker pool used by the physics step.
//
// Workers are long-lived goroutines. Each carries a small local store so that
// callers can keep per-worker state (scratch buffers, debug line slots) without
// locking: a worker's store is only ever touched from that worker's goroutine.
package jobs

import (
	"runtime"
	"sync"
)

// Worker is one goroutine of a Pool.
type Worker struct {
	id     int
	locals map[any]any
}

// NewWorker creates a standalone worker for callers that run their own goroutines.
// The worker must only be used from a single goroutine at a time.
func NewWorker(id int) *Worker {
	return &Worker{id: id, locals: make(map[any]any)}
}

// ID returns the worker index within its pool.
func (w *Worker) ID() int {
	return w.id
}

// Local returns the value stored under key, creating it with init on first use.
func (w *Worker) Local(key any, init func() any) any {
	if v, ok := w.locals[key]; ok {
		return v
	}
	v := init()
	w.locals[key] = v
	return v
}

// Forget drops the value stored under key.
func (w *Worker) Forget(key any) {
	delete(w.locals, key)
}

// Func processes items [start, end) on worker w.
type Func func(w *Worker, start, end int)

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	fn         Func
}

// Pool is a fixed set of worker goroutines.
type Pool struct {
	workers []*Worker

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// DefaultWorkers returns hardware threads - 1, minimum 1.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// NewPool creates and starts a pool. numWorkers <= 0 selects DefaultWorkers.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers()
	}
	p := &Pool{workers: make([]*Worker, numWorkers)}
	for i := range p.workers {
		p.workers[i] = NewWorker(i)
	}
	p.start()
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// start launches persistent worker goroutines.
func (p *Pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, len(p.workers))
	p.doneChan = make(chan struct{}, len(p.workers))
	p.stopChan = make(chan struct{})
	p.running = true

	for _, w := range p.workers {
		p.wg.Add(1)
		go p.worker(w)
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker(w *Worker) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(w, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// Run splits [0, n) into one chunk per worker and blocks until every chunk
// has been processed. Run must not be called concurrently with itself.
func (p *Pool) Run(n int, fn Func) {
	if n <= 0 {
		return
	}
	if !p.running {
		panic("jobs: Run on a closed pool")
	}

	numWorkers := len(p.workers)
	chunkSize := (n + numWorkers - 1) / numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// Close signals all workers to exit and waits for them. Close is idempotent.
func (p *Pool) Close() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}
