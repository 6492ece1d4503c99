package dynamo

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs parallel-for regions over a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool with n workers. n <= 0 selects runtime.NumCPU().
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Pool{workers: n}
}

func (p *Pool) Workers() int { return p.workers }

// For calls fn(i) for every i in [0, n) and blocks until all calls return.
// Indices are split into contiguous chunks, one per worker. A failing or
// panicking task does not stop the other chunks; For still joins on all of
// them and then returns the first error observed.
func (p *Pool) For(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}

	workers := p.workers
	if n < workers {
		workers = n
	}
	if workers <= 1 {
		return runChunk(0, n, fn)
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		s, e := start, end
		g.Go(func() error {
			return runChunk(s, e, fn)
		})
	}

	return g.Wait()
}

// runChunk keeps going after a task error so that every vertex set in the
// chunk is either fully updated or untouched.
func runChunk(start, end int, fn func(i int) error) error {
	var first error
	for i := start; i < end; i++ {
		if err := safeCall(i, fn); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func safeCall(i int, fn func(i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: task %d: %v", ErrWorkerFault, i, r)
		}
	}()
	return fn(i)
}
