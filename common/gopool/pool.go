// Package gopool runs independent method decompilations on a bounded set of
// goroutines.
package gopool

import (
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const minNumberPerTask = 5

// Pool is a bounded goroutine pool.
type Pool struct {
	pool *ants.Pool
}

// New creates a pool running at most size tasks at once. A size of zero or
// less selects one worker per CPU.
func New(size int) (*Pool, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p, err := ants.NewPool(size, ants.WithExpiryDuration(10*time.Second))
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

// Submit runs task on the pool, blocking while all workers are busy.
func (p *Pool) Submit(task func()) error { return p.pool.Submit(task) }

// Cap returns the capacity of the pool.
func (p *Pool) Cap() int { return p.pool.Cap() }

// Release closes the pool. Submitted tasks still run to completion.
func (p *Pool) Release() { p.pool.Release() }

// Run submits every task and waits for all of them. Tasks that could not be
// submitted are run on the calling goroutine.
func (p *Pool) Run(tasks []func()) {
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, task := range tasks {
		task := task
		run := func() {
			defer wg.Done()
			task()
		}
		if err := p.Submit(run); err != nil {
			run()
		}
	}
	wg.Wait()
}

// Threads returns how many workers are worth starting for the given number
// of tasks.
func Threads(tasks int) int {
	threads := tasks / minNumberPerTask
	if threads > runtime.NumCPU() {
		threads = runtime.NumCPU()
	} else if threads == 0 {
		threads = 1
	}
	return threads
}
