// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package workerpool implements the fixed-size worker pool of spec 5:
// created once, destroyed at teardown, task granularity of one material
// point (or a contiguous block), work-stealing scheduling seeded by a
// per-item cost estimate carried over from the previous step. It mirrors
// the cost-tracking pair (_Costs, _Costs_new) in the original engine's
// Threads/ThreadMonitor.h, reimplemented without a process-wide monitor
// singleton (spec 9: "inject a thread-pool handle into the Model and
// propagators at construction; no process-wide singletons").
package workerpool

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cpmech/gosl/chk"
)

// Pool is a fixed-size worker pool injected into the Model and
// propagators at construction (spec 9).
type Pool struct {
	Workers int

	mu        sync.Mutex
	cancelled bool
}

// New allocates a pool with the given worker count (clamped to >= 1).
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{Workers: workers}
}

// Cancel marks the pool cancelled; in-flight Run calls observe it at
// their next join point and unwind remaining tasks (spec 5: "Cancellation
// occurs only at teardown; a cancellation flag checked at join points
// unwinds remaining tasks").
func (p *Pool) Cancel() {
	p.mu.Lock()
	p.cancelled = true
	p.mu.Unlock()
}

func (p *Pool) isCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// Run executes task(i) for every i in [0,n), work-stolen off a shared
// atomic index, with execution order seeded by descending cost so the
// most expensive items are dispatched first (reduces tail latency the
// same way an initial greedy assignment does). costs may be nil, in
// which case items run in index order. task must be safe to call
// concurrently from Workers goroutines; task is expected to write only to
// per-index-safe state (e.g. a caller-provided per-worker accumulator
// indexed by workerID).
//
// Run returns the first error reported by any task (spec 7: "Propagators
// surface the first recoverable error from their batch; all other
// per-step errors are aggregated and reported") together with the full
// list of errors.
func (p *Pool) Run(n int, costs []float64, task func(workerID, i int) error) (firstErr error, allErrs []error) {
	if n == 0 {
		return nil, nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if costs != nil {
		sort.Slice(order, func(a, b int) bool { return costs[order[a]] > costs[order[b]] })
	}

	var next int64
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	workers := p.Workers
	if workers > n {
		workers = n
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for {
				if p.isCancelled() {
					return
				}
				idx := atomic.AddInt64(&next, 1) - 1
				if idx >= int64(n) {
					return
				}
				i := order[idx]
				if err := task(workerID, i); err != nil {
					errCh <- chk.Err("workerpool: task %d failed: %v", i, err)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		allErrs = append(allErrs, err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return
}
