// Package queue implements the job queue the offload engine submits
// batches to.
//
// A Queue owns a fixed number of worker goroutines, each locked to its own
// OS thread for its whole lifetime. Jobs are (data, fence, execute)
// triples; the fence is reset when the job is added and signaled once the
// execute function has returned. With one worker, jobs run strictly in the
// order they were added.
package queue

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gogpu/glthread/cpu"
)

// ExecuteFunc runs a job on worker thread threadIndex.
type ExecuteFunc func(data any, threadIndex int)

// ErrInvalidSize is returned by New for a non-positive backlog or thread count.
var ErrInvalidSize = errors.New("queue: backlog and thread count must be positive")

type job struct {
	data  any
	fence *Fence
	exec  ExecuteFunc
}

// Queue is a bounded job queue drained by dedicated worker threads.
//
// Thread safety: Add, IsSelf and Destroy may be called from any goroutine.
type Queue struct {
	// name identifies the queue in logs and errors.
	name string

	// jobs holds queued work. Its capacity is the backlog; Add blocks
	// while it is full.
	jobs chan job

	// done signals workers to stop once the backlog is drained.
	done chan struct{}

	// wg waits for all workers to exit.
	wg sync.WaitGroup

	// running indicates whether the queue accepts jobs.
	running atomic.Bool

	// tids holds the OS thread id of each worker once it has started.
	tids []atomic.Int64

	// addMu serializes Add against Destroy so no job is sent after the
	// workers stopped draining.
	addMu sync.RWMutex
}

// New starts a queue with the given backlog capacity and worker count.
// It returns once every worker has recorded its thread id.
func New(name string, backlog, threads int) (*Queue, error) {
	if backlog <= 0 || threads <= 0 {
		return nil, fmt.Errorf("%w: %s backlog=%d threads=%d", ErrInvalidSize, name, backlog, threads)
	}

	q := &Queue{
		name: name,
		jobs: make(chan job, backlog),
		done: make(chan struct{}),
		tids: make([]atomic.Int64, threads),
	}
	q.running.Store(true)

	var started sync.WaitGroup
	started.Add(threads)
	q.wg.Add(threads)
	for i := range threads {
		go q.worker(i, &started)
	}
	started.Wait()

	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Threads returns the number of worker threads.
func (q *Queue) Threads() int { return len(q.tids) }

// worker is the main loop for each worker thread.
func (q *Queue) worker(index int, started *sync.WaitGroup) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer q.wg.Done()

	q.tids[index].Store(int64(cpu.ThreadID()))
	started.Done()

	for {
		select {
		case j := <-q.jobs:
			q.run(j, index)
		case <-q.done:
			// Drain remaining work before exiting
			for {
				select {
				case j := <-q.jobs:
					q.run(j, index)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) run(j job, index int) {
	defer j.fence.Signal()
	j.exec(j.data, index)
}

// Add queues a job. The fence is reset before the job is queued and
// signaled after exec returns. Add blocks while the backlog is full.
//
// If the queue has been destroyed the job is dropped and its fence
// signaled so that waiters never hang.
func (q *Queue) Add(data any, fence *Fence, exec ExecuteFunc) {
	fence.Reset()

	q.addMu.RLock()
	defer q.addMu.RUnlock()
	if !q.running.Load() {
		fence.Signal()
		return
	}
	q.jobs <- job{data: data, fence: fence, exec: exec}
}

// IsSelf reports whether the caller is running on worker thread index.
func (q *Queue) IsSelf(index int) bool {
	if index < 0 || index >= len(q.tids) {
		return false
	}
	tid := q.tids[index].Load()
	return tid != 0 && tid == int64(cpu.ThreadID())
}

// ThreadID returns the OS thread id of worker index, or 0 once it exited.
func (q *Queue) ThreadID(index int) int {
	if index < 0 || index >= len(q.tids) {
		return 0
	}
	return int(q.tids[index].Load())
}

// SetAffinity restricts worker thread index to the CPUs in mask.
func (q *Queue) SetAffinity(index int, mask cpu.Mask) error {
	tid := q.ThreadID(index)
	if tid == 0 {
		return fmt.Errorf("queue: %s has no worker %d", q.name, index)
	}
	return cpu.SetThreadAffinity(tid, mask)
}

// Pending returns the number of queued jobs not yet picked up by a worker.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Destroy stops accepting jobs, runs everything already queued and waits
// for all worker threads to exit. Destroy is safe to call multiple times.
// It must not be called from a worker thread.
func (q *Queue) Destroy() {
	q.addMu.Lock()
	if !q.running.CompareAndSwap(true, false) {
		q.addMu.Unlock()
		return
	}
	close(q.done)
	q.addMu.Unlock()

	q.wg.Wait()
	for i := range q.tids {
		q.tids[i].Store(0)
	}
}
