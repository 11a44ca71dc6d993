package glthread

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gogpu/glthread/internal/queue"
	"github.com/gogpu/glthread/marshal"
)

// Engine moves recorded commands from the producer goroutine to a worker
// thread.
//
// Lifecycle: New() → Init() → Allocate()/Flush()/Finish() → Destroy().
// An engine whose Init returned false, or that was destroyed, is disabled:
// Allocate returns nil and Flush/Finish are no-ops, so callers execute
// commands directly.
//
// Thread safety: one producer goroutine drives the engine. Stats, Enabled
// and ID may be called from anywhere.
type Engine struct {
	id   uuid.UUID
	name string

	backend    Backend
	dispatcher Dispatcher
	opts       options

	enabled atomic.Bool
	queue   *queue.Queue
	ring    ring

	// used and count describe the current batch. Only the producer
	// touches them; the batch's own fields are set on submission.
	used  int
	count int

	// lastAlloc is the slot offset of the newest record in the current
	// batch, or -1.
	lastAlloc int
	cache     [numCacheSlots]int
	marks     batchMarks

	pinCounter uint32
	seq        atomic.Uint64
	stats      counters

	onDestroy []func()
}

// New creates a disabled engine in front of backend, executing commands
// through dispatcher. Call Init to start offloading.
//
// New panics if backend or dispatcher is nil.
func New(backend Backend, dispatcher Dispatcher, opts ...Option) *Engine {
	if backend == nil {
		panic("glthread: New backend is nil")
	}
	if dispatcher == nil {
		panic("glthread: New dispatcher is nil")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.New()
	e := &Engine{
		id:         id,
		name:       id.String(),
		backend:    backend,
		dispatcher: dispatcher,
		opts:       o,
	}
	e.resetCaches()
	e.marks.reset()
	return e
}

// ID returns the unique id of the engine, used in logs and traces.
func (e *Engine) ID() uuid.UUID { return e.id }

// Enabled reports whether commands are currently offloaded.
func (e *Engine) Enabled() bool { return e.enabled.Load() }

// Stats returns a snapshot of the engine counters. It never blocks.
func (e *Engine) Stats() Stats { return e.stats.snapshot() }

// BatchSize returns the capacity of one batch in bytes.
func (e *Engine) BatchSize() int { return e.opts.batchSlots * marshal.SlotSize }

// BatchCount returns the number of batches in the ring.
func (e *Engine) BatchCount() int { return e.opts.batchCount }

// Used returns the number of bytes recorded in the current batch.
func (e *Engine) Used() int { return e.used * marshal.SlotSize }

// Pending returns the number of records in the current batch.
func (e *Engine) Pending() int { return e.count }

// OnDestroy registers fn to run when the engine is destroyed, after all
// work drained and before Enabled turns false. Callers use it to release
// client-side caches and switch back to direct execution.
func (e *Engine) OnDestroy(fn func()) {
	e.onDestroy = append(e.onDestroy, fn)
}

// Init starts offloading. It returns false, leaving the engine disabled,
// when the backend lacks a required capability or the worker cannot be
// started; the caller then executes commands directly.
//
// On success Init blocks until the worker thread has run its one-time
// initialization.
func (e *Engine) Init() bool {
	if e.enabled.Load() {
		return true
	}

	for _, c := range []Capability{CapMapUnsynchronizedThreadSafe, CapAllowMappedBuffersDuringExecution} {
		if !e.backend.Supports(c) {
			Logger().Info("glthread: backend does not support offloading",
				"engine", e.name, "capability", c.String())
			return false
		}
	}

	q, err := queue.New("gl", e.opts.batchCount-2, 1)
	if err != nil {
		Logger().Warn("glthread: job queue init failed", "engine", e.name, "err", err)
		return false
	}

	e.queue = q
	e.ring = newRing(e, e.opts.batchCount, e.opts.batchSlots)
	e.used, e.count = 0, 0
	e.resetCaches()
	e.marks.reset()
	e.pinCounter = 0
	e.enabled.Store(true)

	// Execute the thread initialization on the worker and wait for it.
	var fence queue.Fence
	q.Add(e, &fence, initWorkerThread)
	fence.Wait()

	Logger().Info("glthread: enabled", "engine", e.name,
		"batches", e.opts.batchCount, "batch_size", e.BatchSize())
	return true
}

func initWorkerThread(data any, _ int) {
	e := data.(*Engine)
	if tb, ok := e.backend.(ThreadBinder); ok {
		tb.BindThread()
	}
}

// Allocate reserves a record of size bytes (header included) in the
// current batch, writes its header and returns it. If the record does not
// fit in the remaining space the current batch is flushed first, so a
// record never straddles two batches.
//
// Allocate returns nil when the engine is disabled or the record is larger
// than a whole batch; the caller must then Finish and execute the command
// directly.
func (e *Engine) Allocate(id marshal.CmdID, size int) []uint64 {
	if !e.enabled.Load() {
		return nil
	}
	slots := marshal.Slots(max(size, marshal.HeaderSize))
	if slots > e.opts.batchSlots || slots > marshal.MaxCmdSlots {
		return nil
	}
	if e.used+slots > e.opts.batchSlots {
		e.Flush()
		if !e.enabled.Load() {
			return nil
		}
	}

	off := e.used
	cmd := e.ring.current().buffer[off : off+slots : off+slots]
	marshal.PutHeader(cmd, id, slots)
	e.lastAlloc = off
	e.used += slots
	e.count++
	return cmd
}

// Flush submits the current batch to the worker and starts filling the
// next one. It is a no-op when the engine is disabled or the batch is
// empty, and never blocks under correct operation.
//
// A lost backend context destroys the engine instead.
func (e *Engine) Flush() {
	if !e.enabled.Load() {
		return
	}
	if e.backend.ContextLost() {
		e.Destroy("context lost")
		return
	}
	if e.used == 0 {
		return // the batch is empty
	}

	e.pinThreads()

	next := e.ring.current()
	next.used, next.count = e.used, e.count

	if e.opts.synchronous {
		e.stats.direct.Add(uint64(e.count))
		e.used, e.count = 0, 0
		e.resetCaches()
		e.unmarshalBatch(next, true)
		return
	}

	e.stats.offloaded.Add(uint64(e.count))
	e.queue.Add(next, &next.fence, unmarshalBatchJob)
	e.ring.advance()
	e.used, e.count = 0, 0
	e.resetCaches()
}

// Finish waits until every command recorded so far has executed.
//
// Work already queued is waited for; the batch still being filled is
// executed directly on the calling thread. Called on the worker thread,
// Finish returns immediately.
func (e *Engine) Finish() {
	if !e.enabled.Load() {
		return
	}

	// Paths shared by the producer and the worker may end up here on the
	// worker; it must never wait for itself.
	if e.queue.IsSelf(0) {
		return
	}

	synced := false
	last := e.ring.lastSubmitted()
	if !last.fence.IsSignaled() {
		last.fence.Wait()
		synced = true
	}

	if e.used > 0 {
		next := e.ring.current()
		e.stats.direct.Add(uint64(e.count))
		next.used, next.count = e.used, e.count
		e.used, e.count = 0, 0
		e.resetCaches()

		e.unmarshalBatch(next, true)

		// Not a real sync since partial batches are never queued, but it
		// would be one if they were.
		synced = true
	}

	if synced {
		e.stats.syncs.Add(1)
	}
}

// FinishBefore is Finish for a call that needs results from the server
// side. fn names the call in debug logs.
func (e *Engine) FinishBefore(fn string) {
	if e.enabled.Load() {
		Logger().Debug("glthread: sync", "engine", e.name, "call", fn)
	}
	e.Finish()
}

// Destroy drains all work, stops the worker thread and disables the
// engine. reason is logged. Destroy is a no-op on a disabled engine and
// refuses to run on the worker thread, which cannot wait for itself.
func (e *Engine) Destroy(reason string) {
	if !e.enabled.Load() {
		return
	}
	if e.queue.IsSelf(0) {
		Logger().Warn("glthread: destroy called on the worker thread", "engine", e.name, "reason", reason)
		return
	}
	if reason != "" {
		Logger().Debug("glthread: destroy", "engine", e.name, "reason", reason)
	}

	e.Finish()
	e.queue.Destroy()

	e.ring = ring{}
	e.used, e.count = 0, 0
	e.resetCaches()
	e.marks.reset()

	for _, fn := range e.onDestroy {
		fn()
	}
	e.enabled.Store(false)

	Logger().Info("glthread: disabled", "engine", e.name, "stats", e.Stats().String())
}
