package glthread

import (
	"sync"

	"github.com/gogpu/glthread/marshal"
)

// CacheSlot names a "last call" fast-path cache. A cache remembers the
// position of a record in the current batch so the next call of the same
// kind can be merged into it. Every flush and finish invalidates all slots.
type CacheSlot int

const (
	// CacheCallList remembers the last CallList record.
	CacheCallList CacheSlot = iota

	// CacheBindBuffer remembers the last BindBuffer record.
	CacheBindBuffer

	numCacheSlots
)

// Remember caches the most recently allocated record under slot.
func (e *Engine) Remember(slot CacheSlot) {
	e.cache[slot] = e.lastAlloc
}

// Last returns the record cached under slot if it is still the last
// record of the current batch, or nil.
func (e *Engine) Last(slot CacheSlot) []uint64 {
	off := e.cache[slot]
	if !e.enabled.Load() || off < 0 || off != e.lastAlloc {
		return nil
	}
	buf := e.ring.current().buffer
	h := marshal.ReadHeader(buf[off:])
	return buf[off : off+h.Slots : off+h.Slots]
}

// Extend grows the record cached under slot by extra slots and returns the
// grown record with its header updated. It returns nil when the record is
// no longer the tail of the batch or does not have room to grow; the
// caller then allocates a new record.
func (e *Engine) Extend(slot CacheSlot, extra int) []uint64 {
	cmd := e.Last(slot)
	if cmd == nil {
		return nil
	}
	h := marshal.ReadHeader(cmd)
	size := h.Slots + extra
	if size > marshal.MaxCmdSlots || e.used+extra > e.opts.batchSlots {
		return nil
	}
	off := e.cache[slot]
	e.used += extra
	cmd = e.ring.current().buffer[off : off+size : off+size]
	marshal.PutHeader(cmd, h.ID, size)
	return cmd
}

func (e *Engine) resetCaches() {
	e.lastAlloc = -1
	for i := range e.cache {
		e.cache[i] = -1
	}
}

type markKind int

const (
	markProgram markKind = iota
	markDList
	numMarks
)

// batchMarks remembers which batch last changed program or display list
// state. The producer sets a mark; the executor clears it when the marked
// batch finishes.
type batchMarks struct {
	mu  sync.Mutex
	idx [numMarks]int
}

func (m *batchMarks) reset() {
	m.mu.Lock()
	for i := range m.idx {
		m.idx[i] = -1
	}
	m.mu.Unlock()
}

func (m *batchMarks) set(k markKind, batch int) {
	m.mu.Lock()
	m.idx[k] = batch
	m.mu.Unlock()
}

func (m *batchMarks) get(k markKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx[k]
}

// invalidate clears every mark that points at batch.
func (m *batchMarks) invalidate(batch int) {
	m.mu.Lock()
	for i := range m.idx {
		if m.idx[i] == batch {
			m.idx[i] = -1
		}
	}
	m.mu.Unlock()
}

// MarkProgramChange records that the current batch links a program.
func (e *Engine) MarkProgramChange() {
	if e.enabled.Load() {
		e.marks.set(markProgram, e.ring.next)
	}
}

// MarkDListChange records that the current batch changes a display list.
func (e *Engine) MarkDListChange() {
	if e.enabled.Load() {
		e.marks.set(markDList, e.ring.next)
	}
}

// WaitForProgramChange blocks until the batch that last linked a program
// has executed, flushing it first if it is still being filled.
func (e *Engine) WaitForProgramChange() { e.waitForMark(markProgram) }

// WaitForDListChange blocks until the batch that last changed a display
// list has executed, flushing it first if it is still being filled.
func (e *Engine) WaitForDListChange() { e.waitForMark(markDList) }

func (e *Engine) waitForMark(k markKind) {
	if !e.enabled.Load() || e.queue.IsSelf(0) {
		return
	}
	idx := e.marks.get(k)
	if idx < 0 {
		return
	}
	if idx == e.ring.next {
		e.Flush()
		if !e.enabled.Load() {
			return
		}
	}
	e.ring.batches[idx].fence.Wait()
}
