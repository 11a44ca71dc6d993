package glthread

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/glthread/cpu"
	"github.com/gogpu/glthread/marshal"
	"github.com/gogpu/glthread/trace"
)

// fakeBackend is a Backend with switchable capabilities.
type fakeBackend struct {
	unsupported map[Capability]bool
	lost        atomic.Bool
	bound       atomic.Int32
	onBind      func()
}

func (b *fakeBackend) Supports(c Capability) bool { return !b.unsupported[c] }
func (b *fakeBackend) ContextLost() bool          { return b.lost.Load() }
func (b *fakeBackend) BindThread() {
	b.bound.Add(1)
	if b.onBind != nil {
		b.onBind()
	}
}

// pinningBackend also implements L3Pinner.
type pinningBackend struct {
	fakeBackend
	mu     sync.Mutex
	pinned []int
}

func (b *pinningBackend) PinThreadsToL3(cache int) {
	b.mu.Lock()
	b.pinned = append(b.pinned, cache)
	b.mu.Unlock()
}

func (b *pinningBackend) pins() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.pinned...)
}

// fakeDispatcher executes records of the form header + uint32 value and
// logs the values in execution order.
type fakeDispatcher struct {
	mu       sync.Mutex // the "shared state" lock
	logMu    sync.Mutex
	log      []uint32
	locked   atomic.Bool
	delay    time.Duration
	onValue  func(v uint32)
	lockHeld atomic.Int32
}

const cmdValue marshal.CmdID = 1

func (d *fakeDispatcher) Execute(cmd []uint64) int {
	if !d.locked.Load() {
		panic("Execute called without Lock")
	}
	h := marshal.ReadHeader(cmd)
	v := marshal.NewDecoder(cmd).Uint32()
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.logMu.Lock()
	d.log = append(d.log, v)
	d.logMu.Unlock()
	if d.onValue != nil {
		d.onValue(v)
	}
	return h.Slots
}

func (d *fakeDispatcher) Lock() {
	d.mu.Lock()
	d.locked.Store(true)
	d.lockHeld.Add(1)
}

func (d *fakeDispatcher) Unlock() {
	d.locked.Store(false)
	d.mu.Unlock()
}

func (d *fakeDispatcher) values() []uint32 {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	return append([]uint32(nil), d.log...)
}

// record allocates a value record of size bytes and writes v into it.
// It falls back to direct execution like a real command set would.
func record(e *Engine, d *fakeDispatcher, size int, v uint32) {
	cmd := e.Allocate(cmdValue, size)
	if cmd == nil {
		e.Finish()
		direct := make([]uint64, marshal.Slots(size))
		marshal.PutHeader(direct, cmdValue, len(direct))
		marshal.NewEncoder(direct).PutUint32(v)
		d.Lock()
		d.Execute(direct)
		d.Unlock()
		return
	}
	marshal.NewEncoder(cmd).PutUint32(v)
}

// fakeTopology reports two L3 domains and a fixed current domain.
type fakeTopology struct {
	current int
	known   bool
	queries atomic.Int32
}

func (t *fakeTopology) NumL3Caches() int { return 2 }
func (t *fakeTopology) CurrentL3() (int, bool) {
	t.queries.Add(1)
	return t.current, t.known
}
func (t *fakeTopology) L3Mask(int) cpu.Mask { return cpu.NewMask(0) }

// memTracer collects trace records.
type memTracer struct {
	mu      sync.Mutex
	records []trace.Record
}

func (m *memTracer) TraceBatch(r trace.Record) {
	m.mu.Lock()
	m.records = append(m.records, r)
	m.mu.Unlock()
}
