package glthread

import (
	"github.com/gogpu/glthread/cpu"
	"github.com/gogpu/glthread/trace"
)

// Capability is a backend feature the engine depends on.
type Capability uint8

const (
	// CapMapUnsynchronizedThreadSafe: buffers may be mapped without
	// synchronization from a thread that does not own the context.
	CapMapUnsynchronizedThreadSafe Capability = iota

	// CapAllowMappedBuffersDuringExecution: buffers may stay mapped while
	// commands referencing them execute.
	CapAllowMappedBuffersDuringExecution
)

var capabilityNames = [...]string{
	CapMapUnsynchronizedThreadSafe:       "MapUnsynchronizedThreadSafe",
	CapAllowMappedBuffersDuringExecution: "AllowMappedBuffersDuringExecution",
}

// String returns the capability name.
func (c Capability) String() string {
	if int(c) < len(capabilityNames) {
		return capabilityNames[c]
	}
	return "Unknown"
}

// Backend is the driver the recorded commands eventually reach.
type Backend interface {
	// Supports reports whether the backend provides c.
	Supports(c Capability) bool

	// ContextLost reports whether the context can no longer execute
	// commands. A lost context tears the engine down on the next flush.
	ContextLost() bool
}

// ThreadBinder is implemented by backends that must set up per-thread
// state before commands run on the worker thread. BindThread runs once,
// on the worker, while Init blocks.
type ThreadBinder interface {
	BindThread()
}

// L3Pinner is implemented by backends that can pin their own submission
// threads to an L3 cache domain. Backends without it never get pinned.
type L3Pinner interface {
	PinThreadsToL3(cache int)
}

// Dispatcher executes recorded commands. It is the decode half of the
// command set.
type Dispatcher interface {
	// Execute runs the record at the start of cmd and returns the number
	// of slots it consumed. cmd extends to the end of the used range.
	Execute(cmd []uint64) int

	// Lock acquires the shared state that commands touch: the named
	// object table first, then the texture state. The worker holds it for
	// a whole batch.
	Lock()

	// Unlock releases what Lock acquired.
	Unlock()
}

// Topology answers cache-domain queries for the affinity heuristic.
// cpu.System() is the default.
type Topology interface {
	NumL3Caches() int
	CurrentL3() (int, bool)
	L3Mask(cache int) cpu.Mask
}

// Tracer receives a record for every executed batch.
// *trace.Writer implements it.
type Tracer interface {
	TraceBatch(r trace.Record)
}
