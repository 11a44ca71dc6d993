package glthread

import "github.com/gogpu/glthread/internal/queue"

// batch is a fixed-capacity buffer of records plus its completion fence.
// Batches are allocated together with the ring and never freed alone.
type batch struct {
	// engine is the owner, needed by the worker callback.
	engine *Engine

	// index is the position of the batch in the ring.
	index int

	// buffer holds the records; its length is the capacity in slots.
	buffer []uint64

	// used and count are the slots and records handed to the worker.
	// Both are written by the producer before submission and reset by
	// the executor afterwards.
	used  int
	count int

	// fence is signaled while the batch is not queued.
	fence queue.Fence
}

// ring is the circular list of batches.
//
// next is being filled by the producer; last is the most recently
// submitted one. The queue backlog of len(batches)-2 keeps at most
// len(batches)-1 batches in flight, so batches[next] has always finished
// executing by the time it is selected.
type ring struct {
	batches []batch
	next    int
	last    int
}

func newRing(e *Engine, count, slots int) ring {
	r := ring{batches: make([]batch, count)}
	for i := range r.batches {
		r.batches[i] = batch{
			engine: e,
			index:  i,
			buffer: make([]uint64, slots),
		}
	}
	return r
}

// current returns the batch being filled.
func (r *ring) current() *batch { return &r.batches[r.next] }

// lastSubmitted returns the newest batch the worker may still be running.
func (r *ring) lastSubmitted() *batch { return &r.batches[r.last] }

// advance makes the current batch the last submitted one and selects the
// following batch for filling.
func (r *ring) advance() {
	r.last = r.next
	r.next = (r.next + 1) % len(r.batches)
}
