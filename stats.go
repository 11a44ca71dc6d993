package glthread

import (
	"fmt"
	"sync/atomic"
)

// Stats is a snapshot of engine counters.
type Stats struct {
	// Batches is the number of batches executed, on the worker or directly.
	Batches uint64

	// OffloadedItems is the number of records submitted to the worker.
	OffloadedItems uint64

	// DirectItems is the number of records a Finish executed on the
	// calling thread.
	DirectItems uint64

	// Syncs is the number of Finish calls that had to wait or execute.
	Syncs uint64
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("batches=%d offloaded=%d direct=%d syncs=%d",
		s.Batches, s.OffloadedItems, s.DirectItems, s.Syncs)
}

// counters are updated from both threads.
type counters struct {
	batches   atomic.Uint64
	offloaded atomic.Uint64
	direct    atomic.Uint64
	syncs     atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Batches:        c.batches.Load(),
		OffloadedItems: c.offloaded.Load(),
		DirectItems:    c.direct.Load(),
		Syncs:          c.syncs.Load(),
	}
}
