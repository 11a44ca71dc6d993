package glthread

import "github.com/gogpu/glthread/marshal"

const (
	// DefaultBatchCount is the default number of batches in the ring.
	DefaultBatchCount = 8

	// DefaultBatchSize is the default batch capacity in bytes.
	DefaultBatchSize = 8 * 1024

	// DefaultPinInterval is the default number of flushes between two
	// runs of the affinity heuristic.
	DefaultPinInterval = 128

	// MinBatchCount is the smallest usable ring: one batch being filled,
	// one in the backlog and one executing.
	MinBatchCount = 3
)

// Option configures an Engine during creation.
//
// Example:
//
//	e := glthread.New(backend, state,
//	    glthread.WithBatchCount(16),
//	    glthread.WithBatchSize(64*1024),
//	)
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	batchCount  int
	batchSlots  int
	pinInterval uint32
	topology    Topology
	synchronous bool
	tracer      Tracer
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		batchCount:  DefaultBatchCount,
		batchSlots:  DefaultBatchSize / marshal.SlotSize,
		pinInterval: DefaultPinInterval,
		topology:    nil, // cpu.System() on first use
	}
}

// WithBatchCount sets the number of batches in the ring.
// Values below MinBatchCount are raised to MinBatchCount.
// The job queue backlog is always the batch count minus two.
func WithBatchCount(n int) Option {
	return func(o *options) {
		o.batchCount = max(n, MinBatchCount)
	}
}

// WithBatchSize sets the capacity of each batch in bytes, rounded up to a
// whole number of 8-byte slots. A record larger than this is never
// offloaded.
func WithBatchSize(bytes int) Option {
	return func(o *options) {
		o.batchSlots = max(marshal.Slots(bytes), 1)
	}
}

// WithPinInterval sets how many flushes pass between two runs of the
// cache-domain affinity heuristic. Zero disables the heuristic.
func WithPinInterval(n int) Option {
	return func(o *options) {
		o.pinInterval = uint32(max(n, 0))
	}
}

// WithTopology injects the cache topology used by the affinity heuristic.
func WithTopology(t Topology) Option {
	return func(o *options) {
		o.topology = t
	}
}

// WithSynchronous makes Flush execute each batch immediately on the
// calling thread instead of queueing it. Useful when debugging a command
// whose effect differs between offloaded and direct execution.
func WithSynchronous(sync bool) Option {
	return func(o *options) {
		o.synchronous = sync
	}
}

// WithTracer records every executed batch to t.
func WithTracer(t Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}
