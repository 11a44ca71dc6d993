package queue

import "sync"

// Fence is a one-shot completion signal that can be re-armed.
//
// The zero value is signaled, so freshly allocated fences do not block.
// Add resets the fence of a job and the worker signals it after the job
// has executed.
//
// Thread safety: Fence is safe for concurrent use.
type Fence struct {
	mu sync.Mutex

	// pending is non-nil while the fence is unsignaled and is closed
	// when it becomes signaled.
	pending chan struct{}
}

// Reset makes the fence unsignaled. Resetting an unsignaled fence is a no-op.
func (f *Fence) Reset() {
	f.mu.Lock()
	if f.pending == nil {
		f.pending = make(chan struct{})
	}
	f.mu.Unlock()
}

// Signal marks the fence signaled and wakes all waiters.
// Signal is idempotent.
func (f *Fence) Signal() {
	f.mu.Lock()
	if f.pending != nil {
		close(f.pending)
		f.pending = nil
	}
	f.mu.Unlock()
}

// IsSignaled reports whether the fence is signaled. It never blocks on
// the job the fence belongs to.
func (f *Fence) IsSignaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending == nil
}

// Wait blocks until the fence is signaled.
func (f *Fence) Wait() {
	f.mu.Lock()
	ch := f.pending
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}
