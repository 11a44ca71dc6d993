package glthread

import (
	"testing"

	"github.com/gogpu/glthread/marshal"
)

// nopDispatcher executes records without side effects.
type nopDispatcher struct{}

func (nopDispatcher) Execute(cmd []uint64) int { return marshal.ReadHeader(cmd).Slots }
func (nopDispatcher) Lock()                    {}
func (nopDispatcher) Unlock()                  {}

// BenchmarkEngine_Record benchmarks recording small records through the
// ring for several batch sizes.
func BenchmarkEngine_Record(b *testing.B) {
	sizes := []struct {
		name  string
		bytes int
	}{
		{"1KB", 1024},
		{"8KB", 8 * 1024},
		{"64KB", 64 * 1024},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			e := New(&fakeBackend{}, nopDispatcher{}, WithBatchSize(size.bytes), WithPinInterval(0))
			if !e.Init() {
				b.Fatal("Init() = false")
			}
			defer e.Destroy("")

			b.SetBytes(16)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				cmd := e.Allocate(cmdValue, 16)
				marshal.NewEncoder(cmd).PutUint32(uint32(i))
			}
			e.Finish()
		})
	}
}

// BenchmarkEngine_Synchronous is the same workload executed on the
// recording goroutine, for comparison.
func BenchmarkEngine_Synchronous(b *testing.B) {
	e := New(&fakeBackend{}, nopDispatcher{}, WithSynchronous(true), WithPinInterval(0))
	if !e.Init() {
		b.Fatal("Init() = false")
	}
	defer e.Destroy("")

	b.SetBytes(16)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cmd := e.Allocate(cmdValue, 16)
		marshal.NewEncoder(cmd).PutUint32(uint32(i))
	}
	e.Finish()
}

// BenchmarkEngine_FinishRoundTrip measures one record plus a full sync.
func BenchmarkEngine_FinishRoundTrip(b *testing.B) {
	e := New(&fakeBackend{}, nopDispatcher{}, WithPinInterval(0))
	if !e.Init() {
		b.Fatal("Init() = false")
	}
	defer e.Destroy("")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Allocate(cmdValue, 8)
		e.Flush()
		e.Finish()
	}
}
