// Package glthread offloads recorded API calls to a dedicated worker thread.
//
// # Overview
//
// Applications that issue many small rendering calls tend to be CPU bound
// on their own thread, with about half of the time spent in the driver.
// glthread puts a thin recording layer in front of the driver: each call is
// serialized into a fixed-capacity batch, and full batches are executed by
// a worker thread while the application keeps recording.
//
// # Architecture
//
//   - Engine: owns the batch ring and the job queue; Init, Flush, Finish
//     and Destroy are the whole synchronization protocol.
//   - Batch ring: N pre-allocated batches. One is filled by the producer,
//     up to N-1 are in flight, and each is reused only after its fence
//     signaled.
//   - Dispatcher: the server half of the command set. The worker holds its
//     locks for a whole batch and decodes records in order.
//   - Backend: the driver below. It gates offloading through Supports and
//     can receive cache-domain pinning hints.
//
// The marshal package defines the record format and the api package is a
// small reference command set built on top of the engine.
//
// # Quick Start
//
//	state := api.NewState()
//	e := glthread.New(backend, state)
//	e.Init()
//	ctx := api.NewContext(e, state)
//	ctx.ClearColor(0, 0, 0, 1)
//	ctx.Clear(api.ColorBufferBit)
//	pixels := ctx.ReadPixels(0, 0, 16, 16) // synchronizes
//	e.Destroy("done")
//
// # Threading
//
// One producer goroutine records commands; Engine methods other than Stats,
// Enabled and ID must be called from that goroutine. The worker never runs
// two batches at once and batches execute in submission order.
//
// # Degraded Mode
//
// When the backend lacks the required capabilities Init returns false and
// the engine stays disabled. Callers then execute every command directly;
// the observable results are identical.
package glthread
