// Package backend provides a pluggable driver registry for the offload
// engine.
//
// A driver is a glthread.Backend that can also be opened and closed by
// name. Driver packages register themselves in init():
//
//	import _ "github.com/gogpu/glthread/backend/wgpu"
//
// # Driver Selection
//
// Use OpenDefault() to get the best available driver, or Open() to request
// a specific one by name:
//
//	// The first driver that opens, Vulkan before noop
//	d, err := backend.OpenDefault()
//
//	// Or request a specific driver
//	d, err := backend.Open("noop")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	e := glthread.New(d, state)
//
// # Available Drivers
//
// - "vulkan": a Vulkan device through gogpu/wgpu (when the loader is present)
// - "noop": the gogpu/wgpu noop HAL (always available)
package backend
