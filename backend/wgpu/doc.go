// Package wgpu runs the offload engine in front of a gogpu/wgpu HAL device.
//
// A Device implements glthread.Backend, glthread.ThreadBinder and
// glthread.L3Pinner, and the api.Uploader and api.ShaderCreator hooks that
// mirror buffer objects and compiled shaders into HAL resources.
//
// # Opening a Device
//
//	// Standalone Vulkan device
//	d := wgpu.NewVulkan()
//	if err := d.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	// Shared device from a gogpu application
//	d, err := wgpu.NewFromProvider(app.DeviceProvider())
//
//	// Noop HAL for tests and benchmarks
//	d := wgpu.NewNoop()
//
// Importing the package registers the "vulkan" and "noop" drivers with
// the backend registry.
//
// # Threading
//
// Uploader and ShaderCreator calls arrive on the engine's worker thread
// while the api.State locks are held. Close may be called from the
// producer after the engine has been destroyed.
package wgpu
