package backend

import (
	"errors"

	"github.com/gogpu/glthread"
)

// Backend names.
const (
	// BackendVulkan runs on a Vulkan device through the gogpu/wgpu HAL.
	BackendVulkan = "vulkan"

	// BackendNoop runs on the gogpu/wgpu noop HAL. Always available once
	// registered; used by tests and benchmarks.
	BackendNoop = "noop"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Driver is a device an offload engine can run in front of.
//
// Drivers must be registered via Register() and are selected via
// Get() or Default().
type Driver interface {
	glthread.Backend

	// Name returns the backend identifier (e.g., "vulkan", "noop").
	Name() string

	// Init opens the device. Supports reports false until Init succeeded.
	Init() error

	// Close releases all device resources.
	// The driver should not be used after Close is called.
	Close()
}
