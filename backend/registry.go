package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Factory creates a new, uninitialized driver.
type Factory func() Driver

// registry holds registered drivers.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for driver selection (first available wins).
	priority = []string{BackendVulkan, BackendNoop}
)

// Register registers a driver factory with the given name.
// This is typically called from init() functions in backend packages.
// If a driver with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a driver from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered driver names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a driver with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new driver instance by name.
// Returns nil if the driver is not registered.
func Get(name string) Driver {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// Open returns an initialized driver by name.
func Open(name string) (Driver, error) {
	d := Get(name)
	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	if err := d.Init(); err != nil {
		return nil, fmt.Errorf("backend: init %s: %w", name, err)
	}
	return d, nil
}

// OpenDefault initializes the first driver in priority order that opens,
// falling back to any other registered driver.
func OpenDefault() (Driver, error) {
	names := Available()
	slices.SortStableFunc(names, func(a, b string) int {
		return rank(a) - rank(b)
	})

	var errs []error
	for _, name := range names {
		d, err := Open(name)
		if err == nil {
			return d, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %v", ErrBackendNotAvailable, errs)
}

func rank(name string) int {
	if i := slices.Index(priority, name); i >= 0 {
		return i
	}
	return len(priority)
}
