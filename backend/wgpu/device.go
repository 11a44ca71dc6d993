package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/glthread"
	"github.com/gogpu/glthread/backend"
	"github.com/gogpu/glthread/cpu"
)

func init() {
	backend.Register(backend.BackendVulkan, func() backend.Driver { return NewVulkan() })
	backend.Register(backend.BackendNoop, func() backend.Driver { return NewNoop() })
}

// Device is a HAL device the offload engine runs in front of.
type Device struct {
	name string
	open func() (opened, error)

	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	external bool
	buffers  map[uint32]gpuBuffer
	modules  map[uint32]hal.ShaderModule

	lost     atomic.Bool
	worker   atomic.Int64
	pinnedL3 atomic.Int32
}

// opened is what an open function acquired.
type opened struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
}

type gpuBuffer struct {
	buf  hal.Buffer
	size uint64
}

func newDevice(name string) *Device {
	d := &Device{
		name:    name,
		buffers: make(map[uint32]gpuBuffer),
		modules: make(map[uint32]hal.ShaderModule),
	}
	d.pinnedL3.Store(cpu.InvalidL3)
	return d
}

// New wraps an existing HAL device and queue. The caller keeps ownership:
// Close releases only the resources the Device created.
func New(device hal.Device, queue hal.Queue) *Device {
	d := newDevice("hal")
	d.device, d.queue, d.external = device, queue, true
	return d
}

// NewFromProvider shares the device of a gpucontext.DeviceProvider. The
// provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. The adapter name comes from
// AdapterInfo.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	d := New(device, queue)
	d.name = "provider"
	d.adapter = provider.AdapterInfo().Name
	return d, nil
}

// NewNoop returns an unopened Device on the noop HAL.
func NewNoop() *Device {
	d := newDevice(backend.BackendNoop)
	d.open = openNoop
	return d
}

// NewVulkan returns an unopened Device on the first Vulkan adapter,
// preferring discrete and integrated GPUs.
func NewVulkan() *Device {
	d := newDevice(backend.BackendVulkan)
	d.open = openVulkan
	return d
}

func openNoop() (opened, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return opened{}, fmt.Errorf("create instance: %w", err)
	}
	return openAdapter(instance)
}

func openVulkan() (opened, error) {
	api, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return opened{}, fmt.Errorf("vulkan backend not available")
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return opened{}, fmt.Errorf("create instance: %w", err)
	}
	return openAdapter(instance)
}

func openAdapter(instance hal.Instance) (opened, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return opened{}, fmt.Errorf("no GPU adapters found")
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return opened{}, fmt.Errorf("open device: %w", err)
	}
	return opened{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
	}, nil
}

// Name returns the driver name.
func (d *Device) Name() string { return d.name }

// Init opens the device. It is a no-op for a device that is already open.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil {
		return nil
	}
	if d.open == nil {
		return backend.ErrNotInitialized
	}
	o, err := d.open()
	if err != nil {
		return fmt.Errorf("wgpu: %s: %w", d.name, err)
	}
	d.instance, d.device, d.queue, d.adapter = o.instance, o.device, o.queue, o.adapter
	d.lost.Store(false)
	glthread.Logger().Info("wgpu: device opened", "driver", d.name, "adapter", o.adapter)
	return nil
}

// Adapter returns the name of the adapter the device was opened on.
func (d *Device) Adapter() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapter
}

// Supports reports both engine capabilities once the device is open: HAL
// buffers are written through the queue and never mapped by the client.
func (d *Device) Supports(c glthread.Capability) bool {
	d.mu.Lock()
	open := d.device != nil
	d.mu.Unlock()
	switch c {
	case glthread.CapMapUnsynchronizedThreadSafe, glthread.CapAllowMappedBuffersDuringExecution:
		return open
	}
	return false
}

// ContextLost reports whether MarkLost was called.
func (d *Device) ContextLost() bool { return d.lost.Load() }

// MarkLost flags the device as lost. The engine tears down on its next
// flush.
func (d *Device) MarkLost() {
	if !d.lost.Swap(true) {
		glthread.Logger().Warn("wgpu: device lost", "driver", d.name)
	}
}

// BindThread records the engine worker thread.
func (d *Device) BindThread() {
	d.worker.Store(int64(cpu.ThreadID()))
}

// WorkerThread returns the OS thread id recorded by BindThread, or 0.
func (d *Device) WorkerThread() int { return int(d.worker.Load()) }

// PinThreadsToL3 records the cache domain the engine pinned its worker to.
// HAL submission happens on the worker itself, so there is no other
// thread to move.
func (d *Device) PinThreadsToL3(cache int) {
	if old := d.pinnedL3.Swap(int32(cache)); int(old) != cache {
		glthread.Logger().Debug("wgpu: pinned to L3", "driver", d.name, "l3", cache)
	}
}

// PinnedL3 returns the last cache domain passed to PinThreadsToL3.
func (d *Device) PinnedL3() (int, bool) {
	l3 := int(d.pinnedL3.Load())
	return l3, l3 != cpu.InvalidL3
}

// Close releases every buffer and shader module created through the
// device, then the device and instance it opened itself.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, id)
	}
	for id, m := range d.modules {
		d.device.DestroyShaderModule(m)
		delete(d.modules, id)
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device, d.queue, d.instance = nil, nil, nil
}
