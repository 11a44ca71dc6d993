package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// bufferUsage covers every role a buffer object can be bound to.
const bufferUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageUniform |
	gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc

// alignedSize rounds size up to the 4-byte granularity of queue writes.
func alignedSize(size int) uint64 {
	return uint64(max(size, 4)+3) &^ 3
}

// AllocBuffer (re)creates the HAL buffer backing buffer object id.
func (d *Device) AllocBuffer(id uint32, size int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return fmt.Errorf("wgpu: alloc buffer %d: device not open", id)
	}
	if old, ok := d.buffers[id]; ok {
		d.device.DestroyBuffer(old.buf)
		delete(d.buffers, id)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("glthread-buffer-%d", id),
		Size:  alignedSize(size),
		Usage: bufferUsage,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create buffer %d: %w", id, err)
	}
	d.buffers[id] = gpuBuffer{buf: buf, size: alignedSize(size)}
	return nil
}

// WriteBuffer writes data into the HAL buffer of buffer object id. Writes
// are widened to 4-byte alignment.
func (d *Device) WriteBuffer(id uint32, offset int, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: write buffer %d: not allocated", id)
	}
	start := uint64(offset) &^ 3
	end := alignedSize(offset + len(data))
	if end > b.size {
		return fmt.Errorf("wgpu: write buffer %d: range [%d, %d) exceeds size %d", id, offset, offset+len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	chunk := make([]byte, end-start)
	copy(chunk[uint64(offset)-start:], data)
	d.queue.WriteBuffer(b.buf, start, chunk)
	return nil
}

// FreeBuffer destroys the HAL buffer of buffer object id.
func (d *Device) FreeBuffer(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[id]; ok && d.device != nil {
		d.device.DestroyBuffer(b.buf)
	}
	delete(d.buffers, id)
}

// Buffers returns the number of live HAL buffers.
func (d *Device) Buffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// CreateShaderModule creates a HAL shader module from SPIR-V code,
// replacing any module previously created for shader id.
func (d *Device) CreateShaderModule(id uint32, label string, spirv []uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return fmt.Errorf("wgpu: shader %d: device not open", id)
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader module %d: %w", id, err)
	}
	if old, ok := d.modules[id]; ok {
		d.device.DestroyShaderModule(old)
	}
	d.modules[id] = module
	return nil
}

// DestroyShaderModule destroys the module created for shader id.
func (d *Device) DestroyShaderModule(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.modules[id]; ok && d.device != nil {
		d.device.DestroyShaderModule(m)
	}
	delete(d.modules, id)
}

// ShaderModules returns the number of live shader modules.
func (d *Device) ShaderModules() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.modules)
}
