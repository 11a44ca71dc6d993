// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/gogpu/glthread"
	"github.com/gogpu/glthread/marshal"
)

// Context is the client side of the command set. It must be used from
// one goroutine, the engine's producer.
type Context struct {
	engine *glthread.Engine
	state  *State

	// scratch holds a record executed directly, for a disabled engine or
	// a record larger than a batch.
	scratch []uint64
}

// NewContext returns a client recording into engine. state must be the
// Dispatcher engine was created with.
func NewContext(engine *glthread.Engine, state *State) *Context {
	c := &Context{engine: engine, state: state}
	engine.OnDestroy(func() { c.scratch = nil })
	return c
}

// Engine returns the engine the context records into.
func (c *Context) Engine() *glthread.Engine { return c.engine }

// State returns the server state.
func (c *Context) State() *State { return c.state }

// Flush submits the commands recorded so far.
func (c *Context) Flush() { c.engine.Flush() }

// Finish waits until every recorded command has executed.
func (c *Context) Finish() { c.engine.Finish() }

// alloc returns a record for id with its header written. direct reports
// that the record is scratch memory to be passed to submit. A nil record
// means it cannot be encoded at all and the caller runs the command with
// runDirect.
func (c *Context) alloc(id marshal.CmdID, size int) (cmd []uint64, direct bool) {
	if cmd := c.engine.Allocate(id, size); cmd != nil {
		return cmd, false
	}
	n := marshal.Slots(size)
	if n > marshal.MaxCmdSlots {
		return nil, true
	}
	c.engine.FinishBefore(commandNames[id])
	if cap(c.scratch) < n {
		c.scratch = make([]uint64, n)
	}
	cmd = c.scratch[:n:n]
	clear(cmd)
	marshal.PutHeader(cmd, id, n)
	return cmd, true
}

// submit executes a direct record. Records in a batch are left alone.
func (c *Context) submit(cmd []uint64, direct bool) {
	if !direct {
		return
	}
	c.state.Lock()
	c.state.Execute(cmd)
	c.state.Unlock()
}

// runDirect drains the engine and runs fn on the server state.
func (c *Context) runDirect(name string, fn func(s *State)) {
	c.engine.FinishBefore(name)
	c.state.Lock()
	fn(c.state)
	c.state.Unlock()
}

// =============================================================================
// Asynchronous commands
// =============================================================================

// ClearColor sets the color Clear fills the framebuffer with.
func (c *Context) ClearColor(r, g, b, a float32) {
	cmd, direct := c.alloc(CmdClearColor, sizeClearColor)
	e := marshal.NewEncoder(cmd)
	e.PutFloat32(r)
	e.PutFloat32(g)
	e.PutFloat32(b)
	e.PutFloat32(a)
	c.submit(cmd, direct)
}

// Clear clears the buffers selected by mask.
func (c *Context) Clear(mask Enum) {
	cmd, direct := c.alloc(CmdClear, sizeClear)
	marshal.NewEncoder(cmd).PutUint32(uint32(mask))
	c.submit(cmd, direct)
}

// BindBuffer binds buffer to target. Consecutive calls share one record.
func (c *Context) BindBuffer(target Enum, buffer uint32) {
	if !validBufferTarget(target) {
		c.InternalSetError(InvalidEnum)
		return
	}
	if c.mergeBindBuffer(target, buffer) {
		return
	}
	cmd, direct := c.alloc(CmdBindBuffer, sizeBindBuffer)
	b := marshal.Bytes(cmd)
	binary.LittleEndian.PutUint32(b[marshal.HeaderSize:], 1)
	putBinding(b[marshal.SlotSize:], target, buffer)
	if direct {
		c.submit(cmd, direct)
		return
	}
	c.engine.Remember(glthread.CacheBindBuffer)
}

func (c *Context) mergeBindBuffer(target Enum, buffer uint32) bool {
	cmd := c.engine.Last(glthread.CacheBindBuffer)
	if cmd == nil {
		return false
	}
	n := int(binary.LittleEndian.Uint32(marshal.Bytes(cmd)[marshal.HeaderSize:]))
	if n >= maxMergedBindings {
		return false
	}
	if cmd = c.engine.Extend(glthread.CacheBindBuffer, 1); cmd == nil {
		return false
	}
	b := marshal.Bytes(cmd)
	putBinding(b[(n+1)*marshal.SlotSize:], target, buffer)
	binary.LittleEndian.PutUint32(b[marshal.HeaderSize:], uint32(n+1))
	return true
}

func putBinding(p []byte, target Enum, buffer uint32) {
	binary.LittleEndian.PutUint32(p, uint32(target))
	binary.LittleEndian.PutUint32(p[4:], buffer)
}

// BufferData creates storage of size bytes for the buffer bound to target,
// initialized from data when it is not nil.
func (c *Context) BufferData(target Enum, size int, data []byte, usage Enum) {
	if size < 0 || size > math.MaxInt32 || (data != nil && len(data) != size) {
		c.InternalSetError(InvalidValue)
		return
	}
	cmd, direct := c.alloc(CmdBufferData, sizeBufferData(len(data)))
	if cmd == nil {
		c.runDirect("BufferData", func(s *State) { s.bufferData(target, size, data, usage) })
		return
	}
	e := marshal.NewEncoder(cmd)
	e.PutUint32(uint32(target))
	e.PutUint32(uint32(usage))
	e.PutUint32(uint32(size))
	e.PutBytes(data)
	c.submit(cmd, direct)
}

// BufferSubData replaces part of the storage of the buffer bound to target.
func (c *Context) BufferSubData(target Enum, offset int, data []byte) {
	if offset < 0 || offset > math.MaxInt32 {
		c.InternalSetError(InvalidValue)
		return
	}
	cmd, direct := c.alloc(CmdBufferSubData, sizeBufferSubData(len(data)))
	if cmd == nil {
		c.runDirect("BufferSubData", func(s *State) { s.bufferSubData(target, offset, data) })
		return
	}
	e := marshal.NewEncoder(cmd)
	e.PutUint32(uint32(target))
	e.PutInt32(int32(offset))
	e.PutBytes(data)
	c.submit(cmd, direct)
}

// DeleteBuffers deletes buffer objects and unbinds them.
func (c *Context) DeleteBuffers(ids ...uint32) {
	if len(ids) == 0 {
		return
	}
	cmd, direct := c.alloc(CmdDeleteBuffers, sizeDeleteBuffers(len(ids)))
	if cmd == nil {
		c.runDirect("DeleteBuffers", func(s *State) { s.deleteBuffers(ids) })
		return
	}
	e := marshal.NewEncoder(cmd)
	e.PutUint32(uint32(len(ids)))
	for _, id := range ids {
		e.PutUint32(id)
	}
	c.submit(cmd, direct)
}

// BindTexture binds texture to target, creating it on first use.
func (c *Context) BindTexture(target Enum, texture uint32) {
	cmd, direct := c.alloc(CmdBindTexture, sizeBindTexture)
	e := marshal.NewEncoder(cmd)
	e.PutUint32(uint32(target))
	e.PutUint32(texture)
	c.submit(cmd, direct)
}

// TexParameteri sets a parameter of the bound texture.
func (c *Context) TexParameteri(target, pname, param Enum) {
	cmd, direct := c.alloc(CmdTexParameteri, sizeTexParameteri)
	e := marshal.NewEncoder(cmd)
	e.PutUint32(uint32(target))
	e.PutUint32(uint32(pname))
	e.PutUint32(uint32(param))
	c.submit(cmd, direct)
}

// CompileShader compiles WGSL source into shader. Compilation runs where
// the command executes, usually on the worker thread.
func (c *Context) CompileShader(shader uint32, source string) {
	cmd, direct := c.alloc(CmdCompileShader, sizeCompileShader(len(source)))
	if cmd == nil {
		c.runDirect("CompileShader", func(s *State) { s.compileShader(shader, source) })
		return
	}
	e := marshal.NewEncoder(cmd)
	e.PutUint32(shader)
	e.PutString(source)
	c.submit(cmd, direct)
}

// LinkProgram links program from compiled shaders.
func (c *Context) LinkProgram(program uint32, shaders ...uint32) {
	cmd, direct := c.alloc(CmdLinkProgram, sizeLinkProgram(len(shaders)))
	if cmd == nil {
		c.runDirect("LinkProgram", func(s *State) { s.linkProgram(program, shaders) })
		return
	}
	e := marshal.NewEncoder(cmd)
	e.PutUint32(program)
	e.PutUint32(uint32(len(shaders)))
	for _, id := range shaders {
		e.PutUint32(id)
	}
	if !direct {
		c.engine.MarkProgramChange()
	}
	c.submit(cmd, direct)
}

// DeleteShader deletes a shader object and the shader module created for
// it. Zero is ignored.
func (c *Context) DeleteShader(shader uint32) {
	if shader == 0 {
		return
	}
	cmd, direct := c.alloc(CmdDeleteShader, sizeDeleteShader)
	marshal.NewEncoder(cmd).PutUint32(shader)
	c.submit(cmd, direct)
}

// UseProgram makes program current. Zero unbinds.
func (c *Context) UseProgram(program uint32) {
	cmd, direct := c.alloc(CmdUseProgram, sizeUseProgram)
	marshal.NewEncoder(cmd).PutUint32(program)
	c.submit(cmd, direct)
}

// NewList starts compiling display list id.
func (c *Context) NewList(list uint32, mode Enum) {
	if list == 0 {
		c.InternalSetError(InvalidValue)
		return
	}
	cmd, direct := c.alloc(CmdNewList, sizeNewList)
	e := marshal.NewEncoder(cmd)
	e.PutUint32(list)
	e.PutUint32(uint32(mode))
	c.submit(cmd, direct)
}

// EndList finishes the display list being compiled.
func (c *Context) EndList() {
	cmd, direct := c.alloc(CmdEndList, sizeEndList)
	if !direct {
		c.engine.MarkDListChange()
	}
	c.submit(cmd, direct)
}

// CallList replays display list id. Consecutive calls share one record.
func (c *Context) CallList(list uint32) {
	if c.mergeCallList(list) {
		return
	}
	cmd, direct := c.alloc(CmdCallList, sizeCallList)
	b := marshal.Bytes(cmd)
	binary.LittleEndian.PutUint32(b[marshal.HeaderSize:], 1)
	binary.LittleEndian.PutUint32(b[marshal.SlotSize:], list)
	binary.LittleEndian.PutUint32(b[marshal.SlotSize+4:], 0)
	if direct {
		c.submit(cmd, direct)
		return
	}
	c.engine.Remember(glthread.CacheCallList)
}

func (c *Context) mergeCallList(list uint32) bool {
	cmd := c.engine.Last(glthread.CacheCallList)
	if cmd == nil {
		return false
	}
	b := marshal.Bytes(cmd)
	n := int(binary.LittleEndian.Uint32(b[marshal.HeaderSize:]))
	if marshal.SlotSize+(n+1)*4 > len(b) {
		if cmd = c.engine.Extend(glthread.CacheCallList, 1); cmd == nil {
			return false
		}
		b = marshal.Bytes(cmd)
		binary.LittleEndian.PutUint32(b[len(b)-4:], 0)
	}
	binary.LittleEndian.PutUint32(b[marshal.SlotSize+n*4:], list)
	binary.LittleEndian.PutUint32(b[marshal.HeaderSize:], uint32(n+1))
	return true
}

// BlitFramebuffer copies src to dst within the framebuffer, scaling with
// filter (Nearest or Linear).
func (c *Context) BlitFramebuffer(src, dst image.Rectangle, filter Enum) {
	coords := [8]int{src.Min.X, src.Min.Y, src.Max.X, src.Max.Y, dst.Min.X, dst.Min.Y, dst.Max.X, dst.Max.Y}
	for _, v := range coords {
		if v < math.MinInt32 || v > math.MaxInt32 {
			c.InternalSetError(InvalidValue)
			return
		}
	}
	cmd, direct := c.alloc(CmdBlitFramebuffer, sizeBlitFramebuffer)
	e := marshal.NewEncoder(cmd)
	for _, v := range coords {
		e.PutInt32(int32(v))
	}
	e.PutUint32(uint32(filter))
	c.submit(cmd, direct)
}

// InternalSetError records err in command order. Client-side validation
// uses it so an error becomes visible exactly where a direct call would
// have raised it.
func (c *Context) InternalSetError(err Enum) {
	cmd, direct := c.alloc(CmdInternalSetError, sizeSetError)
	marshal.NewEncoder(cmd).PutUint32(uint32(err))
	c.submit(cmd, direct)
}
