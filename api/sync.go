// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import "image"

// Synchronous commands. Each one waits for the work it depends on and
// then reads or updates the server state under its locks.

// GetError returns and clears the first recorded error.
func (c *Context) GetError() Enum {
	c.engine.FinishBefore("GetError")
	c.state.Lock()
	defer c.state.Unlock()
	return c.state.takeError()
}

// GetClearColor returns the current clear color.
func (c *Context) GetClearColor() [4]float32 {
	c.engine.FinishBefore("GetClearColor")
	c.state.Lock()
	defer c.state.Unlock()
	return c.state.clearColor
}

// GenBuffers creates n buffer objects and returns their names.
func (c *Context) GenBuffers(n int) []uint32 {
	if n < 0 {
		c.InternalSetError(InvalidValue)
		return nil
	}
	c.engine.FinishBefore("GenBuffers")
	c.state.Lock()
	defer c.state.Unlock()
	return c.state.genBuffers(n)
}

// CreateShader creates an empty shader object.
func (c *Context) CreateShader() uint32 {
	c.engine.FinishBefore("CreateShader")
	c.state.Lock()
	defer c.state.Unlock()
	id := c.state.createObject()
	c.state.shaders[id] = &Shader{}
	return id
}

// CreateProgram creates an empty program object.
func (c *Context) CreateProgram() uint32 {
	c.engine.FinishBefore("CreateProgram")
	c.state.Lock()
	defer c.state.Unlock()
	id := c.state.createObject()
	c.state.programs[id] = &Program{}
	return id
}

// GetBufferSubData reads size bytes at offset from the buffer bound to
// target. It returns nil and records an error on a bad range.
func (c *Context) GetBufferSubData(target Enum, offset, size int) []byte {
	c.engine.FinishBefore("GetBufferSubData")
	c.state.Lock()
	defer c.state.Unlock()
	_, b := c.state.boundBuffer(target)
	if b == nil {
		return nil
	}
	if offset < 0 || size < 0 || offset+size > len(b.Data) {
		c.state.setError(InvalidValue)
		return nil
	}
	out := make([]byte, size)
	copy(out, b.Data[offset:])
	return out
}

// ReadPixels copies a rectangle of the framebuffer, clipped to its bounds.
func (c *Context) ReadPixels(x, y, width, height int) *image.RGBA {
	c.engine.FinishBefore("ReadPixels")
	c.state.Lock()
	defer c.state.Unlock()
	return c.state.readPixels(image.Rect(x, y, x+width, y+height))
}

// GetTexParameteri returns a parameter of the bound texture.
func (c *Context) GetTexParameteri(target, pname Enum) Enum {
	c.engine.FinishBefore("GetTexParameteri")
	c.state.Lock()
	defer c.state.Unlock()
	if target != Texture2D {
		c.state.setError(InvalidEnum)
		return 0
	}
	t := c.state.boundTex()
	if t == nil {
		return 0
	}
	v, ok := t.Params[pname]
	if !ok {
		c.state.setError(InvalidEnum)
	}
	return v
}

// GetShaderCompileStatus reports whether shader compiled, with the
// compiler log.
func (c *Context) GetShaderCompileStatus(shader uint32) (bool, string) {
	c.engine.FinishBefore("GetShaderCompileStatus")
	c.state.Lock()
	defer c.state.Unlock()
	sh := c.state.shaders[shader]
	if sh == nil {
		c.state.setError(InvalidValue)
		return false, ""
	}
	return sh.Compiled, sh.Log
}

// GetProgramLinkStatus reports whether program linked, with the link log.
// It only waits for the batch that last linked a program.
func (c *Context) GetProgramLinkStatus(program uint32) (bool, string) {
	c.engine.WaitForProgramChange()
	c.state.Lock()
	defer c.state.Unlock()
	p := c.state.programs[program]
	if p == nil {
		c.state.setError(InvalidValue)
		return false, ""
	}
	return p.Linked, p.Log
}

// IsList reports whether list names a display list. It only waits for the
// batch that last finished a display list.
func (c *Context) IsList(list uint32) bool {
	c.engine.WaitForDListChange()
	c.state.Lock()
	defer c.state.Unlock()
	return c.state.lists[list] != nil
}
