// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/gogpu/naga"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/glthread"
)

// Server implementations. Each one runs with the State locks held, either
// decoded from a batch or called directly for records too large to encode.

func (s *State) clear(mask Enum) {
	if mask&^ColorBufferBit != 0 {
		s.setError(InvalidValue)
		return
	}
	if mask&ColorBufferBit != 0 {
		xdraw.Draw(s.fb, s.fb.Bounds(), image.NewUniform(s.rgba()), image.Point{}, xdraw.Src)
	}
}

func (s *State) bindBuffer(target Enum, id uint32) {
	if !validBufferTarget(target) {
		s.setError(InvalidEnum)
		return
	}
	if id != 0 && s.buffers[id] == nil {
		s.setError(InvalidOperation)
		return
	}
	s.bindings[target] = id
}

func (s *State) bufferData(target Enum, size int, data []byte, usage Enum) {
	if size < 0 || (data != nil && len(data) != size) {
		s.setError(InvalidValue)
		return
	}
	if !validBufferUsage(usage) {
		s.setError(InvalidEnum)
		return
	}
	id, b := s.boundBuffer(target)
	if b == nil {
		return
	}
	b.Data = make([]byte, size)
	copy(b.Data, data)
	b.Usage = usage

	if s.uploader == nil {
		return
	}
	if err := s.uploader.AllocBuffer(id, size); err != nil {
		glthread.Logger().Warn("api: buffer allocation failed", "buffer", id, "size", size, "err", err)
		s.setError(OutOfMemory)
		return
	}
	if data != nil {
		s.upload(id, 0, b.Data)
	}
}

func (s *State) bufferSubData(target Enum, offset int, data []byte) {
	id, b := s.boundBuffer(target)
	if b == nil {
		return
	}
	if offset < 0 || offset+len(data) > len(b.Data) {
		s.setError(InvalidValue)
		return
	}
	copy(b.Data[offset:], data)
	if s.uploader != nil {
		s.upload(id, offset, data)
	}
}

func (s *State) upload(id uint32, offset int, data []byte) {
	if err := s.uploader.WriteBuffer(id, offset, data); err != nil {
		glthread.Logger().Warn("api: buffer upload failed", "buffer", id, "err", err)
		s.setError(OutOfMemory)
	}
}

func (s *State) deleteBuffers(ids []uint32) {
	for _, id := range ids {
		if id == 0 || s.buffers[id] == nil {
			continue // silently ignored, as in GL
		}
		delete(s.buffers, id)
		for target, bound := range s.bindings {
			if bound == id {
				s.bindings[target] = 0
			}
		}
		if s.uploader != nil {
			s.uploader.FreeBuffer(id)
		}
	}
}

func (s *State) bindTexture(target Enum, id uint32) {
	if target != Texture2D {
		s.setError(InvalidEnum)
		return
	}
	if id != 0 && s.textures[id] == nil {
		s.textures[id] = &Texture{
			Target: target,
			Params: map[Enum]Enum{
				TextureMinFilter: Linear,
				TextureMagFilter: Linear,
				TextureWrapS:     Repeat,
				TextureWrapT:     Repeat,
			},
		}
	}
	s.boundTexture = id
}

func (s *State) texParameteri(target, pname, param Enum) {
	if target != Texture2D {
		s.setError(InvalidEnum)
		return
	}
	if e := texParamError(pname, param); e != NoError {
		s.setError(e)
		return
	}
	if t := s.boundTex(); t != nil {
		t.Params[pname] = param
	}
}

func (s *State) compileShader(id uint32, source string) {
	sh := s.shaders[id]
	if sh == nil {
		s.setError(InvalidValue)
		return
	}
	sh.Source = source
	sh.Compiled, sh.Log, sh.SPIRV = false, "", nil

	spirv, err := compileWGSL(source)
	if err != nil {
		sh.Log = err.Error()
		return
	}
	sh.SPIRV = spirv
	sh.Compiled = true

	if s.shaderCreator == nil {
		return
	}
	if err := s.shaderCreator.CreateShaderModule(id, fmt.Sprintf("shader-%d", id), spirv); err != nil {
		sh.Compiled = false
		sh.Log = err.Error()
	}
}

func (s *State) deleteShader(id uint32) {
	sh := s.shaders[id]
	if sh == nil {
		s.setError(InvalidValue)
		return
	}
	delete(s.shaders, id)
	if sh.Compiled && s.shaderCreator != nil {
		s.shaderCreator.DestroyShaderModule(id)
	}
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	code, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

func (s *State) linkProgram(id uint32, shaders []uint32) {
	p := s.programs[id]
	if p == nil {
		s.setError(InvalidValue)
		return
	}
	p.Shaders = append(p.Shaders[:0], shaders...)
	p.Linked, p.Log = false, ""

	if len(shaders) == 0 {
		p.Log = "no shaders attached"
		return
	}
	for _, sid := range shaders {
		sh := s.shaders[sid]
		if sh == nil {
			p.Log = fmt.Sprintf("shader %d does not exist", sid)
			return
		}
		if !sh.Compiled {
			p.Log = fmt.Sprintf("shader %d is not compiled", sid)
			return
		}
	}
	p.Linked = true
}

func (s *State) useProgram(id uint32) {
	if id != 0 {
		p := s.programs[id]
		if p == nil || !p.Linked {
			s.setError(InvalidOperation)
			return
		}
	}
	s.currentProgram = id
}

func (s *State) newList(id uint32, mode Enum) {
	switch {
	case id == 0:
		s.setError(InvalidValue)
	case mode != Compile && mode != CompileAndExecute:
		s.setError(InvalidEnum)
	case s.compiling != nil:
		s.setError(InvalidOperation)
	default:
		s.compiling = &displayList{id: id, mode: mode}
	}
}

func (s *State) endList() {
	if s.compiling == nil {
		s.setError(InvalidOperation)
		return
	}
	s.lists[s.compiling.id] = s.compiling
	s.compiling = nil
}

// callList replays list id. Lists that do not exist are ignored.
func (s *State) callList(id uint32) {
	l := s.lists[id]
	if l == nil || s.depth >= maxListNesting {
		return
	}
	s.depth++
	for pos := 0; pos < len(l.cmds); {
		pos += s.table.Execute(l.cmds[pos:])
	}
	s.depth--
}

func (s *State) blitFramebuffer(src, dst image.Rectangle, filter Enum) {
	var scaler xdraw.Scaler
	switch filter {
	case Nearest:
		scaler = xdraw.NearestNeighbor
	case Linear:
		scaler = xdraw.ApproxBiLinear
	default:
		s.setError(InvalidEnum)
		return
	}
	src = src.Canon().Intersect(s.fb.Bounds())
	dst = dst.Canon()
	if src.Empty() || dst.Empty() {
		return
	}
	// Source and destination may overlap.
	tmp := s.readPixels(src)
	scaler.Scale(s.fb, dst, tmp, tmp.Bounds(), xdraw.Src, nil)
}
