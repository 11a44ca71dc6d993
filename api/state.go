// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/glthread/marshal"
)

// DefaultFramebufferSize is the width and height of the framebuffer when
// WithFramebufferSize is not given.
const DefaultFramebufferSize = 64

// maxListNesting bounds CallList recursion.
const maxListNesting = 64

// Buffer is a buffer object.
type Buffer struct {
	Data  []byte
	Usage Enum
}

// Texture is a texture object.
type Texture struct {
	Target Enum
	Params map[Enum]Enum
}

// Shader is a shader object.
type Shader struct {
	Source   string
	SPIRV    []uint32
	Compiled bool
	Log      string
}

// Program is a program object.
type Program struct {
	Shaders []uint32
	Linked  bool
	Log     string
}

type displayList struct {
	id   uint32
	mode Enum
	cmds []uint64
}

// State is the server side of the command set. It implements
// glthread.Dispatcher.
//
// Every field is guarded by Lock. The engine takes it for each batch; the
// client takes it for direct execution and getters.
type State struct {
	objMu sync.Mutex // named objects: buffers, shaders, programs, lists
	texMu sync.Mutex // texture objects and bindings

	table *marshal.Table

	width, height int
	fb            *image.RGBA
	clearColor    [4]float32
	err           Enum

	buffers    map[uint32]*Buffer
	bindings   map[Enum]uint32
	nextBuffer uint32

	textures     map[uint32]*Texture
	boundTexture uint32

	shaders        map[uint32]*Shader
	programs       map[uint32]*Program
	nextObject     uint32
	currentProgram uint32

	lists     map[uint32]*displayList
	compiling *displayList
	depth     int

	uploader      Uploader
	shaderCreator ShaderCreator
}

// NewState creates an empty server state with a cleared framebuffer.
func NewState(opts ...StateOption) *State {
	s := &State{
		width:    DefaultFramebufferSize,
		height:   DefaultFramebufferSize,
		buffers:  make(map[uint32]*Buffer),
		bindings: make(map[Enum]uint32),
		textures: make(map[uint32]*Texture),
		shaders:  make(map[uint32]*Shader),
		programs: make(map[uint32]*Program),
		lists:    make(map[uint32]*displayList),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fb = image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	s.table = s.newTable()
	return s
}

// Lock acquires the named-object lock and then the texture lock.
func (s *State) Lock() {
	s.objMu.Lock()
	s.texMu.Lock()
}

// Unlock releases both locks in reverse order.
func (s *State) Unlock() {
	s.texMu.Unlock()
	s.objMu.Unlock()
}

// Execute runs the record at the start of cmd and returns the slots it
// consumed. While a display list is being compiled, listable records are
// appended to it and only executed in CompileAndExecute mode.
func (s *State) Execute(cmd []uint64) int {
	h := marshal.ReadHeader(cmd)
	if l := s.compiling; l != nil && isListable(h.ID) {
		l.cmds = append(l.cmds, cmd[:h.Slots]...)
		if l.mode == Compile {
			return h.Slots
		}
	}
	return s.table.Execute(cmd)
}

// Size returns the framebuffer size.
func (s *State) Size() (width, height int) { return s.width, s.height }

func (s *State) setError(e Enum) {
	if s.err == NoError {
		s.err = e
	}
}

func (s *State) takeError() Enum {
	e := s.err
	s.err = NoError
	return e
}

func (s *State) clearColorTo(r, g, b, a float32) {
	s.clearColor = [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

func (s *State) rgba() color.RGBA {
	c := s.clearColor
	return color.RGBA{
		R: uint8(c[0]*255 + 0.5),
		G: uint8(c[1]*255 + 0.5),
		B: uint8(c[2]*255 + 0.5),
		A: uint8(c[3]*255 + 0.5),
	}
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// boundBuffer returns the buffer bound to target or records an error.
func (s *State) boundBuffer(target Enum) (uint32, *Buffer) {
	if !validBufferTarget(target) {
		s.setError(InvalidEnum)
		return 0, nil
	}
	id := s.bindings[target]
	b := s.buffers[id]
	if b == nil {
		s.setError(InvalidOperation)
		return 0, nil
	}
	return id, b
}

func (s *State) genBuffers(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		s.nextBuffer++
		ids[i] = s.nextBuffer
		s.buffers[s.nextBuffer] = &Buffer{Usage: StaticDraw}
	}
	return ids
}

func (s *State) createObject() uint32 {
	s.nextObject++
	return s.nextObject
}

func (s *State) boundTex() *Texture {
	if s.boundTexture == 0 {
		s.setError(InvalidOperation)
		return nil
	}
	return s.textures[s.boundTexture]
}

func (s *State) readPixels(r image.Rectangle) *image.RGBA {
	r = r.Intersect(s.fb.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := s.fb.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()*4], s.fb.Pix[src:src+r.Dx()*4])
	}
	return out
}
