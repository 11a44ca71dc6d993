// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"encoding/binary"
	"image"

	"github.com/gogpu/glthread/marshal"
)

func (s *State) newTable() *marshal.Table {
	t := marshal.NewTable()
	t.Register(CmdClearColor, commandNames[CmdClearColor], s.unmarshalClearColor)
	t.Register(CmdClear, commandNames[CmdClear], s.unmarshalClear)
	t.Register(CmdBindBuffer, commandNames[CmdBindBuffer], s.unmarshalBindBuffer)
	t.Register(CmdBufferData, commandNames[CmdBufferData], s.unmarshalBufferData)
	t.Register(CmdBufferSubData, commandNames[CmdBufferSubData], s.unmarshalBufferSubData)
	t.Register(CmdDeleteBuffers, commandNames[CmdDeleteBuffers], s.unmarshalDeleteBuffers)
	t.Register(CmdBindTexture, commandNames[CmdBindTexture], s.unmarshalBindTexture)
	t.Register(CmdTexParameteri, commandNames[CmdTexParameteri], s.unmarshalTexParameteri)
	t.Register(CmdCompileShader, commandNames[CmdCompileShader], s.unmarshalCompileShader)
	t.Register(CmdLinkProgram, commandNames[CmdLinkProgram], s.unmarshalLinkProgram)
	t.Register(CmdUseProgram, commandNames[CmdUseProgram], s.unmarshalUseProgram)
	t.Register(CmdNewList, commandNames[CmdNewList], s.unmarshalNewList)
	t.Register(CmdEndList, commandNames[CmdEndList], s.unmarshalEndList)
	t.Register(CmdCallList, commandNames[CmdCallList], s.unmarshalCallList)
	t.Register(CmdBlitFramebuffer, commandNames[CmdBlitFramebuffer], s.unmarshalBlitFramebuffer)
	t.Register(CmdDeleteShader, commandNames[CmdDeleteShader], s.unmarshalDeleteShader)
	t.Register(CmdInternalSetError, commandNames[CmdInternalSetError], s.unmarshalInternalSetError)
	return t
}

func slots(cmd []uint64) int { return marshal.ReadHeader(cmd).Slots }

func (s *State) unmarshalClearColor(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	s.clearColorTo(d.Float32(), d.Float32(), d.Float32(), d.Float32())
	return slots(cmd)
}

func (s *State) unmarshalClear(cmd []uint64) int {
	s.clear(Enum(marshal.NewDecoder(cmd).Uint32()))
	return slots(cmd)
}

// BindBuffer records carry up to maxMergedBindings (target, buffer) pairs,
// one per slot after the first.
func (s *State) unmarshalBindBuffer(cmd []uint64) int {
	b := marshal.Bytes(cmd)
	n := int(binary.LittleEndian.Uint32(b[marshal.HeaderSize:]))
	for i := 1; i <= n; i++ {
		p := b[i*marshal.SlotSize:]
		s.bindBuffer(Enum(binary.LittleEndian.Uint32(p)), binary.LittleEndian.Uint32(p[4:]))
	}
	return slots(cmd)
}

func (s *State) unmarshalBufferData(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	target, usage := Enum(d.Uint32()), Enum(d.Uint32())
	size := int(d.Uint32())
	data := d.Bytes()
	if len(data) == 0 {
		data = nil // allocate only
	}
	s.bufferData(target, size, data, usage)
	return slots(cmd)
}

func (s *State) unmarshalBufferSubData(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	target := Enum(d.Uint32())
	offset := int(d.Int32())
	s.bufferSubData(target, offset, d.Bytes())
	return slots(cmd)
}

func (s *State) unmarshalDeleteBuffers(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	ids := make([]uint32, d.Uint32())
	for i := range ids {
		ids[i] = d.Uint32()
	}
	s.deleteBuffers(ids)
	return slots(cmd)
}

func (s *State) unmarshalBindTexture(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	s.bindTexture(Enum(d.Uint32()), d.Uint32())
	return slots(cmd)
}

func (s *State) unmarshalTexParameteri(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	s.texParameteri(Enum(d.Uint32()), Enum(d.Uint32()), Enum(d.Uint32()))
	return slots(cmd)
}

func (s *State) unmarshalCompileShader(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	s.compileShader(d.Uint32(), d.Text())
	return slots(cmd)
}

func (s *State) unmarshalLinkProgram(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	id := d.Uint32()
	shaders := make([]uint32, d.Uint32())
	for i := range shaders {
		shaders[i] = d.Uint32()
	}
	s.linkProgram(id, shaders)
	return slots(cmd)
}

func (s *State) unmarshalUseProgram(cmd []uint64) int {
	s.useProgram(marshal.NewDecoder(cmd).Uint32())
	return slots(cmd)
}

func (s *State) unmarshalNewList(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	s.newList(d.Uint32(), Enum(d.Uint32()))
	return slots(cmd)
}

func (s *State) unmarshalEndList(cmd []uint64) int {
	s.endList()
	return slots(cmd)
}

// CallList records carry a count and then the list ids, packed from the
// second slot on.
func (s *State) unmarshalCallList(cmd []uint64) int {
	b := marshal.Bytes(cmd)
	n := int(binary.LittleEndian.Uint32(b[marshal.HeaderSize:]))
	for i := range n {
		s.callList(binary.LittleEndian.Uint32(b[marshal.SlotSize+i*4:]))
	}
	return slots(cmd)
}

func (s *State) unmarshalBlitFramebuffer(cmd []uint64) int {
	d := marshal.NewDecoder(cmd)
	var v [8]int
	for i := range v {
		v[i] = int(d.Int32())
	}
	src := image.Rect(v[0], v[1], v[2], v[3])
	dst := image.Rect(v[4], v[5], v[6], v[7])
	s.blitFramebuffer(src, dst, Enum(d.Uint32()))
	return slots(cmd)
}

func (s *State) unmarshalDeleteShader(cmd []uint64) int {
	s.deleteShader(marshal.NewDecoder(cmd).Uint32())
	return slots(cmd)
}

func (s *State) unmarshalInternalSetError(cmd []uint64) int {
	s.setError(Enum(marshal.NewDecoder(cmd).Uint32()))
	return slots(cmd)
}
