// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import "github.com/gogpu/glthread/marshal"

// Command ids. Zero is never a valid id so a zeroed slot cannot decode.
const (
	CmdClearColor marshal.CmdID = iota + 1
	CmdClear
	CmdBindBuffer
	CmdBufferData
	CmdBufferSubData
	CmdDeleteBuffers
	CmdBindTexture
	CmdTexParameteri
	CmdCompileShader
	CmdLinkProgram
	CmdUseProgram
	CmdNewList
	CmdEndList
	CmdCallList
	CmdBlitFramebuffer
	CmdDeleteShader
	CmdInternalSetError

	numCommands
)

// commandNames maps command ids to the entry point that records them.
var commandNames = [numCommands]string{
	CmdClearColor:       "ClearColor",
	CmdClear:            "Clear",
	CmdBindBuffer:       "BindBuffer",
	CmdBufferData:       "BufferData",
	CmdBufferSubData:    "BufferSubData",
	CmdDeleteBuffers:    "DeleteBuffers",
	CmdBindTexture:      "BindTexture",
	CmdTexParameteri:    "TexParameteri",
	CmdCompileShader:    "CompileShader",
	CmdLinkProgram:      "LinkProgram",
	CmdUseProgram:       "UseProgram",
	CmdNewList:          "NewList",
	CmdEndList:          "EndList",
	CmdCallList:         "CallList",
	CmdBlitFramebuffer:  "BlitFramebuffer",
	CmdDeleteShader:     "DeleteShader",
	CmdInternalSetError: "InternalSetError",
}

// listable marks the commands a display list records. Object creation and
// buffer commands always execute immediately, as in GL.
var listable = [numCommands]bool{
	CmdClearColor:      true,
	CmdClear:           true,
	CmdBindTexture:     true,
	CmdTexParameteri:   true,
	CmdUseProgram:      true,
	CmdCallList:        true,
	CmdBlitFramebuffer: true,
}

// CommandName returns the name of command id, or "Unknown".
func CommandName(id uint16) string {
	if id > 0 && int(id) < len(commandNames) {
		return commandNames[id]
	}
	return "Unknown"
}

func isListable(id marshal.CmdID) bool {
	return int(id) < len(listable) && listable[id]
}

// Record sizes in bytes, header included.
const (
	sizeClearColor      = marshal.HeaderSize + 4*marshal.SizeUint32
	sizeClear           = marshal.HeaderSize + marshal.SizeUint32
	sizeBindTexture     = marshal.HeaderSize + 2*marshal.SizeUint32
	sizeTexParameteri   = marshal.HeaderSize + 3*marshal.SizeUint32
	sizeUseProgram      = marshal.HeaderSize + marshal.SizeUint32
	sizeNewList         = marshal.HeaderSize + 2*marshal.SizeUint32
	sizeEndList         = marshal.HeaderSize
	sizeBlitFramebuffer = marshal.HeaderSize + 9*marshal.SizeUint32
	sizeDeleteShader    = marshal.HeaderSize + marshal.SizeUint32
	sizeSetError        = marshal.HeaderSize + marshal.SizeUint32

	// BindBuffer: header, binding count, then one slot per binding.
	sizeBindBuffer = marshal.SlotSize + marshal.SlotSize

	// CallList: header, list count, then list ids packed two per slot.
	sizeCallList = marshal.SlotSize + marshal.SlotSize
)

// maxMergedBindings bounds how many BindBuffer calls share one record.
const maxMergedBindings = 4

func sizeBufferData(n int) int {
	return marshal.HeaderSize + 3*marshal.SizeUint32 + marshal.SizeBytes(n)
}

func sizeBufferSubData(n int) int {
	return marshal.HeaderSize + 2*marshal.SizeUint32 + marshal.SizeBytes(n)
}

func sizeDeleteBuffers(n int) int {
	return marshal.HeaderSize + marshal.SizeUint32 + n*marshal.SizeUint32
}

func sizeCompileShader(n int) int {
	return marshal.HeaderSize + marshal.SizeUint32 + marshal.SizeBytes(n)
}

func sizeLinkProgram(n int) int {
	return marshal.HeaderSize + 2*marshal.SizeUint32 + n*marshal.SizeUint32
}
