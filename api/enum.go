// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import "fmt"

// Enum is a GL enumerant.
type Enum uint32

// Errors.
const (
	NoError          Enum = 0
	InvalidEnum      Enum = 0x0500
	InvalidValue     Enum = 0x0501
	InvalidOperation Enum = 0x0502
	OutOfMemory      Enum = 0x0505
)

// Clear mask bits.
const (
	ColorBufferBit Enum = 0x4000
)

// Buffer targets and usages.
const (
	ArrayBuffer        Enum = 0x8892
	ElementArrayBuffer Enum = 0x8893
	UniformBuffer      Enum = 0x8A11

	StreamDraw  Enum = 0x88E0
	StaticDraw  Enum = 0x88E4
	DynamicDraw Enum = 0x88E8
)

// Textures.
const (
	Texture2D Enum = 0x0DE1

	TextureMagFilter Enum = 0x2800
	TextureMinFilter Enum = 0x2801
	TextureWrapS     Enum = 0x2802
	TextureWrapT     Enum = 0x2803

	Nearest     Enum = 0x2600
	Linear      Enum = 0x2601
	Repeat      Enum = 0x2901
	ClampToEdge Enum = 0x812F
)

// Display list modes.
const (
	Compile           Enum = 0x1300
	CompileAndExecute Enum = 0x1301
)

var enumNames = map[Enum]string{
	NoError:            "NO_ERROR",
	InvalidEnum:        "INVALID_ENUM",
	InvalidValue:       "INVALID_VALUE",
	InvalidOperation:   "INVALID_OPERATION",
	OutOfMemory:        "OUT_OF_MEMORY",
	ColorBufferBit:     "COLOR_BUFFER_BIT",
	ArrayBuffer:        "ARRAY_BUFFER",
	ElementArrayBuffer: "ELEMENT_ARRAY_BUFFER",
	UniformBuffer:      "UNIFORM_BUFFER",
	StreamDraw:         "STREAM_DRAW",
	StaticDraw:         "STATIC_DRAW",
	DynamicDraw:        "DYNAMIC_DRAW",
	Texture2D:          "TEXTURE_2D",
	TextureMagFilter:   "TEXTURE_MAG_FILTER",
	TextureMinFilter:   "TEXTURE_MIN_FILTER",
	TextureWrapS:       "TEXTURE_WRAP_S",
	TextureWrapT:       "TEXTURE_WRAP_T",
	Nearest:            "NEAREST",
	Linear:             "LINEAR",
	Repeat:             "REPEAT",
	ClampToEdge:        "CLAMP_TO_EDGE",
	Compile:            "COMPILE",
	CompileAndExecute:  "COMPILE_AND_EXECUTE",
}

// String returns the GL name of e, or its hex value.
func (e Enum) String() string {
	if name, ok := enumNames[e]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint32(e))
}

func validBufferTarget(t Enum) bool {
	return t == ArrayBuffer || t == ElementArrayBuffer || t == UniformBuffer
}

func validBufferUsage(u Enum) bool {
	return u == StreamDraw || u == StaticDraw || u == DynamicDraw
}

// texParamError returns the error TexParameteri raises for pname/param.
func texParamError(pname, param Enum) Enum {
	switch pname {
	case TextureMagFilter, TextureMinFilter:
		if param == Nearest || param == Linear {
			return NoError
		}
	case TextureWrapS, TextureWrapT:
		if param == Repeat || param == ClampToEdge {
			return NoError
		}
	}
	return InvalidEnum
}
