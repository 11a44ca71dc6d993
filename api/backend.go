// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

// Uploader mirrors buffer object storage into GPU memory. Its methods run
// on whichever thread executes the command, with the State locks held.
type Uploader interface {
	// AllocBuffer (re)creates the storage of buffer id with size bytes.
	AllocBuffer(id uint32, size int) error

	// WriteBuffer copies data into buffer id at offset.
	WriteBuffer(id uint32, offset int, data []byte) error

	// FreeBuffer releases the storage of buffer id.
	FreeBuffer(id uint32)
}

// ShaderCreator turns compiled shaders into backend shader modules.
type ShaderCreator interface {
	CreateShaderModule(id uint32, label string, spirv []uint32) error
	DestroyShaderModule(id uint32)
}

// StateOption configures a State during creation.
type StateOption func(*State)

// WithFramebufferSize sets the size of the software framebuffer.
func WithFramebufferSize(width, height int) StateOption {
	return func(s *State) {
		s.width, s.height = max(width, 1), max(height, 1)
	}
}

// WithUploader mirrors buffer storage through u.
func WithUploader(u Uploader) StateOption {
	return func(s *State) {
		s.uploader = u
	}
}

// WithShaderCreator creates shader modules through c after compilation.
func WithShaderCreator(c ShaderCreator) StateOption {
	return func(s *State) {
		s.shaderCreator = c
	}
}
