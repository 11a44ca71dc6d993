// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/glthread"
)

const testShaderWGSL = `
@compute @workgroup_size(1)
fn main() {
}
`

type testBackend struct{ supported bool }

func (b testBackend) Supports(glthread.Capability) bool { return b.supported }
func (testBackend) ContextLost() bool                    { return false }

func newTestContext(t *testing.T, enabled bool, opts ...glthread.Option) *Context {
	t.Helper()
	return newTestContextState(t, enabled, NewState(WithFramebufferSize(16, 16)), opts...)
}

func newTestContextState(t *testing.T, enabled bool, s *State, opts ...glthread.Option) *Context {
	t.Helper()
	e := glthread.New(testBackend{supported: enabled}, s, opts...)
	if got := e.Init(); got != enabled {
		t.Fatalf("Init() = %v, want %v", got, enabled)
	}
	t.Cleanup(func() { e.Destroy("test cleanup") })
	return NewContext(e, s)
}

// =============================================================================
// Enabled vs. direct execution
// =============================================================================

// workload exercises every command; it returns what it read back.
func workload(c *Context) []any {
	var out []any

	bufs := c.GenBuffers(2)
	c.BindBuffer(ArrayBuffer, bufs[0])
	c.BindBuffer(UniformBuffer, bufs[1])
	c.BufferData(ArrayBuffer, 64, nil, StaticDraw)
	c.BufferData(UniformBuffer, 4, []byte{1, 2, 3, 4}, DynamicDraw)
	for i := range 16 {
		c.BufferSubData(ArrayBuffer, i*4, []byte{byte(i), byte(i), byte(i), byte(i)})
	}
	c.BufferSubData(ArrayBuffer, 62, []byte{9, 9, 9}) // out of range
	out = append(out, c.GetError())
	out = append(out, c.GetBufferSubData(ArrayBuffer, 0, 64))

	c.BindTexture(Texture2D, 7)
	c.TexParameteri(Texture2D, TextureMinFilter, Nearest)
	c.TexParameteri(Texture2D, TextureWrapS, Linear) // invalid param
	out = append(out, c.GetTexParameteri(Texture2D, TextureMinFilter), c.GetError())

	vs := c.CreateShader()
	bad := c.CreateShader()
	c.CompileShader(vs, testShaderWGSL)
	c.CompileShader(bad, "this is not wgsl")
	good, broken := c.CreateProgram(), c.CreateProgram()
	c.LinkProgram(good, vs)
	c.LinkProgram(broken, vs, bad)
	ok1, _ := c.GetProgramLinkStatus(good)
	ok2, _ := c.GetProgramLinkStatus(broken)
	out = append(out, ok1, ok2)
	c.UseProgram(broken)
	out = append(out, c.GetError())

	c.NewList(1, Compile)
	c.ClearColor(0, 0, 1, 1)
	c.Clear(ColorBufferBit)
	c.EndList()
	c.NewList(2, CompileAndExecute)
	c.CallList(1)
	c.EndList()
	out = append(out, c.IsList(1), c.IsList(2), c.IsList(3))

	c.ClearColor(1, 0, 0, 1)
	c.Clear(ColorBufferBit)
	c.CallList(1)
	c.ClearColor(0, 1, 0, 1)
	c.BlitFramebuffer(image.Rect(0, 0, 2, 2), image.Rect(4, 4, 12, 12), Nearest)
	c.DeleteBuffers(bufs[0])
	c.BufferSubData(ArrayBuffer, 0, []byte{1})
	out = append(out, c.GetError(), c.GetClearColor())
	out = append(out, c.ReadPixels(0, 0, 16, 16).Pix)
	return out
}

func TestContext_DisabledMatchesEnabled(t *testing.T) {
	direct := workload(newTestContext(t, false))
	offloaded := workload(newTestContext(t, true, glthread.WithBatchSize(128), glthread.WithBatchCount(3)))
	sync := workload(newTestContext(t, true, glthread.WithSynchronous(true)))

	if len(direct) != len(offloaded) {
		t.Fatalf("result count %d vs %d", len(direct), len(offloaded))
	}
	for i := range direct {
		if !equal(direct[i], offloaded[i]) {
			t.Errorf("result %d: direct %v, offloaded %v", i, direct[i], offloaded[i])
		}
		if !equal(direct[i], sync[i]) {
			t.Errorf("result %d: direct %v, synchronous %v", i, direct[i], sync[i])
		}
	}
}

func equal(a, b any) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	return a == b
}

func TestContext_WorkloadResults(t *testing.T) {
	got := workload(newTestContext(t, true))

	if got[0] != InvalidValue {
		t.Errorf("out-of-range BufferSubData error = %v, want INVALID_VALUE", got[0])
	}
	data := got[1].([]byte)
	if data[5] != 1 || data[63] != 15 {
		t.Errorf("buffer contents = %v", data)
	}
	if got[2] != Nearest || got[3] != InvalidEnum {
		t.Errorf("tex param = %v, error = %v", got[2], got[3])
	}
	if got[4] != true || got[5] != false {
		t.Errorf("link status = %v, %v, want true, false", got[4], got[5])
	}
	if got[6] != InvalidOperation {
		t.Errorf("UseProgram(unlinked) error = %v, want INVALID_OPERATION", got[6])
	}
	if got[7] != true || got[8] != true || got[9] != false {
		t.Errorf("IsList = %v %v %v", got[7], got[8], got[9])
	}
	if got[10] != InvalidOperation {
		t.Errorf("BufferSubData after delete error = %v, want INVALID_OPERATION", got[10])
	}
	if got[11] != [4]float32{0, 1, 0, 1} {
		t.Errorf("clear color = %v", got[11])
	}

	// The display list cleared to blue after the red clear.
	pix := got[12].([]byte)
	if c := (color.RGBA{pix[0], pix[1], pix[2], pix[3]}); c != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel (0,0) = %v, want blue", c)
	}
}

// =============================================================================
// Merging
// =============================================================================

func TestContext_BindBufferMerge(t *testing.T) {
	c := newTestContext(t, true)
	bufs := c.GenBuffers(3)

	c.BindBuffer(ArrayBuffer, bufs[0])
	c.BindBuffer(ElementArrayBuffer, bufs[1])
	c.BindBuffer(UniformBuffer, bufs[2])
	if got := c.Engine().Pending(); got != 1 {
		t.Errorf("Pending() = %d after 3 binds, want 1 merged record", got)
	}
	if got := c.Engine().Used(); got != 32 {
		t.Errorf("Used() = %d, want 32", got)
	}

	c.BindBuffer(ArrayBuffer, bufs[2])
	c.BindBuffer(ArrayBuffer, 0) // fifth binding starts a new record
	if got := c.Engine().Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}

	c.Finish()
	s := c.State()
	s.Lock()
	defer s.Unlock()
	if s.bindings[ArrayBuffer] != 0 || s.bindings[ElementArrayBuffer] != bufs[1] || s.bindings[UniformBuffer] != bufs[2] {
		t.Errorf("bindings = %v", s.bindings)
	}
}

func TestContext_BindBufferNoMergeAcrossCommands(t *testing.T) {
	c := newTestContext(t, true)
	bufs := c.GenBuffers(2)
	c.BindBuffer(ArrayBuffer, bufs[0])
	c.ClearColor(1, 1, 1, 1)
	c.BindBuffer(ArrayBuffer, bufs[1])
	if got := c.Engine().Pending(); got != 3 {
		t.Errorf("Pending() = %d, want 3", got)
	}
}

func TestContext_CallListMerge(t *testing.T) {
	c := newTestContext(t, true)
	c.NewList(1, Compile)
	c.ClearColor(0.5, 0.5, 0.5, 1)
	c.EndList()
	c.Flush()

	for range 5 {
		c.CallList(1)
	}
	if got := c.Engine().Pending(); got != 1 {
		t.Errorf("Pending() = %d after 5 CallList, want 1", got)
	}
	// Header+count slot plus three slots for five ids.
	if got := c.Engine().Used(); got != 32 {
		t.Errorf("Used() = %d, want 32", got)
	}
	c.Finish()
	if got := c.GetClearColor(); got != [4]float32{0.5, 0.5, 0.5, 1} {
		t.Errorf("GetClearColor() = %v", got)
	}
}

// =============================================================================
// Large records
// =============================================================================

func TestContext_BufferDataLargerThanBatch(t *testing.T) {
	for _, size := range []int{1024, 600 * 1024} {
		c := newTestContext(t, true, glthread.WithBatchSize(256))
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i * 7)
		}
		buf := c.GenBuffers(1)[0]
		c.BindBuffer(ArrayBuffer, buf)
		c.BufferData(ArrayBuffer, len(data), data, StaticDraw)
		c.BufferSubData(ArrayBuffer, 10, data[:size-10])

		want := append(append([]byte(nil), data[:10]...), data[:size-10]...)
		if got := c.GetBufferSubData(ArrayBuffer, 0, size); !bytes.Equal(got, want) {
			t.Errorf("size %d: buffer contents differ", size)
		}
		if e := c.GetError(); e != NoError {
			t.Errorf("size %d: GetError() = %v", size, e)
		}
	}
}

func TestContext_ValuesOutsideRecordFields(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		c := newTestContext(t, enabled)
		buf := c.GenBuffers(1)[0]
		c.BindBuffer(ArrayBuffer, buf)
		c.BufferData(ArrayBuffer, 8, make([]byte, 8), StaticDraw)

		c.BufferSubData(ArrayBuffer, 1<<32, []byte{0xAA, 0xBB})
		if e := c.GetError(); e != InvalidValue {
			t.Errorf("enabled=%v: BufferSubData(1<<32) error = %v, want INVALID_VALUE", enabled, e)
		}
		if got := c.GetBufferSubData(ArrayBuffer, 0, 8); !bytes.Equal(got, make([]byte, 8)) {
			t.Errorf("enabled=%v: buffer = %v, want unchanged", enabled, got)
		}

		c.BufferData(ArrayBuffer, 1<<32, nil, StaticDraw)
		if e := c.GetError(); e != InvalidValue {
			t.Errorf("enabled=%v: BufferData(1<<32) error = %v, want INVALID_VALUE", enabled, e)
		}
		if got := c.GetBufferSubData(ArrayBuffer, 0, 8); len(got) != 8 {
			t.Errorf("enabled=%v: buffer size changed, got %d bytes", enabled, len(got))
		}

		before := append([]byte(nil), c.ReadPixels(0, 0, 16, 16).Pix...)
		c.ClearColor(1, 1, 1, 1)
		c.BlitFramebuffer(image.Rect(0, 0, 1, 1), image.Rect(0, 0, 1<<32, 2), Nearest)
		if e := c.GetError(); e != InvalidValue {
			t.Errorf("enabled=%v: BlitFramebuffer error = %v, want INVALID_VALUE", enabled, e)
		}
		if got := c.ReadPixels(0, 0, 16, 16).Pix; !bytes.Equal(got, before) {
			t.Errorf("enabled=%v: framebuffer changed by a rejected blit", enabled)
		}
	}
}

// =============================================================================
// Synchronization and lifecycle
// =============================================================================

func TestContext_ProgramLinkWaitsOnlyForMark(t *testing.T) {
	c := newTestContext(t, true)
	sh := c.CreateShader()
	p := c.CreateProgram()
	c.CompileShader(sh, testShaderWGSL)
	c.LinkProgram(p, sh)
	c.Flush()
	c.ClearColor(1, 1, 1, 1) // recorded after the link

	if ok, log := c.GetProgramLinkStatus(p); !ok {
		t.Errorf("GetProgramLinkStatus() = false, log %q", log)
	}
	if c.Engine().Pending() != 1 {
		t.Error("GetProgramLinkStatus flushed an unrelated batch")
	}
}

func TestContext_DirectLinkLeavesNoMark(t *testing.T) {
	c := newTestContext(t, true, glthread.WithBatchSize(64))
	sh := c.CreateShader()
	p := c.CreateProgram()
	c.CompileShader(sh, testShaderWGSL)

	// Too large for a 64-byte batch, so it executes directly.
	shaders := make([]uint32, 20)
	for i := range shaders {
		shaders[i] = sh
	}
	c.LinkProgram(p, shaders...)
	c.ClearColor(1, 1, 1, 1)

	if ok, log := c.GetProgramLinkStatus(p); !ok {
		t.Errorf("GetProgramLinkStatus() = false, log %q", log)
	}
	if c.Engine().Pending() != 1 {
		t.Error("GetProgramLinkStatus flushed a batch that links no program")
	}
}

func TestContext_ShaderCompileLog(t *testing.T) {
	c := newTestContext(t, true)
	sh := c.CreateShader()
	c.CompileShader(sh, "fn (")
	ok, log := c.GetShaderCompileStatus(sh)
	if ok || log == "" {
		t.Errorf("GetShaderCompileStatus() = %v, %q, want failure with a log", ok, log)
	}
	c.CompileShader(999, testShaderWGSL)
	if e := c.GetError(); e != InvalidValue {
		t.Errorf("CompileShader(unknown) error = %v, want INVALID_VALUE", e)
	}
}

func TestContext_ErrorOrder(t *testing.T) {
	c := newTestContext(t, true)
	c.BindBuffer(Enum(0x1234), 1) // client-side INVALID_ENUM
	c.BufferData(ArrayBuffer, -1, nil, StaticDraw)
	c.BufferSubData(ArrayBuffer, 0, []byte{1})

	if e := c.GetError(); e != InvalidEnum {
		t.Errorf("GetError() = %v, want INVALID_ENUM (first error)", e)
	}
	if e := c.GetError(); e != NoError {
		t.Errorf("second GetError() = %v, want NO_ERROR", e)
	}
}

func TestContext_ListErrors(t *testing.T) {
	c := newTestContext(t, true)
	c.NewList(0, Compile)
	if e := c.GetError(); e != InvalidValue {
		t.Errorf("NewList(0) error = %v", e)
	}
	c.EndList()
	if e := c.GetError(); e != InvalidOperation {
		t.Errorf("EndList without NewList error = %v", e)
	}
	c.NewList(1, Compile)
	c.NewList(2, Compile)
	c.EndList()
	if e := c.GetError(); e != InvalidOperation {
		t.Errorf("nested NewList error = %v", e)
	}
	if c.IsList(2) || !c.IsList(1) {
		t.Error("only list 1 should exist")
	}
}

func TestContext_RecursiveListTerminates(t *testing.T) {
	c := newTestContext(t, true)
	c.NewList(1, Compile)
	c.CallList(1)
	c.EndList()
	c.CallList(1)
	c.Finish()
	if e := c.GetError(); e != NoError {
		t.Errorf("GetError() = %v", e)
	}
}

func TestContext_BlitScales(t *testing.T) {
	s := NewState(WithFramebufferSize(16, 16))
	s.fb.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})
	c := newTestContextState(t, true, s)

	c.BlitFramebuffer(image.Rect(0, 0, 1, 1), image.Rect(8, 8, 12, 12), Nearest)
	c.BlitFramebuffer(image.Rect(0, 0, 1, 1), image.Rect(0, 8, 2, 10), Enum(0))
	img := c.ReadPixels(0, 0, 16, 16)
	if got := img.RGBAAt(11, 11); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel (11,11) = %v, want white", got)
	}
	if got := img.RGBAAt(12, 12); got != (color.RGBA{}) {
		t.Errorf("pixel (12,12) = %v, want untouched", got)
	}
	if e := c.GetError(); e != InvalidEnum {
		t.Errorf("bad filter error = %v, want INVALID_ENUM", e)
	}
}

func TestContext_EngineDestroyedMidStream(t *testing.T) {
	c := newTestContext(t, true, glthread.WithBatchSize(64))
	for range 20 {
		c.ClearColor(0.25, 0.25, 0.25, 1)
	}
	c.Engine().Destroy("test")
	if c.Engine().Enabled() {
		t.Fatal("engine still enabled")
	}

	c.ClearColor(1, 0, 0, 1)
	c.Clear(ColorBufferBit)
	if got := c.ReadPixels(3, 3, 1, 1).RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel after destroy = %v, want red", got)
	}
}

// =============================================================================
// Backends
// =============================================================================

type fakeUploader struct {
	sizes  map[uint32]int
	writes int
	freed  []uint32
	fail   bool
}

func (u *fakeUploader) AllocBuffer(id uint32, size int) error {
	if u.fail {
		return errors.New("no memory")
	}
	u.sizes[id] = size
	return nil
}

func (u *fakeUploader) WriteBuffer(id uint32, offset int, data []byte) error {
	if offset+len(data) > u.sizes[id] {
		return errors.New("write out of range")
	}
	u.writes++
	return nil
}

func (u *fakeUploader) FreeBuffer(id uint32) {
	delete(u.sizes, id)
	u.freed = append(u.freed, id)
}

type fakeShaderCreator struct {
	modules map[uint32]int
}

func (f *fakeShaderCreator) CreateShaderModule(id uint32, _ string, spirv []uint32) error {
	f.modules[id] = len(spirv)
	return nil
}

func (f *fakeShaderCreator) DestroyShaderModule(id uint32) { delete(f.modules, id) }

func TestState_Uploader(t *testing.T) {
	u := &fakeUploader{sizes: map[uint32]int{}}
	c := newTestContextState(t, true, NewState(WithUploader(u)))

	buf := c.GenBuffers(1)[0]
	c.BindBuffer(ArrayBuffer, buf)
	c.BufferData(ArrayBuffer, 8, make([]byte, 8), StaticDraw)
	c.BufferSubData(ArrayBuffer, 4, []byte{1, 2, 3, 4})
	c.DeleteBuffers(buf)
	c.Finish()

	if u.writes != 2 {
		t.Errorf("writes = %d, want 2", u.writes)
	}
	if len(u.freed) != 1 || u.freed[0] != buf {
		t.Errorf("freed = %v, want [%d]", u.freed, buf)
	}

	u.fail = true
	buf = c.GenBuffers(1)[0]
	c.BindBuffer(ArrayBuffer, buf)
	c.BufferData(ArrayBuffer, 8, nil, StaticDraw)
	if e := c.GetError(); e != OutOfMemory {
		t.Errorf("GetError() = %v, want OUT_OF_MEMORY", e)
	}
}

func TestState_ShaderCreator(t *testing.T) {
	sc := &fakeShaderCreator{modules: map[uint32]int{}}
	c := newTestContextState(t, true, NewState(WithShaderCreator(sc)))

	sh := c.CreateShader()
	c.CompileShader(sh, testShaderWGSL)
	if ok, log := c.GetShaderCompileStatus(sh); !ok {
		t.Fatalf("compile failed: %s", log)
	}
	if sc.modules[sh] == 0 {
		t.Error("shader module not created from SPIR-V")
	}

	c.DeleteShader(sh)
	c.Finish()
	if _, ok := sc.modules[sh]; ok {
		t.Error("DeleteShader did not destroy the shader module")
	}
	c.DeleteShader(sh)
	if e := c.GetError(); e != InvalidValue {
		t.Errorf("DeleteShader(deleted) error = %v, want INVALID_VALUE", e)
	}
	c.DeleteShader(0)
	if e := c.GetError(); e != NoError {
		t.Errorf("DeleteShader(0) error = %v, want NO_ERROR", e)
	}
}

func TestCommandNames(t *testing.T) {
	for id := CmdClearColor; id < numCommands; id++ {
		if CommandName(uint16(id)) == "Unknown" {
			t.Errorf("command %d has no name", id)
		}
	}
	if CommandName(0) != "Unknown" || CommandName(uint16(numCommands)) != "Unknown" {
		t.Error("out-of-range ids should be Unknown")
	}
}

func TestEnumString(t *testing.T) {
	if got := InvalidEnum.String(); got != "INVALID_ENUM" {
		t.Errorf("String() = %q", got)
	}
	if got := Enum(0x1234).String(); got != "0x1234" {
		t.Errorf("String() = %q", got)
	}
}
