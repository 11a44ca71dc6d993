package marshal

import (
	"encoding/binary"
	"math"
)

// Encoder writes a record payload after its header.
// It panics if the record is too small for what is written; record sizes
// are computed by the caller before allocation.
type Encoder struct {
	buf []byte
	off int
}

// NewEncoder returns an encoder positioned right after the header of cmd.
func NewEncoder(cmd []uint64) *Encoder {
	return &Encoder{buf: Bytes(cmd), off: HeaderSize}
}

// Offset returns the byte offset of the next write.
func (e *Encoder) Offset() int { return e.off }

// PutUint32 writes v.
func (e *Encoder) PutUint32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[e.off:], v)
	e.off += 4
}

// PutInt32 writes v.
func (e *Encoder) PutInt32(v int32) { e.PutUint32(uint32(v)) }

// PutFloat32 writes v.
func (e *Encoder) PutFloat32(v float32) { e.PutUint32(math.Float32bits(v)) }

// PutBytes writes a length-prefixed byte slice.
func (e *Encoder) PutBytes(p []byte) {
	e.PutUint32(uint32(len(p)))
	e.off += copy(e.buf[e.off:e.off+len(p)], p)
}

// PutString writes a length-prefixed string.
func (e *Encoder) PutString(s string) {
	e.PutUint32(uint32(len(s)))
	e.off += copy(e.buf[e.off:e.off+len(s)], s)
}

// Decoder reads a record payload after its header.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a decoder positioned right after the header of cmd.
func NewDecoder(cmd []uint64) *Decoder {
	return &Decoder{buf: Bytes(cmd), off: HeaderSize}
}

// Uint32 reads a uint32.
func (d *Decoder) Uint32() uint32 {
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

// Int32 reads an int32.
func (d *Decoder) Int32() int32 { return int32(d.Uint32()) }

// Float32 reads a float32.
func (d *Decoder) Float32() float32 { return math.Float32frombits(d.Uint32()) }

// Bytes reads a length-prefixed byte slice. The result aliases the record.
func (d *Decoder) Bytes() []byte {
	n := int(d.Uint32())
	p := d.buf[d.off : d.off+n : d.off+n]
	d.off += n
	return p
}

// Text reads a length-prefixed string.
func (d *Decoder) Text() string {
	return string(d.Bytes())
}

// SizeUint32 is the encoded size of a uint32, int32 or float32.
const SizeUint32 = 4

// SizeBytes returns the encoded size of a length-prefixed payload of n bytes.
func SizeBytes(n int) int { return 4 + n }
