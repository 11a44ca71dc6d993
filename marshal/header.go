package marshal

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// CmdID identifies a command type. It indexes the dispatch Table.
type CmdID uint16

const (
	// SlotSize is the size of one buffer slot in bytes.
	SlotSize = 8

	// HeaderSize is the size of the record header in bytes.
	HeaderSize = 4

	// MaxCmdSlots is the largest record size the header can describe.
	MaxCmdSlots = math.MaxUint16
)

// Header is the decoded record header.
type Header struct {
	ID    CmdID
	Slots int
}

// Slots returns the number of slots needed for a record whose header and
// payload together take size bytes.
func Slots(size int) int {
	return (size + SlotSize - 1) / SlotSize
}

// Bytes views a slot buffer as bytes.
func Bytes(cmd []uint64) []byte {
	if len(cmd) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(cmd))), len(cmd)*SlotSize)
}

// PutHeader writes the header of a record of the given size in slots.
func PutHeader(cmd []uint64, id CmdID, slots int) {
	b := Bytes(cmd)
	binary.LittleEndian.PutUint16(b[0:], uint16(id))
	binary.LittleEndian.PutUint16(b[2:], uint16(slots))
}

// ReadHeader decodes the header at the start of cmd.
func ReadHeader(cmd []uint64) Header {
	b := Bytes(cmd)
	return Header{
		ID:    CmdID(binary.LittleEndian.Uint16(b[0:])),
		Slots: int(binary.LittleEndian.Uint16(b[2:])),
	}
}
