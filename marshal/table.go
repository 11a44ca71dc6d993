package marshal

import "fmt"

// UnmarshalFunc executes the record at the start of cmd and returns the
// number of slots it consumed.
type UnmarshalFunc func(cmd []uint64) int

type entry struct {
	name string
	fn   UnmarshalFunc
}

// Table maps command ids to their unmarshal functions. It is filled once
// at startup and read-only afterwards.
type Table struct {
	entries []entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Register binds id to fn.
//
// Register panics if fn is nil or id is already registered, so wiring
// mistakes surface during setup rather than mid-stream.
func (t *Table) Register(id CmdID, name string, fn UnmarshalFunc) {
	if fn == nil {
		panic("marshal: Register fn is nil for " + name)
	}
	for int(id) >= len(t.entries) {
		t.entries = append(t.entries, entry{})
	}
	if t.entries[id].fn != nil {
		panic(fmt.Sprintf("marshal: Register called twice for id %d (%s)", id, name))
	}
	t.entries[id] = entry{name: name, fn: fn}
}

// Name returns the registered name of id, or "Unknown".
func (t *Table) Name(id CmdID) string {
	if int(id) < len(t.entries) && t.entries[id].fn != nil {
		return t.entries[id].name
	}
	return "Unknown"
}

// Len returns one past the largest registered id.
func (t *Table) Len() int { return len(t.entries) }

// Execute runs the record at the start of cmd and returns the slots it
// consumed. It panics on an unregistered id: the stream is corrupt.
func (t *Table) Execute(cmd []uint64) int {
	h := ReadHeader(cmd)
	if int(h.ID) >= len(t.entries) || t.entries[h.ID].fn == nil {
		panic(fmt.Sprintf("marshal: unknown command id %d", h.ID))
	}
	return t.entries[h.ID].fn(cmd)
}
