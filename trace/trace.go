// Package trace records executed batches as a stream of msgpack values.
//
// A trace shows how recorded commands were grouped into batches, which
// batches ran on the worker and which were executed directly by a
// synchronizing call. Use ReadAll to load a trace back.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Record describes one executed batch.
type Record struct {
	// Engine is the id of the engine that executed the batch.
	Engine string `msgpack:"engine"`

	// Batch is the ring index of the batch.
	Batch int `msgpack:"batch"`

	// Seq is the engine-wide execution sequence number, starting at 1.
	Seq uint64 `msgpack:"seq"`

	// Slots is the number of 8-byte slots the batch used.
	Slots int `msgpack:"slots"`

	// Commands lists the command ids in execution order.
	Commands []uint16 `msgpack:"commands"`

	// Direct is true when the batch ran on the calling thread during a
	// finish instead of on the worker.
	Direct bool `msgpack:"direct"`
}

// Writer encodes records to an underlying writer.
//
// Thread safety: TraceBatch may be called from any goroutine.
type Writer struct {
	mu  sync.Mutex
	buf *bufio.Writer
	enc *msgpack.Encoder
	c   io.Closer
	err error
}

// NewWriter returns a Writer encoding to w.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	return &Writer{buf: buf, enc: msgpack.NewEncoder(buf)}
}

// Create creates or truncates the file at path and returns a Writer to it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	w := NewWriter(f)
	w.c = f
	return w, nil
}

// TraceBatch appends r to the trace. After the first write error all
// further records are dropped; the error is reported by Err and Close.
func (w *Writer) TraceBatch(r Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	if err := w.enc.Encode(&r); err != nil {
		w.err = fmt.Errorf("trace: encode batch %d: %w", r.Seq, err)
	}
}

// Err returns the first write error.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close flushes buffered records and closes the file opened by Create.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.err
	if ferr := w.buf.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("trace: flush: %w", ferr)
	}
	if w.c != nil {
		if cerr := w.c.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("trace: close: %w", cerr)
		}
		w.c = nil
	}
	return err
}

// ReadAll decodes every record from r.
func ReadAll(r io.Reader) ([]Record, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	var records []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("trace: decode record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// ReadFile decodes every record from the file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	defer f.Close()
	return ReadAll(f)
}
