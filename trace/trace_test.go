package trace

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriterReadAll(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	want := []Record{
		{Engine: "e1", Batch: 0, Seq: 1, Slots: 8, Commands: []uint16{1, 2}},
		{Engine: "e1", Batch: 1, Seq: 2, Slots: 4, Commands: []uint16{3}, Direct: true},
	}
	for _, r := range want {
		w.TraceBatch(r)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadAll() = %+v, want %+v", got, want)
	}
}

func TestReadAllEmpty(t *testing.T) {
	got, err := ReadAll(bytes.NewReader(nil))
	if err != nil || len(got) != 0 {
		t.Errorf("ReadAll(empty) = %v, %v; want no records, nil", got, err)
	}
}

func TestReadAllTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.TraceBatch(Record{Engine: "e", Seq: 1, Commands: []uint16{1, 2, 3}})
	_ = w.Close()

	data := buf.Bytes()[:buf.Len()-2]
	if _, err := ReadAll(bytes.NewReader(data)); err == nil {
		t.Error("ReadAll of truncated trace expected error")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterStickyError(t *testing.T) {
	w := NewWriter(failWriter{})
	w.TraceBatch(Record{Seq: 1})
	if err := w.Close(); err == nil {
		t.Error("Close() should report the flush error")
	}
}

func TestCreateReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batches.trace")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w.TraceBatch(Record{Engine: "x", Batch: 3, Seq: 1, Slots: 2, Commands: []uint16{9}})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	recs, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Batch != 3 || recs[0].Commands[0] != 9 {
		t.Errorf("ReadFile() = %+v", recs)
	}
}
