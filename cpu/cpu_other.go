// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package cpu

import (
	"bytes"
	"errors"
	"runtime"
	"strconv"
)

// ErrUnsupported is returned by SetThreadAffinity on platforms without
// per-thread affinity control.
var ErrUnsupported = errors.New("cpu: thread affinity not supported on " + runtime.GOOS)

// Detect returns caps with no L3 information.
func Detect() Caps {
	return Caps{NumCPUs: runtime.NumCPU()}
}

// CurrentCPU is unknown on this platform.
func CurrentCPU() int { return -1 }

// ThreadID returns the id of the calling goroutine. Callers lock their
// goroutine to its thread, so the goroutine id identifies the thread.
func ThreadID() int {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.Atoi(string(b))
	if err != nil {
		return -1
	}
	return id
}

// SetThreadAffinity is not supported on this platform.
func SetThreadAffinity(int, Mask) error { return ErrUnsupported }
