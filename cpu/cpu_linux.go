// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package cpu

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Detect reads the cache topology from /sys. On failure it returns caps
// with no L3 information, which disables cache-domain pinning.
func Detect() Caps {
	caps, err := DetectFS(os.DirFS("/sys"))
	if err != nil {
		return Caps{}
	}
	return caps
}

// CurrentCPU returns the CPU the calling thread is running on, or -1.
func CurrentCPU() int {
	var cpu, node uint32
	_, _, errno := unix.RawSyscall(unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return -1
	}
	return int(cpu)
}

// ThreadID returns the kernel id of the calling OS thread.
func ThreadID() int {
	return unix.Gettid()
}

// maxAffinityCPUs is CPU_SETSIZE, the capacity of unix.CPUSet.
const maxAffinityCPUs = 1024

// SetThreadAffinity restricts the thread tid to the CPUs in mask.
func SetThreadAffinity(tid int, mask Mask) error {
	if mask.Count() == 0 {
		return fmt.Errorf("cpu: empty affinity mask")
	}
	var set unix.CPUSet
	set.Zero()
	for _, c := range mask.CPUs() {
		if c >= maxAffinityCPUs {
			return fmt.Errorf("cpu: cpu %d exceeds affinity set size", c)
		}
		set.Set(c)
	}
	if err := unix.SchedSetaffinity(tid, &set); err != nil {
		return fmt.Errorf("cpu: sched_setaffinity(%d): %w", tid, err)
	}
	return nil
}
