// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import "sync"

// SystemTopology answers cache-domain queries for the running machine.
type SystemTopology struct {
	caps Caps
}

var (
	systemOnce sync.Once
	system     *SystemTopology
)

// System returns the topology of the running machine, detected once.
func System() *SystemTopology {
	systemOnce.Do(func() {
		system = &SystemTopology{caps: Detect()}
	})
	return system
}

// NewTopology wraps already detected caps.
func NewTopology(caps Caps) *SystemTopology {
	return &SystemTopology{caps: caps}
}

// Caps returns the detected cache topology.
func (t *SystemTopology) Caps() Caps { return t.caps }

// NumL3Caches returns the number of L3 domains.
func (t *SystemTopology) NumL3Caches() int { return t.caps.NumL3Caches }

// CurrentL3 returns the L3 domain of the CPU the calling thread runs on.
// The result is stale as soon as it is returned; the thread may migrate.
func (t *SystemTopology) CurrentL3() (int, bool) {
	l3 := t.caps.L3(CurrentCPU())
	return l3, l3 != InvalidL3
}

// L3Mask returns the CPUs sharing the given L3 domain.
func (t *SystemTopology) L3Mask(cache int) Mask { return t.caps.L3Mask(cache) }
