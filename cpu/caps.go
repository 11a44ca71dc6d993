// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// InvalidL3 marks a CPU whose last-level cache domain is unknown.
const InvalidL3 = -1

// Caps describes the cache topology of the machine.
type Caps struct {
	// NumCPUs is the number of logical CPUs found.
	NumCPUs int

	// NumL3Caches is the number of distinct L3 cache domains.
	// Zero when the topology could not be read.
	NumL3Caches int

	// CPUToL3 maps a logical CPU index to its L3 domain, or InvalidL3.
	CPUToL3 []int

	// L3Masks holds the CPUs sharing each L3 domain.
	L3Masks []Mask
}

// L3 returns the L3 domain of cpu, or InvalidL3.
func (c Caps) L3(cpu int) int {
	if cpu < 0 || cpu >= len(c.CPUToL3) {
		return InvalidL3
	}
	return c.CPUToL3[cpu]
}

// L3Mask returns the CPUs sharing the given L3 domain.
func (c Caps) L3Mask(cache int) Mask {
	if cache < 0 || cache >= len(c.L3Masks) {
		return Mask{}
	}
	return c.L3Masks[cache]
}

const cpuDir = "devices/system/cpu"

// DetectFS reads the cache topology from a sysfs tree rooted at fsys
// (normally os.DirFS("/sys")).
func DetectFS(fsys fs.FS) (Caps, error) {
	entries, err := fs.ReadDir(fsys, cpuDir)
	if err != nil {
		return Caps{}, fmt.Errorf("cpu: read %s: %w", cpuDir, err)
	}

	var ids []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "cpu") {
			continue
		}
		id, err := strconv.Atoi(name[len("cpu"):])
		if err != nil {
			continue // cpufreq, cpuidle, ...
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return Caps{}, fmt.Errorf("cpu: no cpus under %s", cpuDir)
	}
	sort.Ints(ids)

	caps := Caps{
		NumCPUs: len(ids),
		CPUToL3: make([]int, ids[len(ids)-1]+1),
	}
	for i := range caps.CPUToL3 {
		caps.CPUToL3[i] = InvalidL3
	}

	for _, id := range ids {
		shared, ok := l3SharedList(fsys, id)
		if !ok {
			continue
		}
		domain := InvalidL3
		for i, m := range caps.L3Masks {
			if m.Equal(shared) {
				domain = i
				break
			}
		}
		if domain == InvalidL3 {
			domain = len(caps.L3Masks)
			caps.L3Masks = append(caps.L3Masks, shared)
		}
		caps.CPUToL3[id] = domain
	}
	caps.NumL3Caches = len(caps.L3Masks)
	return caps, nil
}

// l3SharedList returns the shared_cpu_list of the level 3 cache of cpu.
func l3SharedList(fsys fs.FS, cpu int) (Mask, bool) {
	for index := 0; ; index++ {
		dir := path.Join(cpuDir, "cpu"+strconv.Itoa(cpu), "cache", "index"+strconv.Itoa(index))
		level, err := fs.ReadFile(fsys, path.Join(dir, "level"))
		if err != nil {
			return Mask{}, false
		}
		if strings.TrimSpace(string(level)) != "3" {
			continue
		}
		list, err := fs.ReadFile(fsys, path.Join(dir, "shared_cpu_list"))
		if err != nil {
			return Mask{}, false
		}
		m, err := ParseList(string(list))
		if err != nil || m.Count() == 0 {
			return Mask{}, false
		}
		return m, true
	}
}
