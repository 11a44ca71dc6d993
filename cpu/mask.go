// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Mask is a set of logical CPU indexes.
// The zero value is an empty mask.
type Mask struct {
	words []uint64
}

// NewMask returns a mask with the given CPUs set.
func NewMask(cpus ...int) Mask {
	var m Mask
	for _, c := range cpus {
		m.Set(c)
	}
	return m
}

// Set adds cpu to the mask. Negative indexes are ignored.
func (m *Mask) Set(cpu int) {
	if cpu < 0 {
		return
	}
	w := cpu / 64
	for len(m.words) <= w {
		m.words = append(m.words, 0)
	}
	m.words[w] |= 1 << (uint(cpu) % 64)
}

// IsSet reports whether cpu is in the mask.
func (m Mask) IsSet(cpu int) bool {
	if cpu < 0 {
		return false
	}
	w := cpu / 64
	if w >= len(m.words) {
		return false
	}
	return m.words[w]&(1<<(uint(cpu)%64)) != 0
}

// Count returns the number of CPUs in the mask.
func (m Mask) Count() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// CPUs returns the CPU indexes in ascending order.
func (m Mask) CPUs() []int {
	cpus := make([]int, 0, m.Count())
	for i, w := range m.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			cpus = append(cpus, i*64+b)
			w &= w - 1
		}
	}
	return cpus
}

// Equal reports whether both masks hold the same CPUs.
func (m Mask) Equal(o Mask) bool {
	n := max(len(m.words), len(o.words))
	for i := range n {
		var a, b uint64
		if i < len(m.words) {
			a = m.words[i]
		}
		if i < len(o.words) {
			b = o.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// String formats the mask in the kernel's cpu list syntax, e.g. "0-3,8".
func (m Mask) String() string {
	cpus := m.CPUs()
	var sb strings.Builder
	for i := 0; i < len(cpus); {
		j := i
		for j+1 < len(cpus) && cpus[j+1] == cpus[j]+1 {
			j++
		}
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(cpus[i]))
		if j > i {
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(cpus[j]))
		}
		i = j + 1
	}
	return sb.String()
}

// ParseList parses the kernel's cpu list syntax ("0-3,8,10-11").
// Surrounding whitespace is ignored and an empty list yields an empty mask.
func ParseList(s string) (Mask, error) {
	var m Mask
	s = strings.TrimSpace(s)
	if s == "" {
		return m, nil
	}
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil || first < 0 {
			return Mask{}, fmt.Errorf("cpu: invalid cpu list %q", s)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(hi)
			if err != nil || last < first {
				return Mask{}, fmt.Errorf("cpu: invalid cpu range %q", part)
			}
		}
		for c := first; c <= last; c++ {
			m.Set(c)
		}
	}
	return m, nil
}
