// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cpu reports the last-level cache topology of the machine and
// controls the CPU affinity of OS threads.
//
// The offload engine uses it to keep its worker thread on the same L3
// cache domain as the application thread that records commands. On
// platforms without sysfs or sched_setaffinity the package reports a
// single unknown domain and pinning is skipped.
package cpu
