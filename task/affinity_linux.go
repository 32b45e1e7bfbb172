// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package task

import "golang.org/x/sys/unix"

// pinThread binds the calling OS thread to one core. Failure is
// ignored: affinity is a scheduling hint, not a correctness
// requirement, and restricted environments (containers, cgroups) may
// refuse it.
func pinThread(core int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	_ = unix.SchedSetaffinity(0, &set)
}
