// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package task

import (
	"sync"
	"sync/atomic"
)

// Priority selects the worker class a group's tasks run on.
type Priority uint32

const (
	// PriorityHigh runs pass recording and critical-path work.
	PriorityHigh Priority = iota

	// PriorityLow runs background asset and pipeline work.
	PriorityLow

	// PriorityStreaming runs single-threaded I/O.
	PriorityStreaming

	priorityCount
)

// Group tracks outstanding tasks submitted together. The zero value is
// not usable; create groups with NewGroup.
type Group struct {
	priority Priority
	pending  atomic.Int64

	mu     sync.Mutex
	panics []any
}

// NewGroup creates a task group bound to a priority class.
func NewGroup(priority Priority) *Group {
	return &Group{priority: priority}
}

// Priority returns the group's worker class.
func (g *Group) Priority() Priority { return g.priority }

// Pending returns the number of unfinished tasks.
func (g *Group) Pending() int64 { return g.pending.Load() }

func (g *Group) add(n int64) { g.pending.Add(n) }

func (g *Group) done() { g.pending.Add(-1) }

func (g *Group) capturePanic(v any) {
	g.mu.Lock()
	g.panics = append(g.panics, v)
	g.mu.Unlock()
}

// takePanic removes and returns the first captured panic, if any.
func (g *Group) takePanic() (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.panics) == 0 {
		return nil, false
	}
	v := g.panics[0]
	g.panics = g.panics[1:]
	return v, true
}

// ExecutionInfo describes one task invocation inside a dispatch.
type ExecutionInfo struct {
	// GlobalTaskIndex is the task's index across the whole dispatch.
	GlobalTaskIndex uint32

	// SubgroupID is the chunk this invocation belongs to.
	SubgroupID uint32

	// IndexInSubgroup is the task's index within its chunk.
	IndexInSubgroup uint32

	// FirstInSubgroup and LastInSubgroup frame chunk boundaries, for
	// handlers that amortize per-chunk setup.
	FirstInSubgroup bool
	LastInSubgroup  bool
}

// Handler is a task body.
type Handler func(ExecutionInfo)
