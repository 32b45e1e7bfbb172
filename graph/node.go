// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/types"
)

// PassType selects the hardware queue a pass executes on.
type PassType uint32

const (
	// PassGraphics executes on the graphics queue.
	PassGraphics PassType = iota

	// PassCompute executes on the async compute queue.
	PassCompute
)

// QueueIndex returns the queue index a pass of this type is assigned.
func (t PassType) QueueIndex() uint32 {
	return uint32(t)
}

// QueueType returns the RHI queue for this pass type.
func (t PassType) QueueType() types.QueueType {
	return types.QueueType(t)
}

// PassInfo identifies a pass to the compiler.
type PassInfo struct {
	Name     name.Name
	Pipeline name.Name
	Type     PassType
}

// InvalidSyncIndex marks a queue the node has no synchronization
// point with.
const InvalidSyncIndex = ^uint32(0)

// Node is one pass in the graph. Cross-references are indices into the
// owning graph's node slice.
type Node struct {
	info PassInfo

	readViews    ViewNameSet
	writtenViews ViewNameSet
	allViews     ViewNameSet

	index           uint32
	globalExecIndex uint32
	levelLocalIndex uint32
	queueLocalIndex uint32
	levelIndex      uint32
	queueIndex      uint32

	// syncIndices[q] is the queue-local exec index on queue q this node
	// is known to be synchronized against, directly or transitively.
	syncIndices []uint32

	syncSignalRequired bool
	nodesToSyncWith    []uint32

	useRayTracing bool
}

// Info returns the pass identity.
func (n *Node) Info() PassInfo { return n.info }

// ReadViews returns the set of views the pass reads.
func (n *Node) ReadViews() ViewNameSet { return n.readViews }

// WrittenViews returns the set of views the pass writes.
func (n *Node) WrittenViews() ViewNameSet { return n.writtenViews }

// AllViews returns the union of read and written views.
func (n *Node) AllViews() ViewNameSet { return n.allViews }

// Index returns the node's index in the unordered node array.
func (n *Node) Index() uint32 { return n.index }

// GlobalExecIndex returns the node's position in global execution
// order. Valid after Build.
func (n *Node) GlobalExecIndex() uint32 { return n.globalExecIndex }

// QueueLocalExecIndex returns the node's position within its queue.
// Valid after Build.
func (n *Node) QueueLocalExecIndex() uint32 { return n.queueLocalIndex }

// DependencyLevelIndex returns the node's dependency level. Valid
// after Build.
func (n *Node) DependencyLevelIndex() uint32 { return n.levelIndex }

// QueueIndex returns the queue the node executes on.
func (n *Node) QueueIndex() uint32 { return n.queueIndex }

// SyncSignalRequired reports whether a later node on another queue
// waits on this node, so its submit must publish a semaphore.
func (n *Node) SyncSignalRequired() bool { return n.syncSignalRequired }

// NodesToSyncWith returns the indices of nodes this node must wait on,
// minimized by Build.
func (n *Node) NodesToSyncWith() []uint32 { return n.nodesToSyncWith }

// SyncIndexes returns the per-queue synchronization indices. Valid
// after Build.
func (n *Node) SyncIndexes() []uint32 { return n.syncIndices }

// UseRayTracing reports whether the pass dispatches rays.
func (n *Node) UseRayTracing() bool { return n.useRayTracing }

// SetUseRayTracing marks the pass as a ray-tracing pass. Ray-tracing
// submits additionally wait on the frame's BVH-build semaphore.
func (n *Node) SetUseRayTracing() { n.useRayTracing = true }

// HasDependency reports whether the node reads or writes the view.
func (n *Node) HasDependency(v ViewName) bool {
	return n.allViews.Contains(v)
}

// HasAnyDependency reports whether the node declared any view at all.
// Nodes without declarations are excluded from the schedule.
func (n *Node) HasAnyDependency() bool {
	return len(n.allViews) > 0
}

// clear resets per-frame state, keeping the pass identity.
func (n *Node) clear() {
	n.readViews = make(ViewNameSet)
	n.writtenViews = make(ViewNameSet)
	n.allViews = make(ViewNameSet)
	n.syncIndices = n.syncIndices[:0]
	n.nodesToSyncWith = n.nodesToSyncWith[:0]
	n.globalExecIndex = 0
	n.levelLocalIndex = 0
	n.queueLocalIndex = 0
	n.levelIndex = 0
	n.syncSignalRequired = false
	n.useRayTracing = false
}
