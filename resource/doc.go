// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package resource implements the transient resource system of the
// frame graph: virtual resources scheduled by name, allocated once per
// frame, transferred across frames when the set is stable, and tracked
// per-view for layout transitions.
//
// The flow per frame:
//
//	manager.BeginFrame()
//	manager.BeginResourceScheduling()
//	// passes declare via the Scheduler DSL, which queues allocation
//	// and usage requests here and dependencies on the graph
//	manager.EndResourceScheduling()
//	manager.AllocateScheduledResources()
//
// Allocation first attempts a cross-frame transfer: resources present
// in both the previous and the current frame move their GPU handles
// forward; only the difference is created fresh. When the two sets are
// identical no RHI allocation happens at all.
package resource
