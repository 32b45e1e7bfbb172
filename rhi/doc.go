// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package rhi defines the GPU abstraction consumed by the frame graph
// core: devices, command buffers, synchronization primitives and the
// structs that cross the boundary (submits, barriers, rendering begin
// info).
//
// The core never talks to a graphics API directly. Backends implement
// the interfaces in this package and register themselves via
// RegisterBackend; the noop backend (rhi/noop) is a complete in-memory
// implementation used by tests and the demo.
//
// All Create* methods return opaque handles. A handle stays valid until
// the matching Destroy* call; the frame graph core defers destruction
// through its deletion queue so in-flight frames never observe a freed
// handle.
package rhi
