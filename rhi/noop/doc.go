// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package noop provides a no-operation RHI backend.
//
// Every operation succeeds without touching a GPU. The device keeps
// creation/destruction counters (see [Device.Stats]) so tests can
// assert allocation behavior, e.g. that a stable cross-frame resource
// set issues zero create calls on the second frame.
//
// Import for side effects to register the backend:
//
//	import _ "github.com/gogpu/framegraph/rhi/noop"
package noop
