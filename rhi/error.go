// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rhi

import "errors"

// Common RHI errors representing unrecoverable or retry-after GPU
// states.
var (
	// ErrBackendNotFound indicates the requested backend is not registered.
	ErrBackendNotFound = errors.New("rhi: backend not found")

	// ErrDeviceLost indicates the GPU device has been lost (driver
	// crash, reset, or hardware disconnect). The device cannot be
	// recovered and must be recreated.
	ErrDeviceLost = errors.New("rhi: device lost")

	// ErrOutOfMemory indicates the GPU has exhausted its memory.
	ErrOutOfMemory = errors.New("rhi: device out of memory")

	// ErrSwapChainOutOfDate indicates the swap chain no longer matches
	// the surface (window resized, display mode changed). Recreate the
	// swap chain and skip the frame.
	ErrSwapChainOutOfDate = errors.New("rhi: swap chain out of date")

	// ErrTimeout indicates a wait operation timed out.
	ErrTimeout = errors.New("rhi: timeout")
)
