// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"sync"

	"github.com/gogpu/gputypes"
)

// DeviceDescriptor configures device creation.
type DeviceDescriptor struct {
	// ValidationEnabled asks the backend to attach its validation
	// layer, if it has one.
	ValidationEnabled bool
}

// Backend is a registered RHI implementation.
type Backend interface {
	// Variant returns the backend type identifier.
	Variant() gputypes.Backend

	// AdapterInfo returns metadata for the adapter this backend opens.
	AdapterInfo() gputypes.AdapterInfo

	// CreateDevice opens the logical device.
	CreateDevice(desc *DeviceDescriptor) (Device, error)
}

var (
	// backendsMu protects the backends map.
	backendsMu sync.RWMutex

	// backends stores registered backend implementations.
	backends = make(map[gputypes.Backend]Backend)
)

// RegisterBackend registers a backend implementation.
// This is typically called from init() functions in backend packages.
// Registering the same backend type again replaces the previous
// registration.
func RegisterBackend(backend Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[backend.Variant()] = backend
}

// GetBackend returns a registered backend by type.
// Returns (nil, false) if the backend is not registered.
func GetBackend(variant gputypes.Backend) (Backend, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[variant]
	return b, ok
}

// AvailableBackends returns all registered backend variants.
// The order is non-deterministic.
func AvailableBackends() []gputypes.Backend {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	result := make([]gputypes.Backend, 0, len(backends))
	for v := range backends {
		result = append(result, v)
	}
	return result
}
