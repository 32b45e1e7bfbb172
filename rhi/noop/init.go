// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package noop

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/rhi"
)

// API implements rhi.Backend for the noop backend.
type API struct{}

// Variant returns the backend type identifier.
func (API) Variant() gputypes.Backend {
	return gputypes.BackendEmpty
}

// AdapterInfo returns metadata for the simulated adapter.
func (API) AdapterInfo() gputypes.AdapterInfo {
	return gputypes.AdapterInfo{
		Name:       "Noop Adapter",
		Vendor:     "GoGPU",
		VendorID:   0,
		DeviceID:   0,
		DeviceType: gputypes.DeviceTypeOther,
		Driver:     "noop-1.0",
		DriverInfo: "No-operation backend for testing",
		Backend:    gputypes.BackendEmpty,
	}
}

// CreateDevice opens a noop device. Always succeeds.
func (API) CreateDevice(_ *rhi.DeviceDescriptor) (rhi.Device, error) {
	return NewDevice(), nil
}

func init() {
	rhi.RegisterBackend(API{})
}
