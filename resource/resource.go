// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"sync"

	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// Resource is one transient frame-graph resource: a named texture or
// buffer with at most one owning GPU handle and per-frame scheduling
// info.
//
// A resource is created without a handle during EndResourceScheduling
// and receives one in AllocateScheduledResources — either transferred
// from the previous frame or freshly created.
type Resource struct {
	name      name.Name
	viewCount uint32

	texture     rhi.Texture
	buffer      rhi.Buffer
	textureDesc *types.TextureDescriptor
	bufferDesc  *types.BufferDescriptor

	// views caches per-mip texture views created on demand. Guarded:
	// passes resolve attachments during parallel recording.
	viewMu sync.Mutex
	views  map[uint32]rhi.TextureView

	schedulingInfo SchedulingInfo
}

func newResource(resource name.Name, viewCount uint32) *Resource {
	return &Resource{
		name:           resource,
		viewCount:      viewCount,
		schedulingInfo: newSchedulingInfo(resource, viewCount),
	}
}

// Name returns the resource name.
func (r *Resource) Name() name.Name { return r.name }

// ViewCount returns the number of tracked views: mip levels for
// textures, one for buffers.
func (r *Resource) ViewCount() uint32 { return r.viewCount }

// IsValid reports whether the resource owns a GPU handle.
func (r *Resource) IsValid() bool {
	return r.texture != nil || r.buffer != nil
}

// IsTexture reports whether the resource holds a texture handle.
func (r *Resource) IsTexture() bool { return r.texture != nil }

// IsBuffer reports whether the resource holds a buffer handle.
func (r *Resource) IsBuffer() bool { return r.buffer != nil }

// Texture returns the texture handle, or nil.
func (r *Resource) Texture() rhi.Texture { return r.texture }

// Buffer returns the buffer handle, or nil.
func (r *Resource) Buffer() rhi.Buffer { return r.buffer }

// TextureDescriptor returns the descriptor the texture was (or will
// be) created with, or nil for buffers.
func (r *Resource) TextureDescriptor() *types.TextureDescriptor { return r.textureDesc }

// BufferDescriptor returns the descriptor the buffer was (or will be)
// created with, or nil for textures.
func (r *Resource) BufferDescriptor() *types.BufferDescriptor { return r.bufferDesc }

// SchedulingInfo returns the per-frame scheduling info.
func (r *Resource) SchedulingInfo() *SchedulingInfo { return &r.schedulingInfo }

func (r *Resource) setTexture(handle rhi.Texture, desc *types.TextureDescriptor) {
	r.texture = handle
	r.textureDesc = desc
}

func (r *Resource) setBuffer(handle rhi.Buffer, desc *types.BufferDescriptor) {
	r.buffer = handle
	r.bufferDesc = desc
}

// transferFrom moves the GPU handle and cached views from a
// previous-frame record into this one, leaving other empty.
func (r *Resource) transferFrom(other *Resource) {
	r.texture = other.texture
	r.buffer = other.buffer
	r.textureDesc = other.textureDesc
	r.bufferDesc = other.bufferDesc
	r.views = other.views
	other.texture = nil
	other.buffer = nil
	other.views = nil
}

// view returns the cached texture view for a mip level, creating it on
// first use.
func (r *Resource) view(device rhi.Device, mip uint32) (rhi.TextureView, error) {
	r.viewMu.Lock()
	defer r.viewMu.Unlock()

	if v, ok := r.views[mip]; ok {
		return v, nil
	}
	v, err := device.CreateTextureView(r.texture, &rhi.TextureViewDescriptor{
		BaseMipLevel:    mip,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Format:          r.textureDesc.Format,
	})
	if err != nil {
		return nil, err
	}
	if r.views == nil {
		r.views = make(map[uint32]rhi.TextureView, 1)
	}
	r.views[mip] = v
	return v, nil
}

// destroy releases the GPU handle and cached views.
func (r *Resource) destroy(device rhi.Device) {
	for _, v := range r.views {
		device.DestroyTextureView(v)
	}
	r.views = nil
	if r.texture != nil {
		device.DestroyTexture(r.texture)
		r.texture = nil
	}
	if r.buffer != nil {
		device.DestroyBuffer(r.buffer)
		r.buffer = nil
	}
}
