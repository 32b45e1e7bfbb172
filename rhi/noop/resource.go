// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package noop

import (
	"sync/atomic"

	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// Resource is a generic handle for noop objects without state.
type Resource struct{}

// Buffer is a noop buffer retaining its descriptor.
type Buffer struct {
	desc types.BufferDescriptor
}

// Descriptor returns the creation descriptor.
func (b *Buffer) Descriptor() types.BufferDescriptor { return b.desc }

// Texture is a noop texture retaining its descriptor.
type Texture struct {
	desc types.TextureDescriptor
}

// Descriptor returns the creation descriptor.
func (t *Texture) Descriptor() types.TextureDescriptor { return t.desc }

// TextureView is a noop texture view retaining its source and range.
type TextureView struct {
	texture rhi.Texture
	desc    rhi.TextureViewDescriptor
}

// Shader is a noop shader module.
type Shader struct {
	name       string
	shaderType types.ShaderType
}

// Pipeline is a noop pipeline.
type Pipeline struct {
	name string
}

// Name returns the pipeline debug name.
func (p *Pipeline) Name() string { return p.name }

// Semaphore is a noop semaphore with observable signaled state.
type Semaphore struct {
	signaled atomic.Bool
}

// Signaled reports whether the semaphore has been signaled.
func (s *Semaphore) Signaled() bool { return s.signaled.Load() }

// Fence is a noop fence with observable signaled state.
type Fence struct {
	signaled atomic.Bool
}

// Signaled reports whether the fence has been signaled.
func (f *Fence) Signaled() bool { return f.signaled.Load() }

// SwapChain is a noop swap chain.
type SwapChain struct {
	desc      rhi.SwapChainDescriptor
	nextImage uint32
}

// BufferCount returns the configured image count.
func (s *SwapChain) BufferCount() uint32 { return s.desc.BufferCount }

// Format returns the configured image format.
func (s *SwapChain) Format() types.Format { return s.desc.Format }
