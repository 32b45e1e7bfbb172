// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"time"

	"github.com/gogpu/framegraph/types"
)

// Handle is the common marker for opaque backend objects. SetName
// accepts any handle.
type Handle any

// Opaque resource handles. Backends return their own concrete types;
// the core only stores and passes them back.
type (
	// Buffer is a GPU buffer handle.
	Buffer interface{ Handle }

	// Texture is a GPU texture handle.
	Texture interface{ Handle }

	// TextureView is a view into a subresource range of a texture.
	TextureView interface{ Handle }

	// BufferView is a formatted view into a buffer range.
	BufferView interface{ Handle }

	// Sampler is a texture sampler handle.
	Sampler interface{ Handle }

	// Shader is a compiled shader module handle.
	Shader interface{ Handle }

	// Pipeline is a graphics, compute or ray-tracing pipeline handle.
	Pipeline interface{ Handle }

	// AccelerationStructure is a BLAS or TLAS handle.
	AccelerationStructure interface{ Handle }

	// Semaphore is a GPU-GPU synchronization primitive.
	Semaphore interface{ Handle }

	// Fence is a GPU-CPU synchronization primitive.
	Fence interface{ Handle }
)

// SwapChain is a presentable image chain bound to a window surface.
type SwapChain interface {
	// BufferCount returns the number of images in the chain. The frame
	// ring and the deletion queue are sized from it.
	BufferCount() uint32

	// Format returns the format of the swap-chain images.
	Format() types.Format
}

// Device is a logical GPU device. All resource creation, submission and
// presentation goes through it.
//
// Create/Destroy pairs must balance; WaitQueueIdle before destroying a
// resource that may still be referenced by in-flight command buffers,
// or defer through a deletion queue gated on fences.
type Device interface {
	CreateBuffer(desc *types.BufferDescriptor) (Buffer, error)
	DestroyBuffer(buffer Buffer)

	CreateTexture(desc *types.TextureDescriptor) (Texture, error)
	DestroyTexture(texture Texture)

	CreateTextureView(texture Texture, desc *TextureViewDescriptor) (TextureView, error)
	DestroyTextureView(view TextureView)

	CreateBufferView(buffer Buffer, desc *BufferViewDescriptor) (BufferView, error)
	DestroyBufferView(view BufferView)

	CreateSampler(desc *SamplerDescriptor) (Sampler, error)
	DestroySampler(sampler Sampler)

	CreateShader(desc *ShaderDescriptor) (Shader, error)
	DestroyShader(shader Shader)

	CreateGraphicsPipeline(desc *GraphicsPipelineDescriptor) (Pipeline, error)
	CreateComputePipeline(desc *ComputePipelineDescriptor) (Pipeline, error)
	CreateRayTracingPipeline(desc *RayTracingPipelineDescriptor) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)

	CreateAccelerationStructure(desc *AccelerationStructureDescriptor) (AccelerationStructure, error)
	DestroyAccelerationStructure(as AccelerationStructure)

	// CreateCommandPool creates a command pool for one queue. Pools are
	// not thread-safe; the core keeps one per recording thread per
	// frame-ring slot.
	CreateCommandPool(queue types.QueueType) (CommandPool, error)
	DestroyCommandPool(pool CommandPool)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)

	CreateFence() (Fence, error)
	DestroyFence(fence Fence)

	CreateSwapChain(desc *SwapChainDescriptor) (SwapChain, error)
	DestroySwapChain(swapChain SwapChain)

	// AcquireNextImage acquires the next presentable image, signaling
	// the semaphore (and fence, if non-nil) when the image is ready.
	// Returns ErrSwapChainOutOfDate when the chain must be recreated.
	AcquireNextImage(swapChain SwapChain, semaphore Semaphore, fence Fence) (uint32, error)

	// Submit submits the command buffers in info to the queue named by
	// info.Queue, waiting and signaling the listed semaphores. The
	// fence, if non-nil, signals when all command buffers complete.
	Submit(info *SubmitInfo, fence Fence) error

	// Present presents the swap chains in info after the wait
	// semaphores signal. Returns ErrSwapChainOutOfDate when a chain
	// must be recreated; the frame is skipped in that case.
	Present(info *PresentInfo) error

	// WaitForFences blocks until every fence signals or the timeout
	// elapses. Returns ErrTimeout on expiry, ErrDeviceLost if the
	// device is lost while waiting.
	WaitForFences(fences []Fence, timeout time.Duration) error

	ResetFences(fences []Fence) error

	WaitQueueIdle(queue types.QueueType) error

	// SetName attaches a debug label to a handle. Backends without
	// debug-label support ignore it.
	SetName(handle Handle, name string)

	Destroy()
}

// CommandPool allocates command buffers for a single queue.
type CommandPool interface {
	// Allocate returns a command buffer in the initial state. Buffers
	// stay owned by the pool; Reset recycles all of them at once.
	Allocate() (CommandBuffer, error)

	// Reset returns every allocated command buffer to the initial
	// state. Valid only after the GPU has finished with them.
	Reset() error
}

// CommandBuffer records GPU work. Recording is single-threaded per
// buffer; distinct buffers may be recorded concurrently.
type CommandBuffer interface {
	Begin() error
	End() error

	BeginRendering(info *RenderingBeginInfo)
	EndRendering()

	BindPipeline(pipeline Pipeline)
	PushConstants(pipeline Pipeline, data []byte)

	BindVertexBuffer(slot uint32, buffer Buffer, offset uint64)
	BindIndexBuffer(buffer Buffer, offset uint64)

	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	DrawIndexedIndirect(buffer Buffer, offset uint64, drawCount, stride uint32)

	Dispatch(groupsX, groupsY, groupsZ uint32)
	DispatchRays(info *DispatchRaysInfo)

	CopyBuffer(src, dst Buffer, regions []BufferCopy)
	CopyTexture(src, dst Texture, regions []TextureCopy)

	// AddPipelineBarriers records the given transitions. The caller
	// (the frame executor) computes barriers from the layout tracker;
	// backends translate them to API-native barriers.
	AddPipelineBarriers(barriers []PipelineBarrier)
}
