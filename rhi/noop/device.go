// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package noop

import (
	"sync"
	"time"

	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// Stats counts resource lifecycle calls on a noop device.
type Stats struct {
	BuffersCreated    uint64
	BuffersDestroyed  uint64
	TexturesCreated   uint64
	TexturesDestroyed uint64
	ViewsCreated      uint64
	SamplersCreated   uint64
	ShadersCreated    uint64
	PipelinesCreated  uint64
	Submits           uint64
	Presents          uint64
}

// Device implements rhi.Device for the noop backend.
type Device struct {
	mu    sync.Mutex
	stats Stats
}

// NewDevice creates a noop device.
func NewDevice() *Device {
	return &Device{}
}

// Stats returns a snapshot of the lifecycle counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ResetStats zeroes the lifecycle counters.
func (d *Device) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = Stats{}
}

func (d *Device) count(f func(*Stats)) {
	d.mu.Lock()
	f(&d.stats)
	d.mu.Unlock()
}

// CreateBuffer creates a noop buffer.
func (d *Device) CreateBuffer(desc *types.BufferDescriptor) (rhi.Buffer, error) {
	d.count(func(s *Stats) { s.BuffersCreated++ })
	return &Buffer{desc: *desc}, nil
}

// DestroyBuffer counts the destruction.
func (d *Device) DestroyBuffer(_ rhi.Buffer) {
	d.count(func(s *Stats) { s.BuffersDestroyed++ })
}

// CreateTexture creates a noop texture.
func (d *Device) CreateTexture(desc *types.TextureDescriptor) (rhi.Texture, error) {
	d.count(func(s *Stats) { s.TexturesCreated++ })
	return &Texture{desc: *desc}, nil
}

// DestroyTexture counts the destruction.
func (d *Device) DestroyTexture(_ rhi.Texture) {
	d.count(func(s *Stats) { s.TexturesDestroyed++ })
}

// CreateTextureView creates a noop texture view.
func (d *Device) CreateTextureView(texture rhi.Texture, desc *rhi.TextureViewDescriptor) (rhi.TextureView, error) {
	d.count(func(s *Stats) { s.ViewsCreated++ })
	return &TextureView{texture: texture, desc: *desc}, nil
}

// DestroyTextureView is a no-op.
func (d *Device) DestroyTextureView(_ rhi.TextureView) {}

// CreateBufferView creates a noop buffer view.
func (d *Device) CreateBufferView(buffer rhi.Buffer, desc *rhi.BufferViewDescriptor) (rhi.BufferView, error) {
	d.count(func(s *Stats) { s.ViewsCreated++ })
	return &Resource{}, nil
}

// DestroyBufferView is a no-op.
func (d *Device) DestroyBufferView(_ rhi.BufferView) {}

// CreateSampler creates a noop sampler.
func (d *Device) CreateSampler(_ *rhi.SamplerDescriptor) (rhi.Sampler, error) {
	d.count(func(s *Stats) { s.SamplersCreated++ })
	return &Resource{}, nil
}

// DestroySampler is a no-op.
func (d *Device) DestroySampler(_ rhi.Sampler) {}

// CreateShader creates a noop shader module.
func (d *Device) CreateShader(desc *rhi.ShaderDescriptor) (rhi.Shader, error) {
	d.count(func(s *Stats) { s.ShadersCreated++ })
	return &Shader{name: desc.Name, shaderType: desc.Type}, nil
}

// DestroyShader is a no-op.
func (d *Device) DestroyShader(_ rhi.Shader) {}

// CreateGraphicsPipeline creates a noop graphics pipeline.
func (d *Device) CreateGraphicsPipeline(desc *rhi.GraphicsPipelineDescriptor) (rhi.Pipeline, error) {
	d.count(func(s *Stats) { s.PipelinesCreated++ })
	return &Pipeline{name: desc.Name}, nil
}

// CreateComputePipeline creates a noop compute pipeline.
func (d *Device) CreateComputePipeline(desc *rhi.ComputePipelineDescriptor) (rhi.Pipeline, error) {
	d.count(func(s *Stats) { s.PipelinesCreated++ })
	return &Pipeline{name: desc.Name}, nil
}

// CreateRayTracingPipeline creates a noop ray-tracing pipeline.
func (d *Device) CreateRayTracingPipeline(desc *rhi.RayTracingPipelineDescriptor) (rhi.Pipeline, error) {
	d.count(func(s *Stats) { s.PipelinesCreated++ })
	return &Pipeline{name: desc.Name}, nil
}

// DestroyPipeline is a no-op.
func (d *Device) DestroyPipeline(_ rhi.Pipeline) {}

// CreateAccelerationStructure creates a noop acceleration structure.
func (d *Device) CreateAccelerationStructure(_ *rhi.AccelerationStructureDescriptor) (rhi.AccelerationStructure, error) {
	return &Resource{}, nil
}

// DestroyAccelerationStructure is a no-op.
func (d *Device) DestroyAccelerationStructure(_ rhi.AccelerationStructure) {}

// CreateCommandPool creates a noop command pool.
func (d *Device) CreateCommandPool(queue types.QueueType) (rhi.CommandPool, error) {
	return &CommandPool{queue: queue}, nil
}

// DestroyCommandPool is a no-op.
func (d *Device) DestroyCommandPool(_ rhi.CommandPool) {}

// CreateSemaphore creates a noop semaphore.
func (d *Device) CreateSemaphore() (rhi.Semaphore, error) {
	return &Semaphore{}, nil
}

// DestroySemaphore is a no-op.
func (d *Device) DestroySemaphore(_ rhi.Semaphore) {}

// CreateFence creates a noop fence.
func (d *Device) CreateFence() (rhi.Fence, error) {
	return &Fence{}, nil
}

// DestroyFence is a no-op.
func (d *Device) DestroyFence(_ rhi.Fence) {}

// CreateSwapChain creates a noop swap chain.
func (d *Device) CreateSwapChain(desc *rhi.SwapChainDescriptor) (rhi.SwapChain, error) {
	return &SwapChain{desc: *desc}, nil
}

// DestroySwapChain is a no-op.
func (d *Device) DestroySwapChain(_ rhi.SwapChain) {}

// AcquireNextImage cycles through the swap-chain images and signals the
// semaphore and fence immediately.
func (d *Device) AcquireNextImage(swapChain rhi.SwapChain, semaphore rhi.Semaphore, fence rhi.Fence) (uint32, error) {
	sc, ok := swapChain.(*SwapChain)
	if !ok {
		return 0, rhi.ErrSwapChainOutOfDate
	}
	if s, ok := semaphore.(*Semaphore); ok && s != nil {
		s.signaled.Store(true)
	}
	if f, ok := fence.(*Fence); ok && f != nil {
		f.signaled.Store(true)
	}
	idx := sc.nextImage
	sc.nextImage = (sc.nextImage + 1) % sc.desc.BufferCount
	return idx, nil
}

// Submit simulates a submission: every signal semaphore and the fence
// signal immediately.
func (d *Device) Submit(info *rhi.SubmitInfo, fence rhi.Fence) error {
	d.count(func(s *Stats) { s.Submits++ })
	for _, sem := range info.SignalSemaphores {
		if s, ok := sem.(*Semaphore); ok && s != nil {
			s.signaled.Store(true)
		}
	}
	if f, ok := fence.(*Fence); ok && f != nil {
		f.signaled.Store(true)
	}
	return nil
}

// Present simulates presentation. Always succeeds.
func (d *Device) Present(_ *rhi.PresentInfo) error {
	d.count(func(s *Stats) { s.Presents++ })
	return nil
}

// WaitForFences returns immediately; noop fences signal on submit.
func (d *Device) WaitForFences(_ []rhi.Fence, _ time.Duration) error {
	return nil
}

// ResetFences clears the signaled state of the given fences.
func (d *Device) ResetFences(fences []rhi.Fence) error {
	for _, fence := range fences {
		if f, ok := fence.(*Fence); ok && f != nil {
			f.signaled.Store(false)
		}
	}
	return nil
}

// WaitQueueIdle returns immediately.
func (d *Device) WaitQueueIdle(_ types.QueueType) error {
	return nil
}

// SetName is a no-op.
func (d *Device) SetName(_ rhi.Handle, _ string) {}

// Destroy is a no-op.
func (d *Device) Destroy() {}
