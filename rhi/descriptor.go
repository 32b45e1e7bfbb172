// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rhi

import "github.com/gogpu/framegraph/types"

// TextureViewDescriptor selects a subresource range of a texture.
type TextureViewDescriptor struct {
	BaseMipLevel   uint32
	MipLevelCount  uint32
	BaseArrayLayer uint32
	ArrayLayerCount uint32
	Format         types.Format
}

// BufferViewDescriptor selects a range of a buffer.
type BufferViewDescriptor struct {
	Offset uint64
	Range  uint64
}

// Filter selects a sampler filtering mode.
type Filter uint32

const (
	FilterNearest Filter = iota
	FilterLinear
)

// AddressMode selects how out-of-range texture coordinates resolve.
type AddressMode uint32

const (
	AddressModeRepeat AddressMode = iota
	AddressModeClampToEdge
	AddressModeMirrorRepeat
)

// SamplerDescriptor describes a texture sampler.
type SamplerDescriptor struct {
	MinFilter   Filter
	MagFilter   Filter
	MipFilter   Filter
	AddressMode AddressMode
	MaxAnisotropy uint32
}

// ShaderDescriptor describes a compiled shader module.
type ShaderDescriptor struct {
	Name       string
	SPIRV      []byte
	Type       types.ShaderType
	EntryPoint string
}

// ShaderStage pairs a shader module with its stage for pipeline
// creation.
type ShaderStage struct {
	Shader     Shader
	Type       types.ShaderType
	EntryPoint string
}

// GraphicsPipelineDescriptor describes a graphics pipeline.
type GraphicsPipelineDescriptor struct {
	Name               string
	Stages             []ShaderStage
	ColorFormats       []types.Format
	DepthStencilFormat types.Format
	SampleCount        types.SampleCount
	DepthTestEnabled   bool
	DepthWriteEnabled  bool
}

// ComputePipelineDescriptor describes a compute pipeline.
type ComputePipelineDescriptor struct {
	Name  string
	Stage ShaderStage
}

// HitGroup groups hit shaders for one geometry kind. ClosestHit and
// AnyHit index into the descriptor's Stages slice; -1 means the slot is
// empty.
type HitGroup struct {
	Type       types.HitGroupType
	ClosestHit int
	AnyHit     int
}

// RayTracingPipelineDescriptor describes a ray-tracing pipeline.
type RayTracingPipelineDescriptor struct {
	Name              string
	Stages            []ShaderStage
	HitGroups         []HitGroup
	MaxRecursionDepth uint32
}

// AccelerationStructureKind distinguishes bottom- and top-level
// acceleration structures.
type AccelerationStructureKind uint32

const (
	AccelerationStructureBottomLevel AccelerationStructureKind = iota
	AccelerationStructureTopLevel
)

// AccelerationStructureDescriptor describes a BLAS or TLAS.
type AccelerationStructureDescriptor struct {
	Kind AccelerationStructureKind
	Size uint64
}

// SwapChainDescriptor describes a presentable image chain. The display
// and window handles are platform-specific, exactly as handed to the
// windowing layer; the core never interprets them.
type SwapChainDescriptor struct {
	Width         uint32
	Height        uint32
	BufferCount   uint32
	Format        types.Format
	VSync         bool
	DisplayHandle uintptr
	WindowHandle  uintptr
}

// SubmitInfo describes one queue submission.
type SubmitInfo struct {
	Queue            types.QueueType
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	SignalSemaphores []Semaphore
}

// Clear empties the submit info for reuse, keeping capacity.
func (s *SubmitInfo) Clear() {
	s.CommandBuffers = s.CommandBuffers[:0]
	s.WaitSemaphores = s.WaitSemaphores[:0]
	s.SignalSemaphores = s.SignalSemaphores[:0]
}

// PresentInfo describes a presentation request.
type PresentInfo struct {
	SwapChains     []SwapChain
	WaitSemaphores []Semaphore
}

// RenderingBeginKind selects between off-screen and swap-chain render
// passes.
type RenderingBeginKind uint32

const (
	// OffscreenPass renders into transient attachments.
	OffscreenPass RenderingBeginKind = iota

	// SwapChainPass renders into the acquired swap-chain image.
	SwapChainPass
)

// RenderTarget is one off-screen attachment.
type RenderTarget struct {
	View           TextureView
	IsDepthStencil bool
	LoadOp         types.LoadOp
	StoreOp        types.StoreOp
	ClearValues    types.ClearValues
}

// RenderingBeginInfo configures BeginRendering. For OffscreenPass the
// attachment list drives the pass; for SwapChainPass the backend binds
// the acquired image of SwapChain with the given clear values.
type RenderingBeginInfo struct {
	Kind          RenderingBeginKind
	RenderTargets []RenderTarget
	SwapChain     SwapChain
	ClearValues   types.ClearValues
}

// DispatchRaysInfo configures a ray dispatch.
type DispatchRaysInfo struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// BufferCopy is one buffer-to-buffer copy region.
type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// TextureCopy is one texture-to-texture copy region.
type TextureCopy struct {
	SrcMipLevel uint32
	DstMipLevel uint32
	Width       uint32
	Height      uint32
	Depth       uint32
}
