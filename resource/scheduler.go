// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/types"
)

// BackBufferName is the sentinel resource name for the swap-chain back
// buffer. It is interned once per Scheduler; the transient manager
// never allocates it.
const BackBufferName = "BACK_BUFFER"

// SurfaceInfo carries the render surface defaults used when a pass
// schedules a target without an explicit descriptor.
type SurfaceInfo struct {
	Width              uint32
	Height             uint32
	RenderTargetFormat types.Format
	DepthStencilFormat types.Format
}

// Scheduler is the declarative resource-scheduling surface passes talk
// to. Every call queues requests on the transient manager and
// dependencies on the graph; nothing is allocated until
// AllocateScheduledResources.
type Scheduler struct {
	g       *graph.Graph
	manager *Manager
	names   *name.Table
	surface SurfaceInfo

	backBuffer name.Name

	// frameNumber drives ping-pong name resolution.
	frameNumber uint64

	// pingPongNames caches the interned "#0"/"#1" pair per base name.
	pingPongNames map[name.Name][2]name.Name
}

// NewScheduler creates the scheduling DSL over a graph and manager.
func NewScheduler(g *graph.Graph, manager *Manager, names *name.Table, surface SurfaceInfo) *Scheduler {
	return &Scheduler{
		g:             g,
		manager:       manager,
		names:         names,
		surface:       surface,
		backBuffer:    names.Intern(BackBufferName),
		pingPongNames: make(map[name.Name][2]name.Name),
	}
}

// BeginFrame advances the scheduler to the given frame number. Ping-
// pong resource roles alternate on its parity.
func (s *Scheduler) BeginFrame(frameNumber uint64) {
	s.frameNumber = frameNumber
}

// BackBuffer returns the interned back-buffer sentinel name.
func (s *Scheduler) BackBuffer() name.Name {
	return s.backBuffer
}

// Surface returns the surface defaults.
func (s *Scheduler) Surface() SurfaceInfo {
	return s.surface
}

// CreateRenderTarget declares the pass as creator of a color target.
// Descriptor fields left zero in base fall back to surface defaults.
func (s *Scheduler) CreateRenderTarget(pass, resource name.Name, base *types.TextureDescriptor) {
	desc := &types.TextureDescriptor{
		Width:     s.surface.Width,
		Height:    s.surface.Height,
		MipLevels: 1,
		Format:    s.surface.RenderTargetFormat,
		Usage:     types.UsageColorAttachment | types.UsageSampledTexture | types.UsageTransferSrc,
		Dimension: types.TextureDimension2D,
	}
	fillFromBase(desc, base)

	s.manager.QueueResourceAllocation(pass, resource, TextureInfo(desc), func(info *SchedulingInfo) error {
		if err := s.g.AddWriteDependency(pass, resource, 1); err != nil {
			return err
		}
		return s.updateViewInfos(pass, info, types.LayoutColorAttachment, 1)
	})
}

// CreateDepthStencil declares the pass as creator of a depth-stencil
// target.
func (s *Scheduler) CreateDepthStencil(pass, resource name.Name, base *types.TextureDescriptor) {
	desc := &types.TextureDescriptor{
		Width:     s.surface.Width,
		Height:    s.surface.Height,
		MipLevels: 1,
		Format:    s.surface.DepthStencilFormat,
		Usage:     types.UsageDepthStencilAttachment | types.UsageSampledTexture | types.UsageTransferSrc,
		Dimension: types.TextureDimension2D,
	}
	fillFromBase(desc, base)

	s.manager.QueueResourceAllocation(pass, resource, TextureInfo(desc), func(info *SchedulingInfo) error {
		if err := s.g.AddWriteDependency(pass, resource, 1); err != nil {
			return err
		}
		return s.updateViewInfos(pass, info, types.LayoutDepthStencil, 1)
	})
}

// CreateStorageTexture declares the pass as creator of a storage
// texture in the general layout.
func (s *Scheduler) CreateStorageTexture(pass, resource name.Name, base *types.TextureDescriptor) {
	desc := &types.TextureDescriptor{
		Width:     s.surface.Width,
		Height:    s.surface.Height,
		MipLevels: 1,
		Format:    types.FormatR32Float,
		Usage:     types.UsageStorageTexture | types.UsageSampledTexture,
		Dimension: types.TextureDimension2D,
	}
	fillFromBase(desc, base)

	mipCount := desc.ViewCount()
	s.manager.QueueResourceAllocation(pass, resource, TextureInfo(desc), func(info *SchedulingInfo) error {
		if err := s.g.AddWriteDependency(pass, resource, mipCount); err != nil {
			return err
		}
		return s.updateViewInfos(pass, info, types.LayoutGeneral, mipCount)
	})
}

// CreateBuffer declares the pass as creator of a transient buffer.
func (s *Scheduler) CreateBuffer(pass, resource name.Name, desc *types.BufferDescriptor) {
	s.manager.QueueResourceAllocation(pass, resource, BufferInfo(desc), func(info *SchedulingInfo) error {
		if err := s.g.AddWriteDependency(pass, resource, 1); err != nil {
			return err
		}
		return s.updateViewInfos(pass, info, types.LayoutGeneral, 1)
	})
}

// TextureReadContext narrows which shader stages read a texture, so
// the layout tracker can pick the tightest read layout.
type TextureReadContext uint8

const (
	// ReadAnyShader allows reads from every stage.
	ReadAnyShader TextureReadContext = iota

	// ReadFragment limits reads to fragment shaders.
	ReadFragment

	// ReadNonFragment limits reads to non-fragment stages (compute,
	// vertex, ray tracing).
	ReadNonFragment
)

func (c TextureReadContext) layout() types.ResourceLayout {
	switch c {
	case ReadFragment:
		return types.LayoutShaderReadFragment
	case ReadNonFragment:
		return types.LayoutShaderReadNonFragment
	}
	return types.LayoutShaderRead
}

// ReadTexture declares that the pass samples a texture some other pass
// creates this frame. The read layout follows the pass's queue:
// fragment reads on graphics, non-fragment on compute.
func (s *Scheduler) ReadTexture(pass, resource name.Name) {
	s.ReadTextureInContext(pass, resource, s.defaultReadContext(pass))
}

// ReadTextureInContext is ReadTexture with an explicit stage context.
func (s *Scheduler) ReadTextureInContext(pass, resource name.Name, readCtx TextureReadContext) {
	s.manager.QueueResourceUsage(pass, resource, func(info *SchedulingInfo) error {
		if err := s.g.AddReadDependency(pass, resource, 1); err != nil {
			return err
		}
		return s.updateViewInfos(pass, info, readCtx.layout(), 1)
	})
}

func (s *Scheduler) defaultReadContext(pass name.Name) TextureReadContext {
	node := s.g.Node(pass)
	if node != nil && node.Info().Type == graph.PassCompute {
		return ReadNonFragment
	}
	return ReadFragment
}

// ReadPreviousTexture declares that the pass samples the previous
// frame's instance of a ping-pong resource. The previous-frame name is
// allocated (without a writer) so it exists on the very first frame;
// on later frames the cross-frame transfer carries last frame's
// contents into it.
func (s *Scheduler) ReadPreviousTexture(pass, resource name.Name, base *types.TextureDescriptor) {
	prev := s.PreviousPingPong(resource)

	desc := &types.TextureDescriptor{
		Width:     s.surface.Width,
		Height:    s.surface.Height,
		MipLevels: 1,
		Format:    s.surface.RenderTargetFormat,
		Usage:     types.UsageColorAttachment | types.UsageSampledTexture | types.UsageTransferSrc,
		Dimension: types.TextureDimension2D,
	}
	fillFromBase(desc, base)

	readCtx := s.defaultReadContext(pass)
	s.manager.QueueResourceAllocation(pass, prev, TextureInfo(desc), func(info *SchedulingInfo) error {
		if err := s.g.AddReadDependency(pass, prev, 1); err != nil {
			return err
		}
		return s.updateViewInfos(pass, info, readCtx.layout(), 1)
	})
}

// WriteToBackBuffer declares that the pass renders into the swap-chain
// image. No transient allocation is made; the back buffer is the swap
// chain's.
func (s *Scheduler) WriteToBackBuffer(pass name.Name) error {
	return s.g.AddWriteDependency(pass, s.backBuffer, 1)
}

// UseRayTracing marks the pass as dispatching rays. When the frame
// records a BVH build, the submit of the first ray-tracing pass waits
// on its semaphore; later ray-tracing passes of the frame do not.
func (s *Scheduler) UseRayTracing(pass name.Name) error {
	node := s.g.Node(pass)
	if node == nil {
		return fmt.Errorf("resource: unknown pass %q", s.names.String(pass))
	}
	node.SetUseRayTracing()
	return nil
}

// CurrentPingPong resolves the current-frame instance of a ping-pong
// resource pair.
func (s *Scheduler) CurrentPingPong(base name.Name) name.Name {
	pair := s.pingPong(base)
	return pair[s.frameNumber%2]
}

// PreviousPingPong resolves the previous-frame instance of a ping-pong
// resource pair.
func (s *Scheduler) PreviousPingPong(base name.Name) name.Name {
	pair := s.pingPong(base)
	return pair[(s.frameNumber+1)%2]
}

func (s *Scheduler) pingPong(base name.Name) [2]name.Name {
	if pair, ok := s.pingPongNames[base]; ok {
		return pair
	}
	baseStr := s.names.String(base)
	pair := [2]name.Name{
		s.names.Intern(baseStr + "#0"),
		s.names.Intern(baseStr + "#1"),
	}
	s.pingPongNames[base] = pair
	return pair
}

func (s *Scheduler) updateViewInfos(pass name.Name, info *SchedulingInfo, layout types.ResourceLayout, mipCount uint32) error {
	for mip := uint32(0); mip < mipCount; mip++ {
		if err := info.AddViewInfo(pass, mip, layout); err != nil {
			return err
		}
	}
	return nil
}

// fillFromBase overlays non-zero fields of base onto desc, the same
// way explicit texture metadata refines the surface defaults.
func fillFromBase(desc, base *types.TextureDescriptor) {
	if base == nil {
		return
	}
	if base.Width != 0 {
		desc.Width = base.Width
	}
	if base.Height != 0 {
		desc.Height = base.Height
	}
	if base.Depth != 0 {
		desc.Depth = base.Depth
	}
	if base.MipLevels != 0 {
		desc.MipLevels = base.MipLevels
	}
	if base.LayerCount != 0 {
		desc.LayerCount = base.LayerCount
	}
	if base.Format != types.FormatUndefined {
		desc.Format = base.Format
	}
	desc.Usage |= base.Usage
	if base.SampleCount != 0 {
		desc.SampleCount = base.SampleCount
	}
}
