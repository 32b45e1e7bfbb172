// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// RenderTargetView returns the color-attachment view of a mip level,
// validating that the pass scheduled the texture with a compatible
// usage and layout.
func (m *Manager) RenderTargetView(pass, texture name.Name, mip uint32) (rhi.TextureView, error) {
	return m.textureView(pass, texture, mip, types.UsageColorAttachment, types.LayoutColorAttachment)
}

// DepthStencilView returns the depth-stencil view of the texture.
func (m *Manager) DepthStencilView(pass, texture name.Name) (rhi.TextureView, error) {
	return m.textureView(pass, texture, 0, types.UsageDepthStencilAttachment, types.LayoutDepthStencil)
}

// ShaderReadView returns the sampled view of a mip level.
func (m *Manager) ShaderReadView(pass, texture name.Name, mip uint32) (rhi.TextureView, error) {
	return m.textureView(pass, texture, mip, types.UsageSampledTexture, types.LayoutShaderRead)
}

// StorageView returns the storage view of a mip level.
func (m *Manager) StorageView(pass, texture name.Name, mip uint32) (rhi.TextureView, error) {
	return m.textureView(pass, texture, mip, types.UsageStorageTexture, types.LayoutGeneral)
}

// textureView validates declared usage and requested layout before
// handing out a view. A pass may only access a view in the state it
// scheduled.
func (m *Manager) textureView(pass, texture name.Name, mip uint32, mustUsage types.ResourceUsage, mustLayout types.ResourceLayout) (rhi.TextureView, error) {
	res := m.Resource(texture)
	if res == nil || !res.IsTexture() {
		return nil, &LayoutMismatchError{
			Pass: pass, Resource: texture, Usage: mustUsage, Want: mustLayout,
			Detail: "not a valid texture this frame",
		}
	}

	passInfo := res.SchedulingInfo().PassInfo(pass)
	if passInfo == nil {
		return nil, &LayoutMismatchError{
			Pass: pass, Resource: texture, Usage: mustUsage, Want: mustLayout,
			Detail: "not scheduled for this pass",
		}
	}

	if !res.TextureDescriptor().Usage.Has(mustUsage) {
		return nil, &LayoutMismatchError{
			Pass: pass, Resource: texture, Usage: mustUsage, Want: mustLayout,
			Detail: "texture was not created with the required usage",
		}
	}

	if int(mip) >= len(passInfo.ViewInfos) || passInfo.ViewInfos[mip] == nil {
		return nil, &LayoutMismatchError{
			Pass: pass, Resource: texture, Usage: mustUsage, Want: mustLayout,
			Detail: "no view scheduled for this mip level",
		}
	}

	if passInfo.ViewInfos[mip].RequestedLayout&mustLayout == 0 {
		return nil, &LayoutMismatchError{
			Pass: pass, Resource: texture, Usage: mustUsage, Want: mustLayout,
			Detail: "requested layout is " + passInfo.ViewInfos[mip].RequestedLayout.String() +
				", want " + mustLayout.String(),
		}
	}

	return res.view(m.device, mip)
}
