// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rhi

import "github.com/gogpu/framegraph/types"

// PipelineBarrier is one layout transition, for either a texture
// subresource range or a whole buffer. Exactly one of Texture and
// Buffer is set.
type PipelineBarrier struct {
	Texture Texture
	Buffer  Buffer

	OldLayout types.ResourceLayout
	NewLayout types.ResourceLayout

	// BaseView and ViewCount select the mip range for texture
	// barriers. Buffer barriers ignore them.
	BaseView  uint32
	ViewCount uint32
}

// TextureBarrier builds a barrier for a single texture view.
func TextureBarrier(texture Texture, from, to types.ResourceLayout, baseView, viewCount uint32) PipelineBarrier {
	return PipelineBarrier{
		Texture:   texture,
		OldLayout: from,
		NewLayout: to,
		BaseView:  baseView,
		ViewCount: viewCount,
	}
}

// BufferBarrier builds a barrier for a whole buffer.
func BufferBarrier(buffer Buffer, from, to types.ResourceLayout) PipelineBarrier {
	return PipelineBarrier{
		Buffer:    buffer,
		OldLayout: from,
		NewLayout: to,
		ViewCount: 1,
	}
}
