// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/pass"
	"github.com/gogpu/framegraph/types"
)

// PassFactory builds a pass from its metadata entry. The default
// factory returns a bare MetadataPass, which schedules and builds
// pipelines but records nothing.
type PassFactory func(meta *pass.PassMetadata, names *name.Table) (pass.Pass, error)

// Config configures a Renderer.
type Config struct {
	// MetadataPath locates the graph-metadata document. Ignored when
	// Metadata is set directly.
	MetadataPath string

	// Metadata, when non-nil, is used instead of loading MetadataPath.
	Metadata *pass.GraphMetadata

	// ShaderDir is the root directory shader paths are relative to.
	ShaderDir string

	// ShaderCacheDir enables the on-disk shader cache when non-empty.
	ShaderCacheDir string

	// Render surface extent and formats.
	Width              uint32
	Height             uint32
	RenderTargetFormat types.Format
	DepthStencilFormat types.Format

	// Swap chain configuration.
	SwapChainFormat types.Format
	BufferCount     uint32
	VSync           bool
	DisplayHandle   uintptr
	WindowHandle    uintptr

	// PassFactory overrides pass construction. Nil uses MetadataPass.
	PassFactory PassFactory

	// MaxWorkerThreads caps every worker class; 0 means no cap.
	MaxWorkerThreads int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BufferCount == 0 {
		out.BufferCount = 3
	}
	if out.RenderTargetFormat == types.FormatUndefined {
		out.RenderTargetFormat = types.FormatRGBA8Unorm
	}
	if out.DepthStencilFormat == types.FormatUndefined {
		out.DepthStencilFormat = types.FormatD32Float
	}
	if out.SwapChainFormat == types.FormatUndefined {
		out.SwapChainFormat = types.FormatBGRA8Unorm
	}
	if out.Width == 0 {
		out.Width = 1920
	}
	if out.Height == 0 {
		out.Height = 1080
	}
	return out
}
