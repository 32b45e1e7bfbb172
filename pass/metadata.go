// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pass

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gogpu/framegraph/types"
)

// TextureMetadata declares one render texture of the graph document.
type TextureMetadata struct {
	Name          string `json:"name"`
	Format        string `json:"format"`
	SampleCount   uint32 `json:"sample_count,omitempty"`
	LayerCount    uint32 `json:"layer_count,omitempty"`
	UseMips       bool   `json:"use_mips,omitempty"`
	IsTransferDst bool   `json:"is_transfer_dst,omitempty"`

	// PingPong declares an alternating producer/consumer pair resolved
	// by frame parity; PreviousFrame marks inputs read from last
	// frame's instance.
	PingPong      bool `json:"ping_pong,omitempty"`
	PreviousFrame bool `json:"previous_frame,omitempty"`
}

// ParsedFormat returns the texture format.
func (m *TextureMetadata) ParsedFormat() types.Format {
	return formatFromString(m.Format)
}

// Descriptor builds the creation descriptor refinement this metadata
// contributes on top of the surface defaults. surfaceW/H size the full
// mip chain when UseMips is set.
func (m *TextureMetadata) Descriptor(surfaceW, surfaceH uint32) *types.TextureDescriptor {
	desc := &types.TextureDescriptor{
		Format:      m.ParsedFormat(),
		LayerCount:  m.LayerCount,
		SampleCount: types.SampleCount(m.SampleCount),
	}
	if m.UseMips {
		desc.MipLevels = fullMipCount(surfaceW, surfaceH)
	}
	if m.IsTransferDst {
		desc.Usage |= types.UsageTransferDst
	}
	return desc
}

// fullMipCount returns the mip level count of a full chain for the
// given extent.
func fullMipCount(w, h uint32) uint32 {
	size := w
	if h > size {
		size = h
	}
	count := uint32(1)
	for size > 1 {
		size >>= 1
		count++
	}
	return count
}

// RenderTargetMetadata declares one render target of a pass. An empty
// TextureName denotes the swap-chain back buffer.
type RenderTargetMetadata struct {
	TextureName       string     `json:"texture_name,omitempty"`
	StoreOp           string     `json:"store_op,omitempty"`
	LoadOp            string     `json:"load_op,omitempty"`
	ClearColor        [4]float32 `json:"clear_color,omitempty"`
	ClearDepthStencil [2]float32 `json:"clear_depth_stencil,omitempty"`
}

// ParsedLoadOp returns the attachment load op (default clear).
func (m *RenderTargetMetadata) ParsedLoadOp() types.LoadOp {
	return loadOpFromString(m.LoadOp)
}

// ParsedStoreOp returns the attachment store op (default store).
func (m *RenderTargetMetadata) ParsedStoreOp() types.StoreOp {
	return storeOpFromString(m.StoreOp)
}

// ClearValues returns the attachment clear values.
func (m *RenderTargetMetadata) ClearValues() types.ClearValues {
	return types.ClearValues{
		Color:   m.ClearColor,
		Depth:   m.ClearDepthStencil[0],
		Stencil: uint32(m.ClearDepthStencil[1]),
	}
}

// ShaderMetadata declares one shader of a pipeline block.
type ShaderMetadata struct {
	Path         string   `json:"path"`
	Type         string   `json:"type"`
	EntryPoint   string   `json:"entry_point,omitempty"`
	Defines      []string `json:"defines,omitempty"`
	HitGroupType string   `json:"hit_group_type,omitempty"`
}

// PipelineMetadata is the pipeline block of a pass.
type PipelineMetadata struct {
	Name    string           `json:"name,omitempty"`
	Shaders []ShaderMetadata `json:"shaders"`
}

// PassMetadata declares one render pass.
type PassMetadata struct {
	Name                  string                 `json:"name"`
	Type                  string                 `json:"type"`
	InputTextures         []string               `json:"input_textures,omitempty"`
	RenderTargets         []RenderTargetMetadata `json:"render_targets,omitempty"`
	OutputStorageTextures []string               `json:"output_storage_textures,omitempty"`
	UseRayTracing         bool                   `json:"use_ray_tracing,omitempty"`
	Pipeline              PipelineMetadata       `json:"pipeline"`
}

// PipelineName returns the pipeline name, defaulting to the pass name.
func (m *PassMetadata) PipelineName() string {
	if m.Pipeline.Name != "" {
		return m.Pipeline.Name
	}
	return m.Name
}

// GraphMetadata is the structured document read once at startup.
type GraphMetadata struct {
	RenderTextures []TextureMetadata `json:"render_textures"`
	RenderPasses   []PassMetadata    `json:"render_passes"`

	textureByName map[string]*TextureMetadata
}

// LoadGraphMetadata reads and validates a graph-metadata document.
func LoadGraphMetadata(path string) (*GraphMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pass: reading graph metadata: %w", err)
	}
	return ParseGraphMetadata(data)
}

// ParseGraphMetadata parses and validates a graph-metadata document.
func ParseGraphMetadata(data []byte) (*GraphMetadata, error) {
	var meta GraphMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("pass: parsing graph metadata: %w", err)
	}
	if err := meta.validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Texture returns the texture metadata for a name, or nil.
func (g *GraphMetadata) Texture(textureName string) *TextureMetadata {
	return g.textureByName[textureName]
}

func (g *GraphMetadata) validate() error {
	g.textureByName = make(map[string]*TextureMetadata, len(g.RenderTextures))
	for i := range g.RenderTextures {
		tex := &g.RenderTextures[i]
		if tex.Name == "" {
			return fmt.Errorf("pass: render texture %d has no name", i)
		}
		if formatFromString(tex.Format) == types.FormatUndefined {
			return fmt.Errorf("pass: render texture %q has unknown format %q", tex.Name, tex.Format)
		}
		if _, ok := g.textureByName[tex.Name]; ok {
			return fmt.Errorf("pass: duplicate render texture %q", tex.Name)
		}
		g.textureByName[tex.Name] = tex
	}

	for i := range g.RenderPasses {
		p := &g.RenderPasses[i]
		if p.Name == "" {
			return fmt.Errorf("pass: render pass %d has no name", i)
		}
		if _, err := passTypeFromString(p.Type); err != nil {
			return fmt.Errorf("pass: render pass %q: %w", p.Name, err)
		}
		for _, input := range p.InputTextures {
			if g.Texture(input) == nil {
				return fmt.Errorf("pass: render pass %q reads unknown texture %q", p.Name, input)
			}
		}
		for _, output := range p.OutputStorageTextures {
			if g.Texture(output) == nil {
				return fmt.Errorf("pass: render pass %q writes unknown storage texture %q", p.Name, output)
			}
		}
		for _, target := range p.RenderTargets {
			if target.TextureName != "" && g.Texture(target.TextureName) == nil {
				return fmt.Errorf("pass: render pass %q targets unknown texture %q", p.Name, target.TextureName)
			}
		}
		for _, shader := range p.Pipeline.Shaders {
			if _, err := shaderTypeFromString(shader.Type); err != nil {
				return fmt.Errorf("pass: render pass %q pipeline: %w", p.Name, err)
			}
		}
	}
	return nil
}
