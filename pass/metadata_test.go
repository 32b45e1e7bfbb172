// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pass

import (
	"strings"
	"testing"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/types"
)

const sampleDocument = `{
	"render_textures": [
		{"name": "GBufferAlbedo", "format": "RGBA8Unorm"},
		{"name": "Depth", "format": "D32Float"},
		{"name": "AO", "format": "R32Float"}
	],
	"render_passes": [
		{
			"name": "gbuffer",
			"type": "graphics",
			"render_targets": [
				{"texture_name": "GBufferAlbedo", "load_op": "clear", "clear_color": [0, 0, 0, 1]},
				{"texture_name": "Depth", "clear_depth_stencil": [1, 0]}
			],
			"pipeline": {
				"shaders": [
					{"path": "gbuffer.wgsl", "type": "vertex"},
					{"path": "gbuffer.wgsl", "type": "fragment"}
				]
			}
		},
		{
			"name": "ssao",
			"type": "compute",
			"input_textures": ["Depth"],
			"output_storage_textures": ["AO"],
			"pipeline": {
				"name": "ssao_main",
				"shaders": [{"path": "ssao.wgsl", "type": "compute"}]
			}
		},
		{
			"name": "composite",
			"type": "graphics",
			"input_textures": ["GBufferAlbedo", "AO"],
			"render_targets": [{"load_op": "clear"}],
			"pipeline": {
				"shaders": [
					{"path": "fullscreen.wgsl", "type": "vertex"},
					{"path": "composite.wgsl", "type": "fragment"}
				]
			}
		}
	]
}`

func TestParseGraphMetadata(t *testing.T) {
	meta, err := ParseGraphMetadata([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("ParseGraphMetadata: %v", err)
	}

	if len(meta.RenderPasses) != 3 || len(meta.RenderTextures) != 3 {
		t.Fatalf("parsed %d passes, %d textures; want 3, 3", len(meta.RenderPasses), len(meta.RenderTextures))
	}
	if meta.Texture("Depth") == nil || !meta.Texture("Depth").ParsedFormat().IsDepthStencil() {
		t.Error("Depth texture must parse as a depth-stencil format")
	}

	// Missing pipeline name defaults to the pass name.
	if got := meta.RenderPasses[0].PipelineName(); got != "gbuffer" {
		t.Errorf("default pipeline name = %q, want %q", got, "gbuffer")
	}
	if got := meta.RenderPasses[1].PipelineName(); got != "ssao_main" {
		t.Errorf("explicit pipeline name = %q, want %q", got, "ssao_main")
	}

	// The back-buffer target is the entry without a texture name.
	if meta.RenderPasses[2].RenderTargets[0].TextureName != "" {
		t.Error("composite pass must target the back buffer")
	}
}

func TestUnknownInputTextureIsFatal(t *testing.T) {
	doc := strings.Replace(sampleDocument, `"input_textures": ["Depth"]`, `"input_textures": ["Nope"]`, 1)
	if _, err := ParseGraphMetadata([]byte(doc)); err == nil {
		t.Fatal("unknown input texture accepted at load")
	}
}

func TestUnknownFormatIsFatal(t *testing.T) {
	doc := strings.Replace(sampleDocument, `"format": "R32Float"`, `"format": "R13Float"`, 1)
	if _, err := ParseGraphMetadata([]byte(doc)); err == nil {
		t.Fatal("unknown texture format accepted at load")
	}
}

func TestMetadataPassInfo(t *testing.T) {
	meta, err := ParseGraphMetadata([]byte(sampleDocument))
	if err != nil {
		t.Fatal(err)
	}
	names := name.NewTable()

	p, err := NewMetadataPass(&meta.RenderPasses[1], names)
	if err != nil {
		t.Fatal(err)
	}
	info := p.Info()
	if info.Type != graph.PassCompute {
		t.Errorf("ssao pass type = %v, want compute", info.Type)
	}
	if names.String(info.Pipeline) != "ssao_main" {
		t.Errorf("pipeline name = %q, want ssao_main", names.String(info.Pipeline))
	}
}

func TestFullMipCount(t *testing.T) {
	cases := []struct {
		w, h uint32
		want uint32
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{1920, 1080, 11},
	}
	for _, c := range cases {
		if got := fullMipCount(c.w, c.h); got != c.want {
			t.Errorf("fullMipCount(%d, %d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}

func TestTextureDescriptorRefinement(t *testing.T) {
	meta := &TextureMetadata{
		Name:          "History",
		Format:        "RGBA16Float",
		UseMips:       true,
		IsTransferDst: true,
	}
	desc := meta.Descriptor(1024, 512)
	if desc.Format != types.FormatRGBA16Float {
		t.Errorf("format = %v, want RGBA16Float", desc.Format)
	}
	if desc.MipLevels != 11 {
		t.Errorf("mip levels = %d, want full chain of 11", desc.MipLevels)
	}
	if !desc.Usage.Has(types.UsageTransferDst) {
		t.Error("transfer-dst flag must map to usage")
	}
}
