// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pass

import (
	"fmt"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/rhi"
)

// MetadataPass drives scheduling and pipeline creation entirely from
// declarative metadata. Concrete passes embed it and override Execute;
// a MetadataPass on its own records nothing.
type MetadataPass struct {
	meta     *PassMetadata
	info     graph.PassInfo
	passType graph.PassType

	// GraphicsConfigurator, when set, adjusts the graphics pipeline
	// descriptor before creation.
	GraphicsConfigurator pipeline.GraphicsConfigurator

	// RayTracingConfigurator, when set, adjusts the ray-tracing
	// pipeline descriptor before creation.
	RayTracingConfigurator pipeline.RayTracingConfigurator
}

// NewMetadataPass builds a pass from its metadata entry.
func NewMetadataPass(meta *PassMetadata, names *name.Table) (*MetadataPass, error) {
	passType, err := passTypeFromString(meta.Type)
	if err != nil {
		return nil, err
	}
	return &MetadataPass{
		meta:     meta,
		passType: passType,
		info: graph.PassInfo{
			Name:     names.Intern(meta.Name),
			Pipeline: names.Intern(meta.PipelineName()),
			Type:     passType,
		},
	}, nil
}

// Info implements Pass.
func (p *MetadataPass) Info() graph.PassInfo { return p.info }

// Metadata returns the pass's metadata entry.
func (p *MetadataPass) Metadata() *PassMetadata { return p.meta }

// ScheduleResources implements Pass: inputs become sampled reads,
// render-target entries become color/depth allocations or the back
// buffer, storage outputs become general-layout writes.
func (p *MetadataPass) ScheduleResources(ctx *Context) error {
	sched := ctx.Scheduler
	surface := sched.Surface()

	for _, input := range p.meta.InputTextures {
		texMeta := ctx.Metadata.Texture(input)
		texName := ctx.Names.Intern(input)

		switch {
		case texMeta.PreviousFrame:
			sched.ReadPreviousTexture(p.info.Name, texName, texMeta.Descriptor(surface.Width, surface.Height))
		case texMeta.PingPong:
			sched.ReadTexture(p.info.Name, sched.CurrentPingPong(texName))
		default:
			sched.ReadTexture(p.info.Name, texName)
		}
	}

	for i := range p.meta.RenderTargets {
		target := &p.meta.RenderTargets[i]
		if target.TextureName == "" {
			if err := sched.WriteToBackBuffer(p.info.Name); err != nil {
				return err
			}
			continue
		}

		texMeta := ctx.Metadata.Texture(target.TextureName)
		texName := ctx.Names.Intern(target.TextureName)
		if texMeta.PingPong {
			texName = sched.CurrentPingPong(texName)
		}
		desc := texMeta.Descriptor(surface.Width, surface.Height)

		if texMeta.ParsedFormat().IsDepthStencil() {
			sched.CreateDepthStencil(p.info.Name, texName, desc)
		} else {
			sched.CreateRenderTarget(p.info.Name, texName, desc)
		}
	}

	for _, output := range p.meta.OutputStorageTextures {
		texMeta := ctx.Metadata.Texture(output)
		surfaceDesc := texMeta.Descriptor(surface.Width, surface.Height)
		sched.CreateStorageTexture(p.info.Name, ctx.Names.Intern(output), surfaceDesc)
	}

	if p.meta.UseRayTracing {
		if err := sched.UseRayTracing(p.info.Name); err != nil {
			return err
		}
	}
	return nil
}

// CreatePipelines implements Pass, creating the pipeline the metadata
// block describes.
func (p *MetadataPass) CreatePipelines(ctx *Context) error {
	meta := p.PipelineMetadata(ctx)

	switch {
	case meta.IsRayTracing():
		return ctx.Pipelines.CreateRayTracingPipeline(meta, p.RayTracingConfigurator)
	case p.passType == graph.PassCompute || meta.IsCompute():
		return ctx.Pipelines.CreateComputePipeline(meta)
	default:
		return ctx.Pipelines.CreateGraphicsPipeline(meta, p.GraphicsConfigurator)
	}
}

// Execute implements Pass. The base pass records nothing.
func (p *MetadataPass) Execute(_ *Context, _ rhi.CommandBuffer) error {
	return nil
}

// PipelineMetadata resolves the pipeline block into the pipeline
// manager's metadata, deriving attachment formats from the render
// targets.
func (p *MetadataPass) PipelineMetadata(ctx *Context) *pipeline.Metadata {
	meta := &pipeline.Metadata{Name: p.meta.PipelineName()}

	for _, shader := range p.meta.Pipeline.Shaders {
		shaderType, _ := shaderTypeFromString(shader.Type)
		entryPoint := shader.EntryPoint
		if entryPoint == "" {
			entryPoint = "main"
		}
		meta.Shaders = append(meta.Shaders, pipeline.ShaderMetadata{
			Path:         shader.Path,
			Type:         shaderType,
			EntryPoint:   entryPoint,
			Defines:      shader.Defines,
			HitGroupType: hitGroupTypeFromString(shader.HitGroupType),
		})
	}

	surface := ctx.Scheduler.Surface()
	for i := range p.meta.RenderTargets {
		target := &p.meta.RenderTargets[i]
		if target.TextureName == "" {
			meta.ColorFormats = append(meta.ColorFormats, surface.RenderTargetFormat)
			continue
		}
		format := ctx.Metadata.Texture(target.TextureName).ParsedFormat()
		if format.IsDepthStencil() {
			meta.DepthStencilFormat = format
		} else {
			meta.ColorFormats = append(meta.ColorFormats, format)
		}
	}
	return meta
}

// FillRenderingBeginInfo resolves the pass's attachments for
// BeginRendering. Off-screen passes list their targets; the back-
// buffer pass contributes only clear values, the executor binds the
// swap chain.
func (p *MetadataPass) FillRenderingBeginInfo(ctx *Context, info *rhi.RenderingBeginInfo) error {
	switch info.Kind {
	case rhi.SwapChainPass:
		if len(p.meta.RenderTargets) > 0 {
			info.ClearValues = p.meta.RenderTargets[0].ClearValues()
		}
		return nil

	case rhi.OffscreenPass:
		for i := range p.meta.RenderTargets {
			target := &p.meta.RenderTargets[i]
			if target.TextureName == "" {
				return fmt.Errorf("pass: back-buffer target in off-screen pass %d", p.info.Name)
			}

			texMeta := ctx.Metadata.Texture(target.TextureName)
			texName := ctx.Names.Intern(target.TextureName)
			if texMeta.PingPong {
				texName = ctx.Scheduler.CurrentPingPong(texName)
			}

			isDepth := texMeta.ParsedFormat().IsDepthStencil()
			var view rhi.TextureView
			var err error
			if isDepth {
				view, err = ctx.Resources.DepthStencilView(p.info.Name, texName)
			} else {
				view, err = ctx.Resources.RenderTargetView(p.info.Name, texName, 0)
			}
			if err != nil {
				return err
			}

			info.RenderTargets = append(info.RenderTargets, rhi.RenderTarget{
				View:           view,
				IsDepthStencil: isDepth,
				LoadOp:         target.ParsedLoadOp(),
				StoreOp:        target.ParsedStoreOp(),
				ClearValues:    target.ClearValues(),
			})
		}
		return nil
	}
	return nil
}

// ParsedPassType exposes the parsed pass type.
func (p *MetadataPass) ParsedPassType() graph.PassType { return p.passType }

// CallbackPass is a MetadataPass with an Execute callback, for passes
// whose recording is a plain function (tests, demos, simple effects).
type CallbackPass struct {
	MetadataPass
	ExecuteFn func(ctx *Context, cmd rhi.CommandBuffer) error
}

// NewCallbackPass builds a callback pass from metadata.
func NewCallbackPass(meta *PassMetadata, names *name.Table, execute func(ctx *Context, cmd rhi.CommandBuffer) error) (*CallbackPass, error) {
	base, err := NewMetadataPass(meta, names)
	if err != nil {
		return nil, err
	}
	return &CallbackPass{MetadataPass: *base, ExecuteFn: execute}, nil
}

// Execute implements Pass.
func (p *CallbackPass) Execute(ctx *Context, cmd rhi.CommandBuffer) error {
	if p.ExecuteFn == nil {
		return nil
	}
	return p.ExecuteFn(ctx, cmd)
}
