// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package noop

import (
	"sync"

	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// CommandPool implements rhi.CommandPool. Allocated buffers are kept so
// Reset can recycle them, mirroring real pool semantics.
type CommandPool struct {
	mu      sync.Mutex
	queue   types.QueueType
	buffers []*CommandBuffer
}

// Allocate returns a fresh command buffer owned by the pool.
func (p *CommandPool) Allocate() (rhi.CommandBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd := &CommandBuffer{queue: p.queue}
	p.buffers = append(p.buffers, cmd)
	return cmd, nil
}

// Reset returns every buffer to the initial state.
func (p *CommandPool) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cmd := range p.buffers {
		cmd.reset()
	}
	return nil
}

// CommandBuffer implements rhi.CommandBuffer, recording a trace of the
// operations for test inspection.
type CommandBuffer struct {
	queue     types.QueueType
	recording bool

	// Trace of recorded operations, in order.
	Ops []string

	// Barriers accumulates every barrier recorded into this buffer.
	Barriers []rhi.PipelineBarrier
}

func (c *CommandBuffer) reset() {
	c.recording = false
	c.Ops = c.Ops[:0]
	c.Barriers = c.Barriers[:0]
}

func (c *CommandBuffer) record(op string) {
	c.Ops = append(c.Ops, op)
}

// Begin starts recording.
func (c *CommandBuffer) Begin() error {
	c.recording = true
	c.record("begin")
	return nil
}

// End finishes recording.
func (c *CommandBuffer) End() error {
	c.recording = false
	c.record("end")
	return nil
}

// BeginRendering records a render pass begin.
func (c *CommandBuffer) BeginRendering(info *rhi.RenderingBeginInfo) {
	if info.Kind == rhi.SwapChainPass {
		c.record("begin_rendering:swapchain")
		return
	}
	c.record("begin_rendering:offscreen")
}

// EndRendering records a render pass end.
func (c *CommandBuffer) EndRendering() {
	c.record("end_rendering")
}

// BindPipeline records a pipeline bind.
func (c *CommandBuffer) BindPipeline(pipeline rhi.Pipeline) {
	if p, ok := pipeline.(*Pipeline); ok {
		c.record("bind_pipeline:" + p.name)
		return
	}
	c.record("bind_pipeline")
}

// PushConstants records a push-constant update.
func (c *CommandBuffer) PushConstants(_ rhi.Pipeline, _ []byte) {
	c.record("push_constants")
}

// BindVertexBuffer records a vertex buffer bind.
func (c *CommandBuffer) BindVertexBuffer(_ uint32, _ rhi.Buffer, _ uint64) {
	c.record("bind_vertex_buffer")
}

// BindIndexBuffer records an index buffer bind.
func (c *CommandBuffer) BindIndexBuffer(_ rhi.Buffer, _ uint64) {
	c.record("bind_index_buffer")
}

// Draw records a draw.
func (c *CommandBuffer) Draw(_, _, _, _ uint32) {
	c.record("draw")
}

// DrawIndexed records an indexed draw.
func (c *CommandBuffer) DrawIndexed(_, _, _ uint32, _ int32, _ uint32) {
	c.record("draw_indexed")
}

// DrawIndexedIndirect records an indirect indexed draw.
func (c *CommandBuffer) DrawIndexedIndirect(_ rhi.Buffer, _ uint64, _, _ uint32) {
	c.record("draw_indexed_indirect")
}

// Dispatch records a compute dispatch.
func (c *CommandBuffer) Dispatch(_, _, _ uint32) {
	c.record("dispatch")
}

// DispatchRays records a ray dispatch.
func (c *CommandBuffer) DispatchRays(_ *rhi.DispatchRaysInfo) {
	c.record("dispatch_rays")
}

// CopyBuffer records a buffer copy.
func (c *CommandBuffer) CopyBuffer(_, _ rhi.Buffer, _ []rhi.BufferCopy) {
	c.record("copy_buffer")
}

// CopyTexture records a texture copy.
func (c *CommandBuffer) CopyTexture(_, _ rhi.Texture, _ []rhi.TextureCopy) {
	c.record("copy_texture")
}

// AddPipelineBarriers records the transitions.
func (c *CommandBuffer) AddPipelineBarriers(barriers []rhi.PipelineBarrier) {
	c.Barriers = append(c.Barriers, barriers...)
	c.record("pipeline_barriers")
}
