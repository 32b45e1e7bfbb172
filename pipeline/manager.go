// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"sync"

	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/task"
	"github.com/gogpu/framegraph/types"
)

// GraphicsConfigurator lets a pass adjust the graphics pipeline
// descriptor before creation (blend state, depth state and the like).
type GraphicsConfigurator func(*rhi.GraphicsPipelineDescriptor)

// RayTracingConfigurator lets a pass adjust the ray-tracing pipeline
// descriptor before creation.
type RayTracingConfigurator func(*rhi.RayTracingPipelineDescriptor)

// Manager creates pipelines from metadata, one per pass, and serves
// binds at record time. The map is guarded by a coarse mutex; the
// create work itself runs lock-free on the task pool.
type Manager struct {
	device  rhi.Device
	shaders *ShaderManager
	pool    *task.Pool
	group   *task.Group

	mu        sync.Mutex
	pipelines map[string]rhi.Pipeline
	buildErr  error
}

// NewManager creates a pipeline manager on top of a shader manager.
func NewManager(device rhi.Device, shaders *ShaderManager, pool *task.Pool) *Manager {
	return &Manager{
		device:    device,
		shaders:   shaders,
		pool:      pool,
		group:     task.NewGroup(task.PriorityLow),
		pipelines: make(map[string]rhi.Pipeline),
	}
}

// Dispatch queues pipeline-creation work on the pool. Errors are
// collected and surfaced by WaitPipelinesCreation.
func (m *Manager) Dispatch(build func() error) {
	m.pool.Execute(m.group, func(task.ExecutionInfo) {
		if err := build(); err != nil {
			m.mu.Lock()
			if m.buildErr == nil {
				m.buildErr = err
			}
			m.mu.Unlock()
		}
	})
}

// WaitPipelinesCreation blocks until all dispatched builds finish and
// returns the first error, if any.
func (m *Manager) WaitPipelinesCreation() error {
	m.pool.Wait(m.group)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buildErr
}

// CreateGraphicsPipeline creates a graphics pipeline from metadata,
// optionally adjusted by a configurator.
func (m *Manager) CreateGraphicsPipeline(meta *Metadata, configurator GraphicsConfigurator) error {
	stages, err := m.loadStages(meta)
	if err != nil {
		return err
	}

	desc := &rhi.GraphicsPipelineDescriptor{
		Name:               meta.Name,
		Stages:             stages,
		ColorFormats:       meta.ColorFormats,
		DepthStencilFormat: meta.DepthStencilFormat,
		SampleCount:        types.SampleCount1,
	}
	if meta.DepthStencilFormat != types.FormatUndefined {
		desc.DepthTestEnabled = true
		desc.DepthWriteEnabled = true
	}
	if configurator != nil {
		configurator(desc)
	}

	pipeline, err := m.device.CreateGraphicsPipeline(desc)
	if err != nil {
		return err
	}
	m.store(meta.Name, pipeline)
	return nil
}

// CreateComputePipeline creates a compute pipeline from metadata.
func (m *Manager) CreateComputePipeline(meta *Metadata) error {
	stages, err := m.loadStages(meta)
	if err != nil {
		return err
	}
	if len(stages) == 0 {
		return &ShaderCompileError{Path: meta.Name, Diagnostics: "compute pipeline has no shader stage"}
	}

	pipeline, err := m.device.CreateComputePipeline(&rhi.ComputePipelineDescriptor{
		Name:  meta.Name,
		Stage: stages[0],
	})
	if err != nil {
		return err
	}
	m.store(meta.Name, pipeline)
	return nil
}

// CreateRayTracingPipeline creates a ray-tracing pipeline, grouping
// hit shaders into hit groups.
func (m *Manager) CreateRayTracingPipeline(meta *Metadata, configurator RayTracingConfigurator) error {
	stages, err := m.loadStages(meta)
	if err != nil {
		return err
	}

	desc := &rhi.RayTracingPipelineDescriptor{
		Name:              meta.Name,
		Stages:            stages,
		HitGroups:         buildHitGroups(meta.Shaders),
		MaxRecursionDepth: 1,
	}
	if configurator != nil {
		configurator(desc)
	}

	pipeline, err := m.device.CreateRayTracingPipeline(desc)
	if err != nil {
		return err
	}
	m.store(meta.Name, pipeline)
	return nil
}

// buildHitGroups assigns hit stages to groups: consecutive hit shaders
// of the same geometry type share a group until a slot collision (a
// second closest-hit or a second any-hit) forces a new one.
func buildHitGroups(shaders []ShaderMetadata) []rhi.HitGroup {
	var groups []rhi.HitGroup
	var current *rhi.HitGroup

	for i := range shaders {
		shader := &shaders[i]
		if !shader.Type.IsHit() {
			continue
		}

		slotTaken := func(g *rhi.HitGroup) bool {
			if shader.Type == types.ShaderTypeClosestHit {
				return g.ClosestHit >= 0
			}
			return g.AnyHit >= 0
		}

		if current == nil || current.Type != shader.HitGroupType || slotTaken(current) {
			groups = append(groups, rhi.HitGroup{Type: shader.HitGroupType, ClosestHit: -1, AnyHit: -1})
			current = &groups[len(groups)-1]
		}

		if shader.Type == types.ShaderTypeClosestHit {
			current.ClosestHit = i
		} else {
			current.AnyHit = i
		}
	}
	return groups
}

func (m *Manager) loadStages(meta *Metadata) ([]rhi.ShaderStage, error) {
	stages := make([]rhi.ShaderStage, 0, len(meta.Shaders))
	for i := range meta.Shaders {
		shaderMeta := meta.Shaders[i]
		shader, err := m.shaders.Shader(shaderMeta)
		if err != nil {
			return nil, err
		}
		stages = append(stages, rhi.ShaderStage{
			Shader:     shader,
			Type:       shaderMeta.Type,
			EntryPoint: shaderMeta.EntryPoint,
		})
	}
	return stages, nil
}

func (m *Manager) store(pipelineName string, pipeline rhi.Pipeline) {
	m.mu.Lock()
	m.pipelines[pipelineName] = pipeline
	m.mu.Unlock()
}

// Pipeline returns a created pipeline, or nil.
func (m *Manager) Pipeline(pipelineName string) rhi.Pipeline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipelines[pipelineName]
}

// BindPipeline binds a named pipeline into the command buffer.
func (m *Manager) BindPipeline(cmd rhi.CommandBuffer, pipelineName string) error {
	pipeline := m.Pipeline(pipelineName)
	if pipeline == nil {
		return &UnknownPipelineError{Name: pipelineName}
	}
	cmd.BindPipeline(pipeline)
	return nil
}

// PushConstants pushes constants against a named pipeline's layout.
func (m *Manager) PushConstants(cmd rhi.CommandBuffer, pipelineName string, data []byte) error {
	pipeline := m.Pipeline(pipelineName)
	if pipeline == nil {
		return &UnknownPipelineError{Name: pipelineName}
	}
	cmd.PushConstants(pipeline, data)
	return nil
}

// RequestShaders queues loads for every shader of the metadata.
func (m *Manager) RequestShaders(meta *Metadata) {
	for i := range meta.Shaders {
		m.shaders.RequestShaderLoad(meta.Shaders[i])
	}
}

// Shutdown destroys created pipelines.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pipelines {
		m.device.DestroyPipeline(p)
	}
	clear(m.pipelines)
}
