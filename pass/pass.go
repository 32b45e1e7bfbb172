// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pass

import (
	"fmt"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/rhi"
)

// Context bundles what passes may touch from their hooks. The renderer
// builds one and keeps it alive for its lifetime.
type Context struct {
	Names     *name.Table
	Graph     *graph.Graph
	Scheduler *resource.Scheduler
	Resources *resource.Manager
	Pipelines *pipeline.Manager
	Metadata  *GraphMetadata
}

// Pass is one opaque unit of GPU work.
type Pass interface {
	// Info identifies the pass to the graph compiler.
	Info() graph.PassInfo

	// ScheduleResources declares the frame's resource dependencies
	// through the scheduling DSL. Called every frame.
	ScheduleResources(ctx *Context) error

	// CreatePipelines creates the pass's pipelines. Called once at
	// startup, dispatched on the task pool.
	CreatePipelines(ctx *Context) error

	// Execute records the pass's commands. The command buffer has the
	// right attachments bound and every declared view in its requested
	// layout.
	Execute(ctx *Context, cmd rhi.CommandBuffer) error
}

// Container holds passes in insertion order, which is the order they
// schedule in. Execution order is decided by the graph, not by the
// container.
type Container struct {
	passes []Pass
	byName map[name.Name]Pass
}

// NewContainer creates an empty pass container.
func NewContainer() *Container {
	return &Container{byName: make(map[name.Name]Pass)}
}

// Add registers a pass. Duplicate names are rejected.
func (c *Container) Add(p Pass) error {
	passName := p.Info().Name
	if _, ok := c.byName[passName]; ok {
		return fmt.Errorf("pass: duplicate pass %d", passName)
	}
	c.byName[passName] = p
	c.passes = append(c.passes, p)
	return nil
}

// Pass returns a pass by name, or nil.
func (c *Container) Pass(passName name.Name) Pass {
	return c.byName[passName]
}

// Passes returns the passes in insertion order.
func (c *Container) Passes() []Pass {
	return c.passes
}
