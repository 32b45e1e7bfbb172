// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"fmt"
	"sync"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/pass"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/task"
	"github.com/gogpu/framegraph/types"
)

// dependencyLevelContext groups the nodes of one dependency level that
// landed in one submit context. Each records into one command buffer.
type dependencyLevelContext struct {
	levelIndex uint32
	nodes      []uint32
	cmd        rhi.CommandBuffer
}

// submitContext is one logical submission to a single queue: a run of
// command buffers with a uniform wait/signal semaphore set.
type submitContext struct {
	queue           types.QueueType
	signalSemaphore rhi.Semaphore
	waitSemaphores  []rhi.Semaphore
	levelContexts   []dependencyLevelContext
}

// attachmentFiller is implemented by passes that can describe their
// attachments (MetadataPass does). Graphics passes without it render
// with no attachments, which only makes sense for the back buffer.
type attachmentFiller interface {
	FillRenderingBeginInfo(ctx *pass.Context, info *rhi.RenderingBeginInfo) error
}

// configureSubmitContexts walks nodes in global execution order and
// groups them into per-queue submits. A new context opens when the
// queue has none yet, when the node carries explicit waits, or when a
// ray-tracing node must wait on the outstanding BVH-build semaphore.
func (r *Renderer) configureSubmitContexts() error {
	queueCount := r.g.DetectedQueueCount()
	lastPerQueue := make([]int, queueCount)
	for i := range lastPerQueue {
		lastPerQueue[i] = -1
	}

	signalByNode := make(map[uint32]rhi.Semaphore)
	bvhWaitOutstanding := r.frame.bvhSemaphore != nil

	for _, nodeIdx := range r.g.NodesInExecOrder() {
		node := r.g.NodeAt(nodeIdx)
		queueIdx := node.QueueIndex()

		needsBVHWait := node.UseRayTracing() && bvhWaitOutstanding
		ctxIdx := lastPerQueue[queueIdx]
		if ctxIdx < 0 || len(node.NodesToSyncWith()) > 0 || needsBVHWait {
			r.frame.submitContexts = append(r.frame.submitContexts, submitContext{
				queue: types.QueueType(queueIdx),
			})
			ctxIdx = len(r.frame.submitContexts) - 1
			lastPerQueue[queueIdx] = ctxIdx
		}
		ctx := &r.frame.submitContexts[ctxIdx]

		if node.SyncSignalRequired() {
			if ctx.signalSemaphore == nil {
				sem, err := r.syncs.semaphore()
				if err != nil {
					return err
				}
				r.device.SetName(sem, r.names.String(node.Info().Name))
				ctx.signalSemaphore = sem
			}
			// The context signals once, after its last command buffer,
			// so that semaphore covers every node recorded into it.
			signalByNode[nodeIdx] = ctx.signalSemaphore
		}

		for _, depIdx := range node.NodesToSyncWith() {
			sem, ok := signalByNode[depIdx]
			if !ok {
				return fmt.Errorf("framegraph: node %d waits on node %d which has no signal semaphore",
					nodeIdx, depIdx)
			}
			ctx.waitSemaphores = append(ctx.waitSemaphores, sem)
		}

		if needsBVHWait {
			ctx.waitSemaphores = append(ctx.waitSemaphores, r.frame.bvhSemaphore)
			// Later ray-tracing submits order behind this one on the
			// queue; a second wait would be redundant.
			bvhWaitOutstanding = false
		}

		levelIdx := node.DependencyLevelIndex()
		if n := len(ctx.levelContexts); n == 0 || ctx.levelContexts[n-1].levelIndex != levelIdx {
			ctx.levelContexts = append(ctx.levelContexts, dependencyLevelContext{levelIndex: levelIdx})
		}
		last := &ctx.levelContexts[len(ctx.levelContexts)-1]
		last.nodes = append(last.nodes, nodeIdx)
	}
	return nil
}

// configurePipelineBarriers resolves, per dependency level, the layout
// every read and written view must transition into, and collects the
// resulting barriers per pass. Views read by multiple queues within a
// level transition once, into the bitwise union of every reader's
// requested layout.
func (r *Renderer) configurePipelineBarriers() error {
	backBuffer := r.scheduler.BackBuffer()

	levels := r.g.DependencyLevels()
	for levelIdx := range levels {
		level := &levels[levelIdx]

		for _, nodeIdx := range level.Nodes() {
			node := r.g.NodeAt(nodeIdx)

			for view := range node.ReadViews() {
				if err := r.addTransition(level, node, view, backBuffer, true); err != nil {
					return err
				}
			}
			for view := range node.WrittenViews() {
				if err := r.addTransition(level, node, view, backBuffer, false); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Renderer) addTransition(level *graph.DependencyLevel, node *graph.Node, view graph.ViewName, backBuffer name.Name, isRead bool) error {
	resName := view.Resource()
	viewIdx := view.ViewIndex()
	passName := node.Info().Name

	if resName == backBuffer {
		if r.frame.backBufferNode != nil && r.frame.backBufferNode != node {
			return &MultipleBackBufferWritesError{
				First:  r.frame.backBufferNode.Info().Name,
				Second: passName,
			}
		}
		// The swap-chain path owns the back buffer's transitions.
		r.frame.backBufferNode = node
		return nil
	}

	res := r.resources.Resource(resName)
	if res == nil {
		return &MissingWriterError{Pass: passName, Resource: resName}
	}
	passInfo := res.SchedulingInfo().PassInfo(passName)
	if passInfo == nil || int(viewIdx) >= len(passInfo.ViewInfos) || passInfo.ViewInfos[viewIdx] == nil {
		return &MissingWriterError{Pass: passName, Resource: resName}
	}

	var newLayout types.ResourceLayout
	if isRead && level.ViewsReadByMultipleQueues().Contains(view) {
		newLayout = r.unionReadLayout(level, view, res)
	} else {
		newLayout = passInfo.ViewInfos[viewIdx].RequestedLayout
	}

	barrier, err := r.tracker.TransitionToLayout(res, newLayout, viewIdx)
	if err != nil {
		return err
	}
	if barrier != nil {
		r.frame.barriersByPass[passName] = append(r.frame.barriersByPass[passName], *barrier)
	}
	return nil
}

// unionReadLayout ORs the requested layouts of every node reading the
// view within the level, so one conservative transition serves all
// readers.
func (r *Renderer) unionReadLayout(level *graph.DependencyLevel, view graph.ViewName, res *resource.Resource) types.ResourceLayout {
	viewIdx := view.ViewIndex()
	layout := types.LayoutUndefined

	for _, otherIdx := range level.Nodes() {
		other := r.g.NodeAt(otherIdx)
		if !other.ReadViews().Contains(view) {
			continue
		}
		otherInfo := res.SchedulingInfo().PassInfo(other.Info().Name)
		if otherInfo == nil || int(viewIdx) >= len(otherInfo.ViewInfos) || otherInfo.ViewInfos[viewIdx] == nil {
			continue
		}
		layout |= otherInfo.ViewInfos[viewIdx].RequestedLayout
	}
	return layout
}

// allocateBackBufferSemaphore gives the back-buffer node's submit a
// signal semaphore; present waits on it.
func (r *Renderer) allocateBackBufferSemaphore() error {
	if r.frame.backBufferNode == nil {
		return nil
	}
	bbIdx := r.frame.backBufferNode.Index()

	for i := range r.frame.submitContexts {
		ctx := &r.frame.submitContexts[i]
		for _, lvl := range ctx.levelContexts {
			for _, nodeIdx := range lvl.nodes {
				if nodeIdx != bbIdx {
					continue
				}
				if ctx.signalSemaphore == nil {
					sem, err := r.syncs.semaphore()
					if err != nil {
						return err
					}
					r.device.SetName(sem, "BackBufferSemaphore")
					ctx.signalSemaphore = sem
				}
				r.frame.backBufferSemaphore = ctx.signalSemaphore

				// Without an upload submit ahead of the graph, the
				// acquire semaphore is still unconsumed; the submit
				// touching the swap-chain image waits on it.
				if r.frame.uploadSemaphore == nil && r.frame.acquireSemaphore != nil {
					ctx.waitSemaphores = append(ctx.waitSemaphores, r.frame.acquireSemaphore)
				}
				return nil
			}
		}
	}
	return nil
}

// recordWorkerCmds records one command buffer per (submit context,
// dependency level) pair, in parallel on the high-priority workers.
func (r *Renderer) recordWorkerCmds() error {
	r.pool.Wait(r.predrawGroup)

	var errMu sync.Mutex
	var firstErr error
	setErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for ctxIdx := range r.frame.submitContexts {
		ctx := &r.frame.submitContexts[ctxIdx]
		for lvlIdx := range ctx.levelContexts {
			levelCtx := &ctx.levelContexts[lvlIdx]
			r.pool.Execute(r.recordGroup, func(task.ExecutionInfo) {
				if err := r.recordLevelContext(ctx, levelCtx); err != nil {
					setErr(err)
				}
			})
		}
	}

	r.pool.Wait(r.recordGroup)
	return firstErr
}

func (r *Renderer) recordLevelContext(ctx *submitContext, levelCtx *dependencyLevelContext) error {
	allocator := r.commands.borrow()
	defer r.commands.giveBack(allocator)

	cmd, err := allocator.get(ctx.queue)
	if err != nil {
		return err
	}
	levelCtx.cmd = cmd

	if err := cmd.Begin(); err != nil {
		return err
	}

	for _, nodeIdx := range levelCtx.nodes {
		node := r.g.NodeAt(nodeIdx)
		passName := node.Info().Name
		p := r.container.Pass(passName)
		if p == nil {
			return fmt.Errorf("framegraph: no pass registered for node %d", nodeIdx)
		}

		if barriers := r.frame.barriersByPass[passName]; len(barriers) > 0 {
			cmd.AddPipelineBarriers(barriers)
		}

		requiresRendering := ctx.queue == types.QueueGraphics && !node.UseRayTracing()
		if requiresRendering {
			info := rhi.RenderingBeginInfo{Kind: rhi.OffscreenPass}
			if r.frame.backBufferNode == node {
				info.Kind = rhi.SwapChainPass
				info.SwapChain = r.swapChain
			}
			if filler, ok := p.(attachmentFiller); ok {
				if err := filler.FillRenderingBeginInfo(r.passCtx, &info); err != nil {
					return err
				}
			}
			cmd.BeginRendering(&info)
		}

		if err := p.Execute(r.passCtx, cmd); err != nil {
			return err
		}

		if requiresRendering {
			cmd.EndRendering()
		}
	}

	return cmd.End()
}

// submit flushes the dedicated upload and BVH submits, then the worker
// submit contexts in order, one fence each.
func (r *Renderer) submit() error {
	if r.frame.uploadRequired {
		fence, err := r.syncs.fence()
		if err != nil {
			return err
		}
		if err := r.device.Submit(&r.frame.uploadSubmit, fence); err != nil {
			return err
		}
	}
	if r.frame.bvhRequired {
		fence, err := r.syncs.fence()
		if err != nil {
			return err
		}
		if err := r.device.Submit(&r.frame.bvhSubmit, fence); err != nil {
			return err
		}
	}

	for i := range r.frame.submitContexts {
		ctx := &r.frame.submitContexts[i]

		info := rhi.SubmitInfo{Queue: ctx.queue}
		for _, lvl := range ctx.levelContexts {
			info.CommandBuffers = append(info.CommandBuffers, lvl.cmd)
		}
		if ctx.signalSemaphore != nil {
			info.SignalSemaphores = append(info.SignalSemaphores, ctx.signalSemaphore)
		}
		info.WaitSemaphores = ctx.waitSemaphores

		fence, err := r.syncs.fence()
		if err != nil {
			return err
		}
		if err := r.device.Submit(&info, fence); err != nil {
			return err
		}
	}
	return nil
}
