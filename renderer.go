// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/pass"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/task"
	"github.com/gogpu/framegraph/types"
)

// Renderer owns the frame-graph core: graph, transient resources,
// pipelines, the worker pool and the per-frame execution state.
type Renderer struct {
	device rhi.Device
	config Config

	names     *name.Table
	g         *graph.Graph
	tracker   *resource.Tracker
	resources *resource.Manager
	scheduler *resource.Scheduler
	shaders   *pipeline.ShaderManager
	pipelines *pipeline.Manager
	cache     *pipeline.Cache
	pool      *task.Pool
	container *pass.Container
	metadata  *pass.GraphMetadata
	passCtx   *pass.Context

	syncs    *syncManager
	commands *commandManager
	deletion *deletionQueue

	swapChain rhi.SwapChain
	uploader  SceneUploader

	frameNumber uint64
	frameIndex  uint32

	// Per-frame execution state, rebuilt every Draw.
	frame frameState

	predrawGroup *task.Group
	recordGroup  *task.Group
}

// frameState is the per-frame scratch the executor rebuilds in Draw.
type frameState struct {
	acquireSemaphore    rhi.Semaphore
	uploadSemaphore     rhi.Semaphore
	bvhSemaphore        rhi.Semaphore
	backBufferSemaphore rhi.Semaphore

	uploadSubmit    rhi.SubmitInfo
	bvhSubmit       rhi.SubmitInfo
	uploadRequired  bool
	bvhRequired     bool

	backBufferNode *graph.Node
	submitContexts []submitContext
	barriersByPass map[name.Name][]rhi.PipelineBarrier
}

// New creates a renderer over an opened device. The graph metadata is
// read once; pipelines and shaders build asynchronously and New blocks
// until they finish, failing on the first compile error.
func New(device rhi.Device, config *Config) (*Renderer, error) {
	cfg := config.withDefaults()

	r := &Renderer{
		device:       device,
		config:       cfg,
		names:        name.NewTable(),
		g:            graph.New(),
		tracker:      resource.NewTracker(),
		pool:         task.NewPool(cfg.MaxWorkerThreads),
		container:    pass.NewContainer(),
		deletion:     newDeletionQueue(cfg.BufferCount),
		predrawGroup: task.NewGroup(task.PriorityHigh),
		recordGroup:  task.NewGroup(task.PriorityHigh),
	}
	r.frame.barriersByPass = make(map[name.Name][]rhi.PipelineBarrier)

	r.resources = resource.NewManager(device, r.tracker, r.names, r.deletion)
	r.scheduler = resource.NewScheduler(r.g, r.resources, r.names, resource.SurfaceInfo{
		Width:              cfg.Width,
		Height:             cfg.Height,
		RenderTargetFormat: cfg.RenderTargetFormat,
		DepthStencilFormat: cfg.DepthStencilFormat,
	})

	if cfg.ShaderCacheDir != "" {
		cache, err := pipeline.NewCache(cfg.ShaderCacheDir)
		if err != nil {
			r.pool.Shutdown()
			return nil, fmt.Errorf("framegraph: opening shader cache: %w", err)
		}
		r.cache = cache
	}
	r.shaders = pipeline.NewShaderManager(device, r.pool, cfg.ShaderDir, r.cache)
	r.pipelines = pipeline.NewManager(device, r.shaders, r.pool)

	r.passCtx = &pass.Context{
		Names:     r.names,
		Graph:     r.g,
		Scheduler: r.scheduler,
		Resources: r.resources,
		Pipelines: r.pipelines,
	}

	if err := r.loadGraph(); err != nil {
		r.pool.Shutdown()
		return nil, err
	}
	if err := r.createPipelines(); err != nil {
		r.pool.Shutdown()
		return nil, err
	}

	syncs, err := newSyncManager(device, cfg.BufferCount)
	if err != nil {
		r.pool.Shutdown()
		return nil, err
	}
	r.syncs = syncs
	r.commands = newCommandManager(device, cfg.BufferCount)

	r.swapChain, err = device.CreateSwapChain(&rhi.SwapChainDescriptor{
		Width:         cfg.Width,
		Height:        cfg.Height,
		BufferCount:   cfg.BufferCount,
		Format:        cfg.SwapChainFormat,
		VSync:         cfg.VSync,
		DisplayHandle: cfg.DisplayHandle,
		WindowHandle:  cfg.WindowHandle,
	})
	if err != nil {
		r.pool.Shutdown()
		return nil, fmt.Errorf("framegraph: creating swap chain: %w", err)
	}

	rhi.Logger().Info("renderer initialized",
		"passes", r.g.NodeCount(), "buffers", cfg.BufferCount)
	return r, nil
}

// loadGraph reads the metadata document and registers passes and graph
// nodes from it.
func (r *Renderer) loadGraph() error {
	meta := r.config.Metadata
	if meta == nil {
		var err error
		meta, err = pass.LoadGraphMetadata(r.config.MetadataPath)
		if err != nil {
			return err
		}
	}
	r.metadata = meta
	r.passCtx.Metadata = meta

	factory := r.config.PassFactory
	if factory == nil {
		factory = func(m *pass.PassMetadata, names *name.Table) (pass.Pass, error) {
			return pass.NewMetadataPass(m, names)
		}
	}

	for i := range meta.RenderPasses {
		p, err := factory(&meta.RenderPasses[i], r.names)
		if err != nil {
			return err
		}
		if err := r.container.Add(p); err != nil {
			return err
		}
		r.g.AddNode(p.Info())
	}

	rhi.Logger().Info("render graph loaded", "passes", len(meta.RenderPasses))
	return nil
}

// createPipelines builds every pass's pipelines on the pool and waits.
// Shaders load on demand as each pipeline build asks for them.
func (r *Renderer) createPipelines() error {
	for _, p := range r.container.Passes() {
		p := p
		r.pipelines.Dispatch(func() error {
			return p.CreatePipelines(r.passCtx)
		})
	}
	return r.pipelines.WaitPipelinesCreation()
}

// SetSceneUploader installs the upload collaborator. Optional; without
// one, frames carry no upload or BVH submits.
func (r *Renderer) SetSceneUploader(u SceneUploader) {
	r.uploader = u
}

// Names returns the renderer's intern table.
func (r *Renderer) Names() *name.Table { return r.names }

// Graph returns the render graph.
func (r *Renderer) Graph() *graph.Graph { return r.g }

// Resources returns the transient resource manager.
func (r *Renderer) Resources() *resource.Manager { return r.resources }

// Device returns the RHI device.
func (r *Renderer) Device() rhi.Device { return r.device }

// FrameNumber returns the number of frames drawn.
func (r *Renderer) FrameNumber() uint64 { return r.frameNumber }

// Predraw runs one-shot preparation work (e.g. font-texture upload)
// before the first frame. Safe to call when there is nothing to do.
func (r *Renderer) Predraw() error {
	preparer, ok := r.uploader.(Preparer)
	if !ok || !preparer.NeedsPreparation() {
		return nil
	}

	if err := r.commands.beginFrame(r.frameIndex); err != nil {
		return err
	}
	r.syncs.beginFrame(r.frameIndex)

	cmd, err := r.commands.getCmd(types.QueueGraphics)
	if err != nil {
		return err
	}
	if err := cmd.Begin(); err != nil {
		return err
	}
	if err := preparer.RecordPreparation(cmd); err != nil {
		return err
	}
	if err := cmd.End(); err != nil {
		return err
	}

	fence, err := r.syncs.fence()
	if err != nil {
		return err
	}
	if err := r.device.Submit(&rhi.SubmitInfo{
		Queue:          types.QueueGraphics,
		CommandBuffers: []rhi.CommandBuffer{cmd},
	}, fence); err != nil {
		return err
	}
	return r.syncs.waitFences()
}

// Draw renders one frame: acquire, schedule, compile, allocate,
// record in parallel, submit, present. A swap-chain-out-of-date
// acquire or present recreates the chain and skips the frame.
func (r *Renderer) Draw() error {
	if r.g.NodeCount() == 0 {
		return nil
	}
	r.frameNumber++

	if err := r.acquireNextImage(); err != nil {
		if errors.Is(err, rhi.ErrSwapChainOutOfDate) {
			return r.recreateSwapChain()
		}
		return err
	}

	if err := r.beginFrame(); err != nil {
		return err
	}
	if err := r.scheduleFrame(); err != nil {
		return err
	}
	if err := r.prepareExecution(); err != nil {
		return err
	}
	if err := r.executeGraph(); err != nil {
		return err
	}
	if err := r.present(); err != nil {
		if errors.Is(err, rhi.ErrSwapChainOutOfDate) {
			err = r.recreateSwapChain()
		}
		if err != nil {
			return err
		}
	}
	return r.endFrame()
}

func (r *Renderer) acquireNextImage() error {
	// Enter the ring slot first: waitFences then retires what this
	// slot had in flight a full ring ago, making its pools and
	// semaphores safe to recycle.
	r.syncs.beginFrame(r.frameIndex)
	if err := r.syncs.waitFences(); err != nil {
		return err
	}
	r.frame.acquireSemaphore = r.syncs.acquireSemaphore()

	fence, err := r.syncs.fence()
	if err != nil {
		return err
	}
	if _, err := r.device.AcquireNextImage(r.swapChain, r.frame.acquireSemaphore, fence); err != nil {
		return err
	}
	return r.syncs.waitFences()
}

func (r *Renderer) beginFrame() error {
	if err := r.commands.beginFrame(r.frameIndex); err != nil {
		return err
	}
	r.resources.BeginFrame()
	r.scheduler.BeginFrame(r.frameNumber)

	r.frame.uploadSemaphore = nil
	r.frame.bvhSemaphore = nil
	r.frame.backBufferSemaphore = nil
	r.frame.backBufferNode = nil
	r.frame.uploadRequired = false
	r.frame.bvhRequired = false
	r.frame.submitContexts = r.frame.submitContexts[:0]
	clear(r.frame.barriersByPass)

	// Re-entering a ring slot means its fences retired a full ring
	// ago; whatever it queued for deletion is safe to destroy now.
	r.deletion.beginFrame(r.frameIndex)

	return r.recordPredrawCmds()
}

// recordPredrawCmds records the upload and BVH-build command buffers
// on the pool while scheduling proceeds on this thread.
func (r *Renderer) recordPredrawCmds() error {
	if r.uploader == nil {
		return nil
	}

	uploadPending := r.uploader.HasPendingUploads()
	bvhDirty := r.uploader.IsBVHDirty()
	if !uploadPending && !bvhDirty {
		return nil
	}

	if uploadPending {
		sem, err := r.syncs.semaphore()
		if err != nil {
			return err
		}
		r.device.SetName(sem, "UploadSemaphore")
		r.frame.uploadSemaphore = sem
	}
	if bvhDirty {
		sem, err := r.syncs.semaphore()
		if err != nil {
			return err
		}
		r.device.SetName(sem, "BVHBuildSemaphore")
		r.frame.bvhSemaphore = sem
	}

	r.pool.Execute(r.predrawGroup, func(task.ExecutionInfo) {
		if uploadPending {
			if err := r.recordUploadCmd(); err != nil {
				panic(err)
			}
		}
		if bvhDirty {
			if err := r.recordBVHBuildCmd(); err != nil {
				panic(err)
			}
		}
	})
	return nil
}

func (r *Renderer) recordUploadCmd() error {
	cmd, err := r.commands.getCmd(types.QueueGraphics)
	if err != nil {
		return err
	}
	if err := cmd.Begin(); err != nil {
		return err
	}
	if err := r.uploader.RecordUploads(cmd); err != nil {
		return err
	}
	if err := cmd.End(); err != nil {
		return err
	}

	r.frame.uploadSubmit.Clear()
	r.frame.uploadSubmit.Queue = types.QueueGraphics
	r.frame.uploadSubmit.CommandBuffers = append(r.frame.uploadSubmit.CommandBuffers, cmd)
	r.frame.uploadSubmit.SignalSemaphores = append(r.frame.uploadSubmit.SignalSemaphores, r.frame.uploadSemaphore)
	r.frame.uploadSubmit.WaitSemaphores = append(r.frame.uploadSubmit.WaitSemaphores, r.frame.acquireSemaphore)
	r.frame.uploadRequired = true
	return nil
}

func (r *Renderer) recordBVHBuildCmd() error {
	cmd, err := r.commands.getCmd(types.QueueCompute)
	if err != nil {
		return err
	}
	if err := cmd.Begin(); err != nil {
		return err
	}
	if err := r.uploader.RecordBVHBuild(cmd); err != nil {
		return err
	}
	if err := cmd.End(); err != nil {
		return err
	}

	r.frame.bvhSubmit.Clear()
	r.frame.bvhSubmit.Queue = types.QueueCompute
	r.frame.bvhSubmit.CommandBuffers = append(r.frame.bvhSubmit.CommandBuffers, cmd)
	r.frame.bvhSubmit.SignalSemaphores = append(r.frame.bvhSubmit.SignalSemaphores, r.frame.bvhSemaphore)
	if r.frame.uploadSemaphore != nil {
		r.frame.bvhSubmit.WaitSemaphores = append(r.frame.bvhSubmit.WaitSemaphores, r.frame.uploadSemaphore)
	}
	r.frame.bvhRequired = true
	return nil
}

// scheduleFrame clears the previous frame's graph state, lets every
// pass declare its resources, compiles the graph and allocates.
func (r *Renderer) scheduleFrame() error {
	r.g.Clear()
	r.resources.BeginResourceScheduling()

	for _, p := range r.container.Passes() {
		if err := p.ScheduleResources(r.passCtx); err != nil {
			return err
		}
	}
	if err := r.resources.EndResourceScheduling(); err != nil {
		return err
	}
	if err := r.g.Build(); err != nil {
		return err
	}
	return r.resources.AllocateScheduledResources()
}

func (r *Renderer) prepareExecution() error {
	if err := r.configureSubmitContexts(); err != nil {
		return err
	}
	if err := r.configurePipelineBarriers(); err != nil {
		return err
	}
	if err := r.allocateBackBufferSemaphore(); err != nil {
		return err
	}
	return r.pipelines.WaitPipelinesCreation()
}

func (r *Renderer) executeGraph() error {
	if err := r.recordWorkerCmds(); err != nil {
		return err
	}
	return r.submit()
}

func (r *Renderer) present() error {
	if r.frame.backBufferSemaphore == nil {
		// No pass wrote the back buffer; nothing to present.
		return nil
	}
	return r.device.Present(&rhi.PresentInfo{
		SwapChains:     []rhi.SwapChain{r.swapChain},
		WaitSemaphores: []rhi.Semaphore{r.frame.backBufferSemaphore},
	})
}

func (r *Renderer) endFrame() error {
	r.resources.EndFrame()
	r.frameIndex = (r.frameIndex + 1) % r.config.BufferCount
	return nil
}

func (r *Renderer) recreateSwapChain() error {
	for q := types.QueueType(0); q < types.QueueCount; q++ {
		if err := r.device.WaitQueueIdle(q); err != nil {
			return err
		}
	}
	r.device.DestroySwapChain(r.swapChain)

	swapChain, err := r.device.CreateSwapChain(&rhi.SwapChainDescriptor{
		Width:         r.config.Width,
		Height:        r.config.Height,
		BufferCount:   r.config.BufferCount,
		Format:        r.config.SwapChainFormat,
		VSync:         r.config.VSync,
		DisplayHandle: r.config.DisplayHandle,
		WindowHandle:  r.config.WindowHandle,
	})
	if err != nil {
		return err
	}
	r.swapChain = swapChain
	rhi.Logger().Info("swap chain recreated")
	return nil
}

// Shutdown idles the GPU and releases everything the renderer owns.
func (r *Renderer) Shutdown() {
	for q := types.QueueType(0); q < types.QueueCount; q++ {
		_ = r.device.WaitQueueIdle(q)
	}

	r.deletion.flushAll()
	r.resources.Shutdown()
	r.pipelines.Shutdown()
	r.shaders.Shutdown()
	if r.cache != nil {
		r.cache.Close()
	}
	if r.swapChain != nil {
		r.device.DestroySwapChain(r.swapChain)
		r.swapChain = nil
	}
	if r.syncs != nil {
		r.syncs.shutdown()
	}
	if r.commands != nil {
		r.commands.shutdown()
	}
	r.pool.Shutdown()
}
