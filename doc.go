// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package framegraph is the frame-graph core of a real-time renderer.
//
// Render passes declare their resource dependencies each frame; the
// core computes a correct multi-queue execution schedule with
// automatic resource aliasing, layout transitions and cross-queue
// synchronization, then records command buffers in parallel and
// submits them.
//
// The package is organized as:
//
//   - framegraph (this package): the Renderer — per-frame executor,
//     submit batching, semaphore and fence management, presentation
//   - graph: the render-graph compiler
//   - resource: transient resources, layout tracking, the scheduling DSL
//   - pass: render passes and the graph-metadata document
//   - pipeline: shader and pipeline managers with an on-disk cache
//   - task: the priority worker pool
//   - rhi: the GPU abstraction the core consumes (rhi/noop for tests)
//
// Minimal use:
//
//	device, _ := backend.CreateDevice(&rhi.DeviceDescriptor{})
//	renderer, err := framegraph.New(device, &framegraph.Config{
//		MetadataPath: "render_graph.json",
//		ShaderDir:    "shaders",
//		Width:        1920,
//		Height:       1080,
//	})
//	if err != nil { ... }
//	defer renderer.Shutdown()
//	for running {
//		if err := renderer.Draw(); err != nil { ... }
//	}
package framegraph
