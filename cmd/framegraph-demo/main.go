// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command framegraph-demo runs a deferred-style frame graph on the
// noop backend and prints the computed schedule: dependency levels,
// queue assignment and which passes signal a semaphore, followed by
// the RHI call counts of the run. Useful for eyeballing compiler
// output and for profiling the scheduling path.
//
// Usage:
//
//	framegraph-demo [-frames N] [-profile]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/profile"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/pass"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/rhi/noop"
)

const demoDocument = `{
	"render_textures": [
		{"name": "GBufferAlbedo", "format": "RGBA8Unorm"},
		{"name": "GBufferNormal", "format": "RGBA16Float"},
		{"name": "Depth", "format": "D32Float"},
		{"name": "AO", "format": "R32Float"},
		{"name": "HDR", "format": "RGBA16Float"}
	],
	"render_passes": [
		{"name": "gbuffer", "type": "graphics",
		 "render_targets": [
			{"texture_name": "GBufferAlbedo", "load_op": "clear"},
			{"texture_name": "GBufferNormal", "load_op": "clear"},
			{"texture_name": "Depth", "load_op": "clear", "clear_depth_stencil": [1, 0]}
		 ],
		 "pipeline": {"shaders": []}},
		{"name": "ssao", "type": "compute",
		 "input_textures": ["GBufferNormal", "Depth"],
		 "output_storage_textures": ["AO"],
		 "pipeline": {"shaders": []}},
		{"name": "lighting", "type": "graphics",
		 "input_textures": ["GBufferAlbedo", "GBufferNormal", "AO"],
		 "render_targets": [{"texture_name": "HDR", "load_op": "clear"}],
		 "pipeline": {"shaders": []}},
		{"name": "tonemap", "type": "graphics",
		 "input_textures": ["HDR"],
		 "render_targets": [{}],
		 "pipeline": {"shaders": []}}
	]
}`

// demoPass schedules from metadata and skips pipelines: the noop
// backend has nothing to compile.
type demoPass struct {
	pass.MetadataPass
}

func (p *demoPass) CreatePipelines(*pass.Context) error { return nil }

func main() {
	frames := flag.Int("frames", 3, "number of frames to draw")
	profileRun := flag.Bool("profile", false, "write a CPU profile to the working directory")
	flag.Parse()

	if *profileRun {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	rhi.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*frames); err != nil {
		fmt.Fprintln(os.Stderr, "framegraph-demo:", err)
		os.Exit(1)
	}
}

func run(frames int) error {
	backend, ok := rhi.GetBackend(noop.API{}.Variant())
	if !ok {
		return fmt.Errorf("noop backend not registered")
	}
	device, err := backend.CreateDevice(&rhi.DeviceDescriptor{})
	if err != nil {
		return err
	}

	meta, err := pass.ParseGraphMetadata([]byte(demoDocument))
	if err != nil {
		return err
	}

	renderer, err := framegraph.New(device, &framegraph.Config{
		Metadata: meta,
		Width:    1280,
		Height:   720,
		PassFactory: func(m *pass.PassMetadata, names *name.Table) (pass.Pass, error) {
			base, err := pass.NewMetadataPass(m, names)
			if err != nil {
				return nil, err
			}
			return &demoPass{MetadataPass: *base}, nil
		},
	})
	if err != nil {
		return err
	}
	defer renderer.Shutdown()

	for i := 0; i < frames; i++ {
		if err := renderer.Draw(); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
	}

	printSchedule(renderer)
	if noopDevice, ok := device.(*noop.Device); ok {
		stats := noopDevice.Stats()
		fmt.Printf("\nRHI calls over %d frames: %d textures created, %d submits, %d presents\n",
			frames, stats.TexturesCreated, stats.Submits, stats.Presents)
	}
	return nil
}

func printSchedule(r *framegraph.Renderer) {
	g := r.Graph()
	names := r.Names()

	fmt.Printf("schedule: %d passes, %d queues, %d dependency levels\n",
		g.NodeCount(), g.DetectedQueueCount(), len(g.DependencyLevels()))

	for i := range g.DependencyLevels() {
		level := &g.DependencyLevels()[i]
		fmt.Printf("  level %d:", i)
		for _, nodeIdx := range level.Nodes() {
			node := g.NodeAt(nodeIdx)
			queue := "gfx"
			if node.QueueIndex() == 1 {
				queue = "cmp"
			}
			marker := ""
			if node.SyncSignalRequired() {
				marker = "*"
			}
			fmt.Printf(" %s(%s)%s", names.String(node.Info().Name), queue, marker)
		}
		fmt.Println()
	}
}
