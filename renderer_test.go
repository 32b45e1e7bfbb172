// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/pass"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/rhi/noop"
	"github.com/gogpu/framegraph/types"
)

// executionLog records pass execution order across worker threads.
type executionLog struct {
	mu    sync.Mutex
	order []string
}

func (l *executionLog) record(passName string) {
	l.mu.Lock()
	l.order = append(l.order, passName)
	l.mu.Unlock()
}

// testPass schedules from metadata but skips pipeline creation (no
// shader sources on disk) and logs execution.
type testPass struct {
	pass.MetadataPass
	names *name.Table
	log   *executionLog
}

func (p *testPass) CreatePipelines(*pass.Context) error { return nil }

func (p *testPass) Execute(_ *pass.Context, cmd rhi.CommandBuffer) error {
	p.log.record(p.names.String(p.Info().Name))
	cmd.Draw(3, 1, 0, 0)
	return nil
}

func newTestRenderer(t *testing.T, document string) (*Renderer, *noop.Device, *executionLog) {
	t.Helper()

	device := noop.NewDevice()
	meta, err := pass.ParseGraphMetadata([]byte(document))
	if err != nil {
		t.Fatalf("parsing document: %v", err)
	}

	log := &executionLog{}
	r, err := New(device, &Config{
		Metadata: meta,
		Width:    640,
		Height:   360,
		PassFactory: func(m *pass.PassMetadata, names *name.Table) (pass.Pass, error) {
			base, err := pass.NewMetadataPass(m, names)
			if err != nil {
				return nil, err
			}
			return &testPass{MetadataPass: *base, names: names, log: log}, nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Shutdown)
	return r, device, log
}

const linearChainDocument = `{
	"render_textures": [
		{"name": "T1", "format": "RGBA8Unorm"},
		{"name": "T2", "format": "RGBA8Unorm"}
	],
	"render_passes": [
		{"name": "A", "type": "graphics",
		 "render_targets": [{"texture_name": "T1"}],
		 "pipeline": {"shaders": []}},
		{"name": "B", "type": "graphics",
		 "input_textures": ["T1"],
		 "render_targets": [{"texture_name": "T2"}],
		 "pipeline": {"shaders": []}},
		{"name": "C", "type": "graphics",
		 "input_textures": ["T2"],
		 "render_targets": [{}],
		 "pipeline": {"shaders": []}}
	]
}`

func barriersFor(r *Renderer, passName string) []rhi.PipelineBarrier {
	n, ok := r.names.Lookup(passName)
	if !ok {
		return nil
	}
	return r.frame.barriersByPass[n]
}

// Scenario: linear graphics chain. One submit context, the two
// read transitions, present waiting on C's signal.
func TestLinearChainFrame(t *testing.T) {
	r, device, log := newTestRenderer(t, linearChainDocument)

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if got := len(r.frame.submitContexts); got != 1 {
		t.Fatalf("submit contexts = %d, want 1 (single queue, no explicit waits)", got)
	}
	if got := len(r.frame.submitContexts[0].levelContexts); got != 3 {
		t.Errorf("level contexts = %d, want one per dependency level (3)", got)
	}

	// Recording is parallel; every pass records exactly once. GPU-side
	// ordering is the graph's exec order, asserted in package graph.
	if got := len(log.order); got != 3 {
		t.Errorf("recorded %d passes, want 3 (%v)", got, log.order)
	}

	// B transitions T1 into a readable layout and opens T2 for
	// rendering; C transitions T2.
	bBarriers := barriersFor(r, "B")
	if len(bBarriers) != 2 {
		t.Fatalf("B barriers = %d, want 2 (T1 read + T2 attachment)", len(bBarriers))
	}
	foundRead := false
	for _, b := range bBarriers {
		if b.OldLayout == types.LayoutColorAttachment && b.NewLayout&types.LayoutShaderRead != 0 {
			foundRead = true
		}
	}
	if !foundRead {
		t.Error("missing T1 ColorAttachment -> ShaderRead transition in B")
	}
	if got := len(barriersFor(r, "C")); got != 1 {
		t.Errorf("C barriers = %d, want 1 (T2 read)", got)
	}

	if r.frame.backBufferSemaphore == nil {
		t.Fatal("present must wait on the back-buffer semaphore")
	}
	if r.frame.submitContexts[0].signalSemaphore != r.frame.backBufferSemaphore {
		t.Error("back-buffer semaphore must be the signal of C's submit context")
	}
	if got := device.Stats().Presents; got != 1 {
		t.Errorf("presents = %d, want 1", got)
	}
}

const multiQueueReadDocument = `{
	"render_textures": [
		{"name": "T1", "format": "RGBA8Unorm"},
		{"name": "AO", "format": "R32Float"}
	],
	"render_passes": [
		{"name": "A", "type": "graphics",
		 "render_targets": [{"texture_name": "T1"}],
		 "pipeline": {"shaders": []}},
		{"name": "B", "type": "compute",
		 "input_textures": ["T1"],
		 "output_storage_textures": ["AO"],
		 "pipeline": {"shaders": []}},
		{"name": "C", "type": "graphics",
		 "input_textures": ["T1"],
		 "render_targets": [{}],
		 "pipeline": {"shaders": []}}
	]
}`

// Scenario: multi-queue read. T1's level-1 transition is the bitwise
// union of both readers' layouts, emitted exactly once.
func TestMultiQueueReadUnionBarrier(t *testing.T) {
	r, _, _ := newTestRenderer(t, multiQueueReadDocument)

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	t1 := r.resources.Resource(mustLookup(t, r, "T1")).Texture()

	var unions []rhi.PipelineBarrier
	for _, passName := range []string{"B", "C"} {
		for _, b := range barriersFor(r, passName) {
			if b.Texture == t1 {
				unions = append(unions, b)
			}
		}
	}
	if len(unions) != 1 {
		t.Fatalf("T1 read transitions at level 1 = %d, want exactly 1", len(unions))
	}
	want := types.LayoutShaderReadFragment | types.LayoutShaderReadNonFragment
	if unions[0].NewLayout != want {
		t.Errorf("union layout = %v, want %v", unions[0].NewLayout, want)
	}

	// B (compute) waits on A via semaphore; C relies on queue order.
	var computeCtx *submitContext
	for i := range r.frame.submitContexts {
		if r.frame.submitContexts[i].queue == types.QueueCompute {
			computeCtx = &r.frame.submitContexts[i]
		}
	}
	if computeCtx == nil || len(computeCtx.waitSemaphores) != 1 {
		t.Error("compute submit must carry exactly one wait on A's signal")
	}
}

const rayTracingDocument = `{
	"render_textures": [
		{"name": "RTOutput", "format": "R32Float"}
	],
	"render_passes": [
		{"name": "trace", "type": "graphics",
		 "use_ray_tracing": true,
		 "output_storage_textures": ["RTOutput"],
		 "pipeline": {"shaders": []}},
		{"name": "shade", "type": "graphics",
		 "use_ray_tracing": true,
		 "input_textures": ["RTOutput"],
		 "render_targets": [{}],
		 "pipeline": {"shaders": []}}
	]
}`

type fakeUploader struct {
	uploads  bool
	bvhDirty bool
	prepared bool
}

func (u *fakeUploader) HasPendingUploads() bool { return u.uploads }
func (u *fakeUploader) RecordUploads(cmd rhi.CommandBuffer) error {
	cmd.CopyBuffer(nil, nil, nil)
	return nil
}
func (u *fakeUploader) IsBVHDirty() bool { return u.bvhDirty }
func (u *fakeUploader) RecordBVHBuild(cmd rhi.CommandBuffer) error {
	cmd.Dispatch(1, 1, 1)
	return nil
}
func (u *fakeUploader) NeedsPreparation() bool { return !u.prepared }
func (u *fakeUploader) RecordPreparation(cmd rhi.CommandBuffer) error {
	u.prepared = true
	cmd.CopyBuffer(nil, nil, nil)
	return nil
}

// Scenario: ray tracing. The first ray-tracing submit waits on the
// BVH-build semaphore; later ray-tracing passes in the frame do not
// re-wait.
func TestRayTracingWaitsOnBVHOnce(t *testing.T) {
	r, _, _ := newTestRenderer(t, rayTracingDocument)
	r.SetSceneUploader(&fakeUploader{bvhDirty: true})

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if !r.frame.bvhRequired {
		t.Fatal("dirty BVH must produce a build submit")
	}
	if r.frame.bvhSemaphore == nil {
		t.Fatal("BVH submit must signal a semaphore")
	}

	bvhWaits := 0
	for i := range r.frame.submitContexts {
		for _, sem := range r.frame.submitContexts[i].waitSemaphores {
			if sem == r.frame.bvhSemaphore {
				bvhWaits++
			}
		}
	}
	if bvhWaits != 1 {
		t.Errorf("BVH semaphore waited on %d times, want exactly 1", bvhWaits)
	}
}

// Scenario: stable cross-frame set. The second frame issues zero RHI
// create calls; handles survive; the deletion queue stays empty.
func TestStableCrossFrameSet(t *testing.T) {
	r, device, _ := newTestRenderer(t, linearChainDocument)

	if err := r.Draw(); err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	created := device.Stats().TexturesCreated
	t1 := r.resources.Resource(mustLookup(t, r, "T1")).Texture()

	if err := r.Draw(); err != nil {
		t.Fatalf("frame 2: %v", err)
	}

	if got := device.Stats().TexturesCreated; got != created {
		t.Errorf("frame 2 created %d textures", got-created)
	}
	if r.resources.Resource(mustLookup(t, r, "T1")).Texture() != t1 {
		t.Error("previous-frame handle not observed unchanged")
	}
	if got := r.deletion.pending(); got != 0 {
		t.Errorf("deletion queue holds %d entries after a stable frame, want 0", got)
	}
}

const cyclicDocument = `{
	"render_textures": [
		{"name": "T1", "format": "RGBA8Unorm"},
		{"name": "T2", "format": "RGBA8Unorm"}
	],
	"render_passes": [
		{"name": "A", "type": "graphics",
		 "input_textures": ["T2"],
		 "render_targets": [{"texture_name": "T1"}],
		 "pipeline": {"shaders": []}},
		{"name": "B", "type": "graphics",
		 "input_textures": ["T1"],
		 "render_targets": [{"texture_name": "T2"}],
		 "pipeline": {"shaders": []}}
	]
}`

// Scenario: cyclic declaration fails the frame with CycleError.
func TestCyclicDeclarationFailsFrame(t *testing.T) {
	r, _, _ := newTestRenderer(t, cyclicDocument)

	err := r.Draw()
	var cycle *graph.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Draw = %v, want *graph.CycleError", err)
	}
}

const doubleBackBufferDocument = `{
	"render_textures": [],
	"render_passes": [
		{"name": "ui", "type": "graphics",
		 "render_targets": [{}],
		 "pipeline": {"shaders": []}},
		{"name": "debug", "type": "graphics",
		 "render_targets": [{}],
		 "pipeline": {"shaders": []}}
	]
}`

// Two passes writing the swap-chain image violate the single-writer
// rule before the executor ever sees them.
func TestTwoBackBufferWritersFail(t *testing.T) {
	r, _, _ := newTestRenderer(t, doubleBackBufferDocument)

	err := r.Draw()
	var dup *graph.DuplicateWriterError
	if !errors.As(err, &dup) {
		t.Fatalf("Draw = %v, want *graph.DuplicateWriterError", err)
	}
}

// Barrier completeness: after a frame, every tracked view sits in the
// layout its last accessor requested, so asking for that layout again
// produces no barrier.
func TestBarrierCompleteness(t *testing.T) {
	r, _, _ := newTestRenderer(t, linearChainDocument)

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// B is T1's last accessor (fragment read); C is T2's.
	lastRequests := []struct {
		texture, pass string
	}{
		{"T1", "B"},
		{"T2", "C"},
	}
	for _, req := range lastRequests {
		res := r.resources.Resource(mustLookup(t, r, req.texture))
		passInfo := res.SchedulingInfo().PassInfo(mustLookup(t, r, req.pass))
		requested := passInfo.ViewInfos[0].RequestedLayout

		barrier, err := r.tracker.TransitionToLayout(res, requested, 0)
		if err != nil {
			t.Fatal(err)
		}
		if barrier != nil {
			t.Errorf("%s not left in %s's requested layout %v", req.texture, req.pass, requested)
		}
	}
}

func TestPredrawRunsPreparationOnce(t *testing.T) {
	r, device, _ := newTestRenderer(t, linearChainDocument)
	uploader := &fakeUploader{}
	r.SetSceneUploader(uploader)

	if err := r.Predraw(); err != nil {
		t.Fatalf("Predraw: %v", err)
	}
	if !uploader.prepared {
		t.Fatal("preparation did not run")
	}
	if got := device.Stats().Submits; got != 1 {
		t.Errorf("preparation submits = %d, want 1", got)
	}

	// Nothing left to prepare: no further submits.
	if err := r.Predraw(); err != nil {
		t.Fatalf("second Predraw: %v", err)
	}
	if got := device.Stats().Submits; got != 1 {
		t.Errorf("idempotent Predraw submitted again (total %d)", got)
	}
}

func mustLookup(t *testing.T, r *Renderer, s string) name.Name {
	t.Helper()
	n, ok := r.names.Lookup(s)
	if !ok {
		t.Fatalf("name %q never interned", s)
	}
	return n
}

var _ resource.Deleter = (*deletionQueue)(nil)
