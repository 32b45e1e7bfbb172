// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/rhi/noop"
	"github.com/gogpu/framegraph/types"
)

type managerFixture struct {
	t       *testing.T
	device  *noop.Device
	names   *name.Table
	tracker *Tracker
	manager *Manager
	g       *graph.Graph
	sched   *Scheduler
}

func newManagerFixture(t *testing.T) *managerFixture {
	device := noop.NewDevice()
	names := name.NewTable()
	tracker := NewTracker()
	manager := NewManager(device, tracker, names, nil)
	g := graph.New()
	sched := NewScheduler(g, manager, names, SurfaceInfo{
		Width:              1920,
		Height:             1080,
		RenderTargetFormat: types.FormatRGBA8Unorm,
		DepthStencilFormat: types.FormatD32Float,
	})
	return &managerFixture{t, device, names, tracker, manager, g, sched}
}

func (f *managerFixture) addPass(pass string) name.Name {
	n := f.names.Intern(pass)
	f.g.AddNode(graph.PassInfo{Name: n, Pipeline: n, Type: graph.PassGraphics})
	return n
}

// scheduleFrame declares a frame where the given pass creates the
// given render targets.
func (f *managerFixture) scheduleFrame(frame uint64, pass string, targets ...string) {
	f.t.Helper()
	passName := f.addPass(pass)

	f.g.Clear()
	f.manager.BeginFrame()
	f.sched.BeginFrame(frame)
	f.manager.BeginResourceScheduling()
	for _, target := range targets {
		f.sched.CreateRenderTarget(passName, f.names.Intern(target), nil)
	}
	if err := f.manager.EndResourceScheduling(); err != nil {
		f.t.Fatalf("EndResourceScheduling: %v", err)
	}
	if err := f.manager.AllocateScheduledResources(); err != nil {
		f.t.Fatalf("AllocateScheduledResources: %v", err)
	}
}

func TestAllocateCreatesAndTracks(t *testing.T) {
	f := newManagerFixture(t)
	f.scheduleFrame(1, "gbuffer", "Albedo", "Normal")

	if got := f.device.Stats().TexturesCreated; got != 2 {
		t.Fatalf("textures created = %d, want 2", got)
	}
	for _, target := range []string{"Albedo", "Normal"} {
		res := f.manager.Resource(f.names.Intern(target))
		if res == nil || !res.IsValid() || !res.IsTexture() {
			t.Fatalf("resource %s missing or invalid after allocation", target)
		}
		if !f.tracker.IsTracked(res.Name()) {
			t.Errorf("resource %s allocated but not tracked", target)
		}
	}
}

func TestStableCrossFrameSetSkipsAllocation(t *testing.T) {
	f := newManagerFixture(t)
	f.scheduleFrame(1, "gbuffer", "Albedo", "Normal")

	first := f.manager.Resource(f.names.Intern("Albedo")).Texture()
	f.manager.EndFrame()

	f.scheduleFrame(2, "gbuffer", "Albedo", "Normal")

	if got := f.device.Stats().TexturesCreated; got != 2 {
		t.Fatalf("second frame issued creates: total = %d, want 2", got)
	}
	second := f.manager.Resource(f.names.Intern("Albedo")).Texture()
	if first != second {
		t.Error("stable resource handle changed across frames")
	}

	f.manager.EndFrame()
	if got := f.device.Stats().TexturesDestroyed; got != 0 {
		t.Errorf("stable frame destroyed %d textures, want 0", got)
	}
}

func TestChangedSetCreatesOnlyMissing(t *testing.T) {
	f := newManagerFixture(t)
	f.scheduleFrame(1, "gbuffer", "Albedo", "Normal")
	f.manager.EndFrame()

	f.scheduleFrame(2, "gbuffer", "Albedo", "Velocity")

	stats := f.device.Stats()
	if stats.TexturesCreated != 3 {
		t.Errorf("textures created = %d, want 3 (Albedo transferred, Velocity fresh)", stats.TexturesCreated)
	}

	f.manager.EndFrame()
	if got := f.device.Stats().TexturesDestroyed; got != 1 {
		t.Errorf("textures destroyed = %d, want 1 (Normal)", got)
	}
	if f.tracker.IsTracked(f.names.Intern("Normal")) {
		t.Error("dropped resource still tracked")
	}
}

func TestUnknownResourceUsageFails(t *testing.T) {
	f := newManagerFixture(t)
	passName := f.addPass("lighting")

	f.manager.BeginFrame()
	f.manager.BeginResourceScheduling()
	f.sched.ReadTexture(passName, f.names.Intern("NotCreated"))
	err := f.manager.EndResourceScheduling()

	var unknown *UnknownResourceError
	if !errors.As(err, &unknown) {
		t.Fatalf("EndResourceScheduling = %v, want *UnknownResourceError", err)
	}
	if unknown.Pass != passName {
		t.Errorf("error names pass %d, want %d", unknown.Pass, passName)
	}
}

func TestDuplicateResourceCreationFails(t *testing.T) {
	f := newManagerFixture(t)
	passA := f.addPass("a")
	passB := f.addPass("b")

	f.manager.BeginFrame()
	f.manager.BeginResourceScheduling()
	f.sched.CreateRenderTarget(passA, f.names.Intern("T"), nil)
	f.sched.CreateRenderTarget(passB, f.names.Intern("T"), nil)
	err := f.manager.EndResourceScheduling()

	var dup *DuplicateResourceError
	if !errors.As(err, &dup) {
		t.Fatalf("EndResourceScheduling = %v, want *DuplicateResourceError", err)
	}
	if dup.Existing != passA {
		t.Errorf("existing creator = %d, want %d", dup.Existing, passA)
	}
}

func TestLayoutTrackerElidesRedundantTransitions(t *testing.T) {
	f := newManagerFixture(t)
	f.scheduleFrame(1, "gbuffer", "Albedo")

	res := f.manager.Resource(f.names.Intern("Albedo"))

	barrier, err := f.tracker.TransitionToLayout(res, types.LayoutColorAttachment, 0)
	if err != nil {
		t.Fatal(err)
	}
	if barrier == nil {
		t.Fatal("expected a barrier from Undefined to ColorAttachment")
	}
	if barrier.OldLayout != types.LayoutUndefined || barrier.NewLayout != types.LayoutColorAttachment {
		t.Errorf("barrier %v -> %v, want Undefined -> ColorAttachment", barrier.OldLayout, barrier.NewLayout)
	}

	barrier, err = f.tracker.TransitionToLayout(res, types.LayoutColorAttachment, 0)
	if err != nil {
		t.Fatal(err)
	}
	if barrier != nil {
		t.Error("redundant transition must be elided")
	}

	barrier, err = f.tracker.TransitionToLayout(res, types.LayoutShaderRead, 0)
	if err != nil {
		t.Fatal(err)
	}
	if barrier == nil || barrier.OldLayout != types.LayoutColorAttachment {
		t.Errorf("transition must start from tracked layout, got %+v", barrier)
	}
}

func TestViewAccessValidation(t *testing.T) {
	f := newManagerFixture(t)
	passName := f.names.Intern("gbuffer")
	f.scheduleFrame(1, "gbuffer", "Albedo")

	if _, err := f.manager.RenderTargetView(passName, f.names.Intern("Albedo"), 0); err != nil {
		t.Errorf("RenderTargetView on scheduled target: %v", err)
	}

	// The pass scheduled Albedo as a color target, not a storage
	// texture.
	_, err := f.manager.StorageView(passName, f.names.Intern("Albedo"), 0)
	var mismatch *LayoutMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("StorageView = %v, want *LayoutMismatchError", err)
	}

	// A pass that never scheduled the resource gets rejected too.
	other := f.names.Intern("other")
	if _, err := f.manager.RenderTargetView(other, f.names.Intern("Albedo"), 0); !errors.As(err, &mismatch) {
		t.Errorf("unscheduled pass access = %v, want *LayoutMismatchError", err)
	}
}

func TestBufferAllocationAndTransfer(t *testing.T) {
	f := newManagerFixture(t)
	passName := f.addPass("cull")
	bufName := f.names.Intern("DrawArgs")

	declare := func(frame uint64) {
		f.g.Clear()
		f.manager.BeginFrame()
		f.sched.BeginFrame(frame)
		f.manager.BeginResourceScheduling()
		f.sched.CreateBuffer(passName, bufName, &types.BufferDescriptor{
			Size:  64 * 1024,
			Usage: types.UsageStorageBuffer | types.UsageIndirectBuffer,
		})
		if err := f.manager.EndResourceScheduling(); err != nil {
			t.Fatalf("EndResourceScheduling: %v", err)
		}
		if err := f.manager.AllocateScheduledResources(); err != nil {
			t.Fatalf("AllocateScheduledResources: %v", err)
		}
	}

	declare(1)
	res := f.manager.Resource(bufName)
	if res == nil || !res.IsBuffer() {
		t.Fatal("buffer resource missing after allocation")
	}
	if res.ViewCount() != 1 {
		t.Errorf("buffer view count = %d, want 1", res.ViewCount())
	}
	handle := res.Buffer()

	f.manager.EndFrame()
	declare(2)

	if got := f.device.Stats().BuffersCreated; got != 1 {
		t.Errorf("buffers created across two stable frames = %d, want 1", got)
	}
	if f.manager.Resource(bufName).Buffer() != handle {
		t.Error("buffer handle changed across stable frames")
	}
}

func TestPingPongAlternatesAcrossFrames(t *testing.T) {
	f := newManagerFixture(t)
	sched := f.sched
	base := f.names.Intern("History")

	sched.BeginFrame(1)
	cur1, prev1 := sched.CurrentPingPong(base), sched.PreviousPingPong(base)
	sched.BeginFrame(2)
	cur2, prev2 := sched.CurrentPingPong(base), sched.PreviousPingPong(base)

	if cur1 == cur2 {
		t.Error("ping-pong current name did not alternate")
	}
	if cur1 != prev2 || cur2 != prev1 {
		t.Error("ping-pong roles must swap across consecutive frames")
	}
}
