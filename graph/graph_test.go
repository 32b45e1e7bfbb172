// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gogpu/framegraph/name"
)

// fixture bundles a graph with an intern table and declaration helpers.
type fixture struct {
	t     *testing.T
	names *name.Table
	g     *Graph
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, names: name.NewTable(), g: New()}
}

func (f *fixture) addPass(pass string, passType PassType) {
	f.g.AddNode(PassInfo{
		Name:     f.names.Intern(pass),
		Pipeline: f.names.Intern(pass),
		Type:     passType,
	})
}

func (f *fixture) write(pass, resource string) {
	f.t.Helper()
	if err := f.g.AddWriteDependency(f.names.Intern(pass), f.names.Intern(resource), 1); err != nil {
		f.t.Fatalf("write %s by %s: %v", resource, pass, err)
	}
}

func (f *fixture) read(pass, resource string) {
	f.t.Helper()
	if err := f.g.AddReadDependency(f.names.Intern(pass), f.names.Intern(resource), 1); err != nil {
		f.t.Fatalf("read %s by %s: %v", resource, pass, err)
	}
}

func (f *fixture) build() {
	f.t.Helper()
	if err := f.g.Build(); err != nil {
		f.t.Fatalf("Build: %v", err)
	}
}

func (f *fixture) node(pass string) *Node {
	f.t.Helper()
	n := f.g.Node(f.names.Intern(pass))
	if n == nil {
		f.t.Fatalf("pass %s not registered", pass)
	}
	return n
}

func TestLinearGraphicsChain(t *testing.T) {
	f := newFixture(t)
	f.addPass("A", PassGraphics)
	f.addPass("B", PassGraphics)
	f.addPass("C", PassGraphics)

	f.write("A", "T1")
	f.read("B", "T1")
	f.write("B", "T2")
	f.read("C", "T2")
	f.write("C", "BackBuffer")

	f.build()

	if got := len(f.g.DependencyLevels()); got != 3 {
		t.Fatalf("dependency level count = %d, want 3", got)
	}
	order := f.g.NodesInExecOrder()
	want := []string{"A", "B", "C"}
	for i, idx := range order {
		if got := f.names.String(f.g.NodeAt(idx).Info().Name); got != want[i] {
			t.Errorf("exec order[%d] = %s, want %s", i, got, want[i])
		}
	}
	if got := f.g.DetectedQueueCount(); got != 1 {
		t.Errorf("detected queue count = %d, want 1", got)
	}
	// Same queue throughout: no semaphore signals needed.
	for _, p := range want {
		if f.node(p).SyncSignalRequired() {
			t.Errorf("pass %s requires a sync signal on a single-queue chain", p)
		}
	}
}

func TestParallelProducersCollapseToLatestSync(t *testing.T) {
	f := newFixture(t)
	f.addPass("A", PassCompute)
	f.addPass("B", PassCompute)
	f.addPass("C", PassGraphics)

	f.write("A", "T1")
	f.write("B", "T2")
	f.read("C", "T1")
	f.read("C", "T2")
	f.write("C", "BackBuffer")

	f.build()

	a, b, c := f.node("A"), f.node("B"), f.node("C")

	if a.DependencyLevelIndex() != 0 || b.DependencyLevelIndex() != 0 {
		t.Errorf("A, B levels = %d, %d, want 0, 0", a.DependencyLevelIndex(), b.DependencyLevelIndex())
	}
	if c.DependencyLevelIndex() != 1 {
		t.Errorf("C level = %d, want 1", c.DependencyLevelIndex())
	}
	if a.QueueIndex() != 1 || b.QueueIndex() != 1 || c.QueueIndex() != 0 {
		t.Fatalf("queue assignment wrong: A=%d B=%d C=%d", a.QueueIndex(), b.QueueIndex(), c.QueueIndex())
	}

	// Both producers are on the compute queue: C's two waits collapse
	// to a single wait on the later of A, B.
	waits := c.NodesToSyncWith()
	if len(waits) != 1 {
		t.Fatalf("C waits on %d nodes, want 1", len(waits))
	}
	later := f.g.NodeAt(waits[0])
	if later.QueueLocalExecIndex() != 1 {
		t.Errorf("C waits on queue-local index %d, want the later producer (1)", later.QueueLocalExecIndex())
	}
	if !later.SyncSignalRequired() {
		t.Error("the awaited producer must be marked sync-signal-required")
	}
}

func TestMultiQueueReadTracking(t *testing.T) {
	f := newFixture(t)
	f.addPass("A", PassGraphics)
	f.addPass("B", PassCompute)
	f.addPass("C", PassGraphics)

	f.write("A", "T1")
	f.read("B", "T1")
	f.write("B", "T2") // B's own output; its read of T1 already schedules it
	f.read("C", "T1")
	f.write("C", "BackBuffer")

	f.build()

	a, b, c := f.node("A"), f.node("B"), f.node("C")

	if b.DependencyLevelIndex() != 1 || c.DependencyLevelIndex() != 1 {
		t.Fatalf("B, C levels = %d, %d, want both 1", b.DependencyLevelIndex(), c.DependencyLevelIndex())
	}

	level := &f.g.DependencyLevels()[1]
	t1view := EncodeView(f.names.Intern("T1"), 0)
	if !level.ViewsReadByMultipleQueues().Contains(t1view) {
		t.Error("T1 view must be marked as read by multiple queues in level 1")
	}
	if !level.QueuesInvolvedInCrossQueueReads().Contains(0) ||
		!level.QueuesInvolvedInCrossQueueReads().Contains(1) {
		t.Error("both queues must participate in the cross-queue read")
	}

	// B (compute) waits on A (graphics) via semaphore; C follows A on
	// the same queue, so its wait list carries no cross-queue entry.
	if !a.SyncSignalRequired() {
		t.Error("A must publish a semaphore for B")
	}
	foundA := false
	for _, w := range b.NodesToSyncWith() {
		if f.g.NodeAt(w) == a {
			foundA = true
		}
	}
	if !foundA {
		t.Error("B must wait on A")
	}
	for _, w := range c.NodesToSyncWith() {
		if f.g.NodeAt(w).QueueIndex() != c.QueueIndex() {
			t.Errorf("C must rely on implicit queue order, found cross-queue wait on %d", w)
		}
	}
}

func TestCyclicDeclarationFails(t *testing.T) {
	f := newFixture(t)
	f.addPass("A", PassGraphics)
	f.addPass("B", PassGraphics)

	f.write("A", "T1")
	f.read("A", "T2")
	f.write("B", "T2")
	f.read("B", "T1")

	err := f.g.Build()
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Build = %v, want *CycleError", err)
	}
	if !cycle.From.IsValid() || !cycle.To.IsValid() {
		t.Error("cycle error must name the back-edge passes")
	}
}

func TestDuplicateWriterRejected(t *testing.T) {
	f := newFixture(t)
	f.addPass("A", PassGraphics)
	f.addPass("B", PassGraphics)

	f.write("A", "T1")
	err := f.g.AddWriteDependency(f.names.Intern("B"), f.names.Intern("T1"), 1)

	var dup *DuplicateWriterError
	if !errors.As(err, &dup) {
		t.Fatalf("second writer = %v, want *DuplicateWriterError", err)
	}
	if dup.Existing != f.names.Intern("A") {
		t.Errorf("existing writer = %d, want A", dup.Existing)
	}
}

// TestWriterExecutesBeforeReader checks the global-order property on a
// diamond-shaped declaration.
func TestWriterExecutesBeforeReader(t *testing.T) {
	f := newFixture(t)
	passes := []string{"gbuffer", "shadow", "ssao", "lighting", "post"}
	for _, p := range passes {
		f.addPass(p, PassGraphics)
	}

	f.write("gbuffer", "GBufferAlbedo")
	f.write("gbuffer", "GBufferNormal")
	f.write("shadow", "ShadowMap")
	f.read("ssao", "GBufferNormal")
	f.write("ssao", "SSAO")
	f.read("lighting", "GBufferAlbedo")
	f.read("lighting", "GBufferNormal")
	f.read("lighting", "ShadowMap")
	f.read("lighting", "SSAO")
	f.write("lighting", "HDR")
	f.read("post", "HDR")
	f.write("post", "BackBuffer")

	f.build()

	execIndex := func(p string) uint32 { return f.node(p).GlobalExecIndex() }
	deps := [][2]string{
		{"gbuffer", "ssao"}, {"gbuffer", "lighting"}, {"shadow", "lighting"},
		{"ssao", "lighting"}, {"lighting", "post"},
	}
	for _, d := range deps {
		if execIndex(d[0]) >= execIndex(d[1]) {
			t.Errorf("%s (exec %d) must execute before %s (exec %d)",
				d[0], execIndex(d[0]), d[1], execIndex(d[1]))
		}
	}
}

// TestRebuildIsIdempotent re-declares the same frame twice and expects
// identical schedules.
func TestRebuildIsIdempotent(t *testing.T) {
	f := newFixture(t)
	declare := func() {
		f.write("A", "T1")
		f.read("B", "T1")
		f.write("B", "T2")
		f.read("C", "T1")
		f.read("C", "T2")
		f.write("C", "BackBuffer")
	}

	f.addPass("A", PassCompute)
	f.addPass("B", PassGraphics)
	f.addPass("C", PassGraphics)

	declare()
	f.build()

	firstOrder := append([]uint32(nil), f.g.NodesInExecOrder()...)
	firstLevels := make([]int, len(f.g.DependencyLevels()))
	for i := range f.g.DependencyLevels() {
		firstLevels[i] = len(f.g.DependencyLevels()[i].Nodes())
	}
	firstSyncs := make(map[string][]uint32)
	for _, p := range []string{"A", "B", "C"} {
		firstSyncs[p] = append([]uint32(nil), f.node(p).NodesToSyncWith()...)
	}

	f.g.Clear()
	declare()
	f.build()

	if !reflect.DeepEqual(firstOrder, f.g.NodesInExecOrder()) {
		t.Errorf("exec order changed across identical rebuilds: %v vs %v",
			firstOrder, f.g.NodesInExecOrder())
	}
	for i := range f.g.DependencyLevels() {
		if firstLevels[i] != len(f.g.DependencyLevels()[i].Nodes()) {
			t.Errorf("level %d size changed across rebuilds", i)
		}
	}
	for _, p := range []string{"A", "B", "C"} {
		if !reflect.DeepEqual(firstSyncs[p], f.node(p).NodesToSyncWith()) {
			t.Errorf("sync set of %s changed across rebuilds", p)
		}
	}
}

// TestNoRedundantSyncEdges checks that a wait implied transitively is
// not emitted: A (compute) -> B (graphics) -> C (graphics), C also
// reading A's output, must not wait on A directly.
func TestNoRedundantSyncEdges(t *testing.T) {
	f := newFixture(t)
	f.addPass("A", PassCompute)
	f.addPass("B", PassGraphics)
	f.addPass("C", PassGraphics)

	f.write("A", "T1")
	f.read("B", "T1")
	f.write("B", "T2")
	f.read("C", "T1")
	f.read("C", "T2")
	f.write("C", "BackBuffer")

	f.build()

	c := f.node("C")
	for _, w := range c.NodesToSyncWith() {
		dep := f.g.NodeAt(w)
		if f.names.String(dep.Info().Name) == "A" {
			t.Error("C waits on A directly, but B's wait already covers it")
		}
	}
}

func TestNodesWithoutDependenciesAreExcluded(t *testing.T) {
	f := newFixture(t)
	f.addPass("idle", PassGraphics)
	f.addPass("A", PassGraphics)
	f.write("A", "T1")

	f.build()

	if got := len(f.g.NodesInExecOrder()); got != 1 {
		t.Fatalf("exec order length = %d, want 1 (idle pass excluded)", got)
	}
}

func BenchmarkBuild(b *testing.B) {
	names := name.NewTable()
	g := New()

	const chain = 32
	passNames := make([]name.Name, chain)
	resNames := make([]name.Name, chain)
	for i := 0; i < chain; i++ {
		passNames[i] = names.Intern(string(rune('a'+i%26)) + string(rune('0'+i/26)))
		resNames[i] = names.Intern("r" + string(rune('a'+i%26)) + string(rune('0'+i/26)))
		passType := PassGraphics
		if i%3 == 0 {
			passType = PassCompute
		}
		g.AddNode(PassInfo{Name: passNames[i], Pipeline: passNames[i], Type: passType})
	}

	declare := func() {
		for i := 0; i < chain; i++ {
			_ = g.AddWriteDependency(passNames[i], resNames[i], 1)
			if i > 0 {
				_ = g.AddReadDependency(passNames[i], resNames[i-1], 1)
			}
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Clear()
		declare()
		if err := g.Build(); err != nil {
			b.Fatal(err)
		}
	}
}
