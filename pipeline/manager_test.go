// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/framegraph/types"
)

func TestBuildHitGroupsSharesUntilSlotCollision(t *testing.T) {
	shaders := []ShaderMetadata{
		{Path: "rt.wgsl", Type: types.ShaderTypeRayGeneration},
		{Path: "rt.wgsl", Type: types.ShaderTypeClosestHit, HitGroupType: types.HitGroupTriangles},
		{Path: "rt.wgsl", Type: types.ShaderTypeAnyHit, HitGroupType: types.HitGroupTriangles},
		{Path: "rt.wgsl", Type: types.ShaderTypeClosestHit, HitGroupType: types.HitGroupTriangles},
		{Path: "rt.wgsl", Type: types.ShaderTypeMiss},
	}

	groups := buildHitGroups(shaders)
	if len(groups) != 2 {
		t.Fatalf("hit group count = %d, want 2", len(groups))
	}
	if groups[0].ClosestHit != 1 || groups[0].AnyHit != 2 {
		t.Errorf("group 0 = %+v, want closest-hit 1 and any-hit 2 shared", groups[0])
	}
	// The second closest-hit collides on the slot and opens a group.
	if groups[1].ClosestHit != 3 || groups[1].AnyHit != -1 {
		t.Errorf("group 1 = %+v, want closest-hit 3 alone", groups[1])
	}
}

func TestBuildHitGroupsSplitsOnGeometryType(t *testing.T) {
	shaders := []ShaderMetadata{
		{Path: "rt.wgsl", Type: types.ShaderTypeClosestHit, HitGroupType: types.HitGroupTriangles},
		{Path: "rt.wgsl", Type: types.ShaderTypeClosestHit, HitGroupType: types.HitGroupProcedural},
	}

	groups := buildHitGroups(shaders)
	if len(groups) != 2 {
		t.Fatalf("hit group count = %d, want 2", len(groups))
	}
	if groups[0].Type != types.HitGroupTriangles || groups[1].Type != types.HitGroupProcedural {
		t.Error("geometry types must not share a hit group")
	}
}

func TestCacheRoundTripAndStaleness(t *testing.T) {
	dir := t.TempDir()
	srcDir := t.TempDir()

	source := filepath.Join(srcDir, "blur.wgsl")
	include := filepath.Join(srcDir, "common.wgsl")
	if err := os.WriteFile(source, []byte("// shader"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(include, []byte("// include"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	spirv := []byte{0x03, 0x02, 0x23, 0x07}
	cache.Store(source, spirv, []string{source, include})
	cache.Close()

	got, ok := cache.Load(source)
	if !ok {
		t.Fatal("cache miss right after store")
	}
	if len(got) != len(spirv) {
		t.Fatalf("cached blob length = %d, want %d", len(got), len(spirv))
	}

	// Touching a dependency invalidates the entry.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(include, future, future); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Load(source); ok {
		t.Error("cache hit although an include is newer than the blob")
	}

	// A missing blob is a miss, not an error.
	if _, ok := cache.Load(filepath.Join(srcDir, "never.wgsl")); ok {
		t.Error("cache hit for a shader that was never stored")
	}
}

func TestShaderKeyDistinguishesDefines(t *testing.T) {
	a := ShaderMetadata{Path: "p.wgsl", Type: types.ShaderTypeFragment, EntryPoint: "main", Defines: []string{"A"}}
	b := ShaderMetadata{Path: "p.wgsl", Type: types.ShaderTypeFragment, EntryPoint: "main", Defines: []string{"B"}}
	c := ShaderMetadata{Path: "p.wgsl", Type: types.ShaderTypeFragment, EntryPoint: "main", Defines: []string{"A"}}

	if a.key() == b.key() {
		t.Error("different defines must produce different keys")
	}
	if a.key() != c.key() {
		t.Error("identical metadata must produce identical keys")
	}
}
