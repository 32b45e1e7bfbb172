// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package name

import (
	"sync"
	"testing"
)

func TestInternAssignsMonotonicIDs(t *testing.T) {
	tbl := NewTable()

	a := tbl.Intern("gbuffer")
	b := tbl.Intern("lighting")
	c := tbl.Intern("gbuffer")

	if a != c {
		t.Errorf("same string interned to different ids: %d vs %d", a, c)
	}
	if b <= a {
		t.Errorf("expected monotonic ids, got %d then %d", a, b)
	}
	if !a.IsValid() || Nil.IsValid() {
		t.Error("validity check broken")
	}
}

func TestStringRoundTrip(t *testing.T) {
	tbl := NewTable()
	n := tbl.Intern("depth")

	if got := tbl.String(n); got != "depth" {
		t.Errorf("String(%d) = %q, want %q", n, got, "depth")
	}
	if got := tbl.String(Nil); got != "" {
		t.Errorf("String(Nil) = %q, want empty", got)
	}
	if _, ok := tbl.Lookup("missing"); ok {
		t.Error("Lookup found a name that was never interned")
	}
}

func TestConcurrentIntern(t *testing.T) {
	tbl := NewTable()
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	results := make([][]Name, 8)
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			out := make([]Name, len(names))
			for j, s := range names {
				out[j] = tbl.Intern(s)
			}
			results[slot] = out
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		for j := range names {
			if results[i][j] != results[0][j] {
				t.Fatalf("goroutine %d got id %d for %q, goroutine 0 got %d",
					i, results[i][j], names[j], results[0][j])
			}
		}
	}
	if tbl.Len() != len(names) {
		t.Errorf("Len = %d, want %d", tbl.Len(), len(names))
	}
}
