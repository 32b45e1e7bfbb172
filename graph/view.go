// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import "github.com/gogpu/framegraph/name"

// ViewName is a packed (resource name id, view index) key. It is the
// only identity the compiler works with: one entry per mip level of a
// texture, one per buffer.
type ViewName uint64

// EncodeView packs a resource name and view index into a ViewName.
func EncodeView(resource name.Name, viewIndex uint32) ViewName {
	return ViewName(resource)<<32 | ViewName(viewIndex)
}

// Resource returns the resource name component.
func (v ViewName) Resource() name.Name {
	return name.Name(v >> 32)
}

// ViewIndex returns the view index component.
func (v ViewName) ViewIndex() uint32 {
	return uint32(v)
}

// ViewNameSet is a set of view names.
type ViewNameSet map[ViewName]struct{}

// Add inserts v into the set.
func (s ViewNameSet) Add(v ViewName) {
	s[v] = struct{}{}
}

// Contains reports whether v is in the set.
func (s ViewNameSet) Contains(v ViewName) bool {
	_, ok := s[v]
	return ok
}
