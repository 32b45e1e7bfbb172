// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package types

// ResourceLayout is a bit set describing the memory layout a resource
// view is in, or must be in, for a given access.
//
// Layouts are flags rather than an enum: when several queues read one
// view inside the same dependency level, the transition target is the
// bitwise union of every reader's requested layout, so that a single
// barrier serves all readers.
type ResourceLayout uint32

// Resource layout flags.
const (
	LayoutUndefined       ResourceLayout = 0
	LayoutGeneral         ResourceLayout = 1 << 0
	LayoutColorAttachment ResourceLayout = 1 << 1
	LayoutDepthStencil    ResourceLayout = 1 << 2

	// Shader reads split by consuming stage, so a view read from the
	// graphics and compute queues in one dependency level transitions
	// into the union of both.
	LayoutShaderReadFragment    ResourceLayout = 1 << 3
	LayoutShaderReadNonFragment ResourceLayout = 1 << 4

	LayoutTransferSrc ResourceLayout = 1 << 5
	LayoutTransferDst ResourceLayout = 1 << 6
	LayoutPresent     ResourceLayout = 1 << 7

	// LayoutShaderRead is readable from any shader stage.
	LayoutShaderRead = LayoutShaderReadFragment | LayoutShaderReadNonFragment
)

// Has reports whether all flags in other are present in l.
func (l ResourceLayout) Has(other ResourceLayout) bool {
	return l&other == other
}

// String returns the layout name, joining flags with "|".
func (l ResourceLayout) String() string {
	if l == LayoutUndefined {
		return "Undefined"
	}
	var s string
	add := func(flag ResourceLayout, name string) {
		if l&flag == 0 {
			return
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	add(LayoutGeneral, "General")
	add(LayoutColorAttachment, "ColorAttachment")
	add(LayoutDepthStencil, "DepthStencil")
	if l.Has(LayoutShaderRead) {
		add(LayoutShaderRead, "ShaderRead")
	} else {
		add(LayoutShaderReadFragment, "ShaderReadFragment")
		add(LayoutShaderReadNonFragment, "ShaderReadNonFragment")
	}
	add(LayoutTransferSrc, "TransferSrc")
	add(LayoutTransferDst, "TransferDst")
	add(LayoutPresent, "Present")
	return s
}
