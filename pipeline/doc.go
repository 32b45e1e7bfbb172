// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package pipeline builds shaders and pipelines from graph metadata.
//
// Shaders are WGSL sources compiled to SPIR-V through naga. Loads are
// keyed by (path, stage, entry point, defines) and deduplicated: the
// first requester compiles, identical requests block until the result
// lands. Compilation is dispatched on the engine task pool and awaited
// collectively before the first frame.
//
// Compiled binaries persist in a cache directory next to a JSON
// sidecar listing the absolute paths of every include dependency. A
// shader recompiles when its binary is missing or older than the
// source or any dependency.
package pipeline
