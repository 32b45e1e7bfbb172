// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package graph implements the render-graph compiler.
//
// Each frame, passes declare the resource views they read and write;
// the compiler turns those declarations into an execution schedule:
//
//  1. an adjacency list (B depends on A iff B reads a view A writes),
//  2. a topological order (depth-first, cycle detection),
//  3. dependency levels (longest-path distance from the roots; every
//     node in a level may execute in parallel),
//  4. queue assignment (derived from the pass type) with per-queue
//     execution indices,
//  5. a minimized set of cross-queue sync points.
//
// The compiler operates on view names only — packed (resource id, view
// index) keys — and never touches resources. Node cross-references are
// indices into the graph's node slice, so the structure is a flat
// arena with no pointer cycles.
package graph
