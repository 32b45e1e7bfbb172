// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package pass defines render passes and the graph-metadata document
// that declares them.
//
// A pass is an opaque unit of GPU work with three hooks: resource
// scheduling, pipeline creation and execution. The core never looks
// inside Execute; it only schedules what the pass declared.
//
// MetadataPass implements scheduling and pipeline creation entirely
// from declarative metadata: input textures become sampled reads,
// render-target entries become color or depth-stencil allocations (or
// the swap-chain back buffer when no texture is named), storage-
// texture outputs become general-layout writes. Concrete passes embed
// it and override Execute.
package pass
