// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import "github.com/gogpu/framegraph/rhi"

// SceneUploader is the external collaborator feeding per-frame data to
// the GPU. The renderer gives it dedicated submits ahead of the graph:
// uploads on the graphics queue (waiting on the acquire semaphore),
// then the BVH build on the compute queue (waiting on the upload).
//
// The core never inspects what is uploaded; it only sequences the
// submits and hands out semaphores.
type SceneUploader interface {
	// HasPendingUploads reports whether RecordUploads has work this
	// frame.
	HasPendingUploads() bool

	// RecordUploads records staging copies into the command buffer.
	RecordUploads(cmd rhi.CommandBuffer) error

	// IsBVHDirty reports whether acceleration structures must be
	// rebuilt this frame.
	IsBVHDirty() bool

	// RecordBVHBuild records the TLAS/BLAS build into the command
	// buffer.
	RecordBVHBuild(cmd rhi.CommandBuffer) error
}

// Preparer is an optional extension of SceneUploader for one-shot
// preparation work driven by Renderer.Predraw (font atlases, static
// lookup tables).
type Preparer interface {
	// NeedsPreparation reports whether preparation work is
	// outstanding.
	NeedsPreparation() bool

	// RecordPreparation records the one-shot work.
	RecordPreparation(cmd rhi.CommandBuffer) error
}
