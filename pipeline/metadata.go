// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"strings"

	"github.com/gogpu/framegraph/types"
)

// ShaderMetadata describes one shader of a pipeline.
type ShaderMetadata struct {
	Path       string
	Type       types.ShaderType
	EntryPoint string
	Defines    []string

	// HitGroupType matters only for hit-stage shaders.
	HitGroupType types.HitGroupType
}

// key returns the deduplication key for a shader load.
func (m *ShaderMetadata) key() shaderKey {
	return shaderKey{
		path:       m.Path,
		shaderType: m.Type,
		entryPoint: m.EntryPoint,
		defines:    strings.Join(m.Defines, "\x00"),
	}
}

type shaderKey struct {
	path       string
	shaderType types.ShaderType
	entryPoint string
	defines    string
}

// Metadata describes one pipeline: its name and ordered shader list,
// plus the attachment formats graphics pipelines render into.
type Metadata struct {
	Name               string
	Shaders            []ShaderMetadata
	ColorFormats       []types.Format
	DepthStencilFormat types.Format
}

// IsCompute reports whether the pipeline is a compute pipeline (a
// single compute stage).
func (m *Metadata) IsCompute() bool {
	return len(m.Shaders) == 1 && m.Shaders[0].Type == types.ShaderTypeCompute
}

// IsRayTracing reports whether any stage is a ray-tracing stage.
func (m *Metadata) IsRayTracing() bool {
	for i := range m.Shaders {
		if m.Shaders[i].Type.IsRayTracing() {
			return true
		}
	}
	return false
}
