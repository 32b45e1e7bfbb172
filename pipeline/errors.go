// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import "fmt"

// ShaderCompileError reports a failed shader compilation with the
// compiler diagnostics. Fatal at startup; recoverable through an
// explicit reload.
type ShaderCompileError struct {
	Path        string
	Diagnostics string
}

// Error implements the error interface.
func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("pipeline: compiling %s: %s", e.Path, e.Diagnostics)
}

// UnknownPipelineError reports a bind against a pipeline that was
// never created.
type UnknownPipelineError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownPipelineError) Error() string {
	return fmt.Sprintf("pipeline: unknown pipeline %q", e.Name)
}
