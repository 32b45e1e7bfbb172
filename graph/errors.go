// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"fmt"

	"github.com/gogpu/framegraph/name"
)

// CycleError reports a cyclic dependency between passes. It names the
// first back-edge the depth-first search encountered. No recovery is
// possible; the declaration set itself is contradictory.
type CycleError struct {
	// From is the pass whose edge closed the cycle.
	From name.Name

	// To is the pass the back-edge points at.
	To name.Name
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("graph: cyclic dependency: edge from pass %d back to pass %d", e.From, e.To)
}

// DuplicateWriterError reports two passes writing the same view in one
// frame. Every written view must have exactly one writer.
type DuplicateWriterError struct {
	View     ViewName
	Pass     name.Name
	Existing name.Name
}

// Error implements the error interface.
func (e *DuplicateWriterError) Error() string {
	return fmt.Sprintf("graph: view %#x written by pass %d already has a write dependency in pass %d",
		uint64(e.View), e.Pass, e.Existing)
}

// UnknownPassError reports a dependency declaration against a pass that
// was never added to the graph.
type UnknownPassError struct {
	Pass name.Name
}

// Error implements the error interface.
func (e *UnknownPassError) Error() string {
	return fmt.Sprintf("graph: unknown pass %d", e.Pass)
}
