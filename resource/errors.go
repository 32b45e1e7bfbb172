// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"

	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/types"
)

// UnknownResourceError reports a usage request against a resource no
// pass created this frame. Fatal for the frame.
type UnknownResourceError struct {
	Pass     name.Name
	Resource name.Name
}

// Error implements the error interface.
func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("resource: pass %d uses resource %d that no pass created this frame", e.Pass, e.Resource)
}

// DuplicateResourceError reports two passes creating the same resource
// name in one frame.
type DuplicateResourceError struct {
	Resource name.Name
	Pass     name.Name
	Existing name.Name
}

// Error implements the error interface.
func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("resource: resource %d created by pass %d was already created by pass %d",
		e.Resource, e.Pass, e.Existing)
}

// LayoutMismatchError reports an access whose required usage or layout
// is incompatible with what the resource was declared with.
type LayoutMismatchError struct {
	Pass     name.Name
	Resource name.Name
	Want     types.ResourceLayout
	Usage    types.ResourceUsage
	Detail   string
}

// Error implements the error interface.
func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("resource: pass %d access to resource %d incompatible with declared state: %s",
		e.Pass, e.Resource, e.Detail)
}

// NotTrackedError reports a layout query for a resource the tracker
// never began tracking. The invariant is that a resource has a GPU
// handle if and only if it has a tracker entry.
type NotTrackedError struct {
	Resource name.Name
}

// Error implements the error interface.
func (e *NotTrackedError) Error() string {
	return fmt.Sprintf("resource: resource %d is not tracked", e.Resource)
}
