// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"

	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// viewLayout is the tracked layout of a single view.
type viewLayout struct {
	viewIndex uint32
	layout    types.ResourceLayout
}

// Tracker is the sole source of truth for the current layout of every
// view of every tracked resource. Callers never assume layouts; they
// ask for a transition and record the returned barrier, if any.
//
// The tracker is written only during the single-threaded barrier
// configuration step; parallel recording reads nothing from it.
type Tracker struct {
	viewLayoutsByName map[name.Name][]viewLayout
}

// NewTracker creates an empty layout tracker.
func NewTracker() *Tracker {
	return &Tracker{
		viewLayoutsByName: make(map[name.Name][]viewLayout, 32),
	}
}

// BeginTracking initializes per-view state for a freshly created
// resource. Every view starts in the undefined layout.
func (t *Tracker) BeginTracking(res *Resource) {
	if _, ok := t.viewLayoutsByName[res.Name()]; ok {
		rhi.Logger().Warn("resource already tracked", "resource", uint32(res.Name()))
	}

	layouts := make([]viewLayout, res.ViewCount())
	for i := range layouts {
		layouts[i].viewIndex = uint32(i)
	}
	t.viewLayoutsByName[res.Name()] = layouts
}

// StopTracking drops the state of a destroyed resource.
func (t *Tracker) StopTracking(resource name.Name) {
	delete(t.viewLayoutsByName, resource)
}

// IsTracked reports whether the resource has tracker state.
func (t *Tracker) IsTracked(resource name.Name) bool {
	_, ok := t.viewLayoutsByName[resource]
	return ok
}

// TransitionToLayout returns the barrier that brings the view into
// newLayout, updating tracked state, or nil when the view is already
// there (the redundant barrier is elided).
func (t *Tracker) TransitionToLayout(res *Resource, newLayout types.ResourceLayout, viewIndex uint32) (*rhi.PipelineBarrier, error) {
	if res == nil || !res.IsValid() {
		return nil, &NotTrackedError{}
	}

	layouts, ok := t.viewLayoutsByName[res.Name()]
	if !ok {
		return nil, &NotTrackedError{Resource: res.Name()}
	}
	if int(viewIndex) >= len(layouts) {
		return nil, fmt.Errorf("resource: resource %d has no view %d", res.Name(), viewIndex)
	}

	current := layouts[viewIndex].layout
	if current == newLayout {
		return nil, nil
	}

	layouts[viewIndex].layout = newLayout

	var barrier rhi.PipelineBarrier
	if res.IsBuffer() {
		barrier = rhi.BufferBarrier(res.Buffer(), current, newLayout)
	} else {
		barrier = rhi.TextureBarrier(res.Texture(), current, newLayout, viewIndex, 1)
	}
	return &barrier, nil
}
