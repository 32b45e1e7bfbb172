// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"

	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/types"
)

// ViewInfo records what layout a view must be in when a pass executes.
type ViewInfo struct {
	RequestedLayout types.ResourceLayout
}

// PassViewInfos holds one optional ViewInfo per view of a resource for
// a single pass. A nil entry means the pass does not touch that view.
type PassViewInfos struct {
	ViewInfos []*ViewInfo
}

// SchedulingInfo maps pass names to the per-view layout requests made
// during the scheduling phase. It is populated by the Scheduler DSL
// configurators and cleared at frame start.
type SchedulingInfo struct {
	name      name.Name
	viewCount uint32
	passInfos map[name.Name]*PassViewInfos
}

func newSchedulingInfo(resource name.Name, viewCount uint32) SchedulingInfo {
	return SchedulingInfo{
		name:      resource,
		viewCount: viewCount,
		passInfos: make(map[name.Name]*PassViewInfos, 4),
	}
}

// Name returns the resource name.
func (s *SchedulingInfo) Name() name.Name { return s.name }

// ViewCount returns the number of views layout is requested per.
func (s *SchedulingInfo) ViewCount() uint32 { return s.viewCount }

// AddViewInfo records the layout the pass needs the view in.
func (s *SchedulingInfo) AddViewInfo(pass name.Name, viewIndex uint32, layout types.ResourceLayout) error {
	if viewIndex >= s.viewCount {
		return fmt.Errorf("resource: view index %d out of bounds for resource %d (%d views)",
			viewIndex, s.name, s.viewCount)
	}

	passInfo, ok := s.passInfos[pass]
	if !ok {
		passInfo = &PassViewInfos{ViewInfos: make([]*ViewInfo, s.viewCount)}
		s.passInfos[pass] = passInfo
	}
	passInfo.ViewInfos[viewIndex] = &ViewInfo{RequestedLayout: layout}
	return nil
}

// PassInfo returns the view requests of a pass, or nil if the pass did
// not schedule this resource.
func (s *SchedulingInfo) PassInfo(pass name.Name) *PassViewInfos {
	return s.passInfos[pass]
}
