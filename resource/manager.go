// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"
	"sort"

	"github.com/gogpu/framegraph/name"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// InfoVariant is either a texture or a buffer descriptor. Exactly one
// field is set.
type InfoVariant struct {
	Texture *types.TextureDescriptor
	Buffer  *types.BufferDescriptor
}

// TextureInfo wraps a texture descriptor into an InfoVariant.
func TextureInfo(desc *types.TextureDescriptor) InfoVariant {
	return InfoVariant{Texture: desc}
}

// BufferInfo wraps a buffer descriptor into an InfoVariant.
func BufferInfo(desc *types.BufferDescriptor) InfoVariant {
	return InfoVariant{Buffer: desc}
}

func (v *InfoVariant) viewCount() uint32 {
	if v.Texture != nil {
		return v.Texture.ViewCount()
	}
	return 1
}

// SchedulingInfoConfigurator mutates a resource's scheduling info after
// the resource record exists, typically appending a ViewInfo for the
// requesting pass and registering graph dependencies.
type SchedulingInfoConfigurator func(*SchedulingInfo) error

// Deleter defers destruction until in-flight frames retire. The
// renderer's deletion queue implements it; a nil deleter destroys
// immediately.
type Deleter interface {
	Add(fn func())
}

type schedulingRequest struct {
	configurator SchedulingInfoConfigurator
	pass         name.Name
	resource     name.Name
}

type creationRequest struct {
	info     InfoVariant
	pass     name.Name
	resource name.Name
}

// Manager schedules, allocates and recycles the transient resources of
// the frame graph. Color/depth targets and storage textures live here;
// long-lived data (vertex buffers, material textures) belongs to other
// owners.
//
// The manager is single-writer: it is mutated only between BeginFrame
// and the start of command recording. During recording, readers see an
// immutable snapshot.
type Manager struct {
	device  rhi.Device
	tracker *Tracker
	names   *name.Table
	deleter Deleter

	allocationRequests []schedulingRequest
	usageRequests      []schedulingRequest
	creationRequests   []creationRequest

	previousFrameResources map[name.Name]*Resource
	currentFrameResources  map[name.Name]*Resource

	// Sorted name lists of both frames, for the set intersection of
	// the cross-frame transfer.
	previousFrameEntries []name.Name
	currentFrameEntries  []name.Name

	samplers map[name.Name]rhi.Sampler
}

// NewManager creates a transient resource manager.
func NewManager(device rhi.Device, tracker *Tracker, names *name.Table, deleter Deleter) *Manager {
	return &Manager{
		device:                 device,
		tracker:                tracker,
		names:                  names,
		deleter:                deleter,
		previousFrameResources: make(map[name.Name]*Resource),
		currentFrameResources:  make(map[name.Name]*Resource),
		samplers:               make(map[name.Name]rhi.Sampler),
	}
}

// BeginFrame swaps the current resource set into the previous-frame
// slot. The new current set fills during scheduling.
func (m *Manager) BeginFrame() {
	m.previousFrameResources, m.currentFrameResources = m.currentFrameResources, m.previousFrameResources
	clear(m.currentFrameResources)
	m.previousFrameEntries, m.currentFrameEntries = m.currentFrameEntries, m.previousFrameEntries[:0]
}

// EndFrame destroys previous-frame resources that did not transfer
// into the current frame.
func (m *Manager) EndFrame() {
	for resName, res := range m.previousFrameResources {
		if !res.IsValid() {
			continue
		}
		m.tracker.StopTracking(resName)
		m.destroyDeferred(res)
	}
}

func (m *Manager) destroyDeferred(res *Resource) {
	if m.deleter == nil {
		res.destroy(m.device)
		return
	}
	device := m.device
	m.deleter.Add(func() { res.destroy(device) })
}

// Resource returns the current-frame resource with the given name, or
// nil.
func (m *Manager) Resource(resource name.Name) *Resource {
	return m.currentFrameResources[resource]
}

// BeginResourceScheduling clears staged allocation and usage requests.
func (m *Manager) BeginResourceScheduling() {
	m.allocationRequests = m.allocationRequests[:0]
	m.usageRequests = m.usageRequests[:0]
	m.creationRequests = m.creationRequests[:0]
}

// QueueResourceAllocation declares that the pass is the primary creator
// of the resource. The configurator runs during EndResourceScheduling,
// once the resource record exists.
func (m *Manager) QueueResourceAllocation(pass, resource name.Name, info InfoVariant, configurator SchedulingInfoConfigurator) {
	m.allocationRequests = append(m.allocationRequests, schedulingRequest{configurator, pass, resource})
	m.creationRequests = append(m.creationRequests, creationRequest{info, pass, resource})
}

// QueueResourceUsage declares that the pass uses a resource created by
// some other pass this frame.
func (m *Manager) QueueResourceUsage(pass, resource name.Name, configurator SchedulingInfoConfigurator) {
	m.usageRequests = append(m.usageRequests, schedulingRequest{configurator, pass, resource})
}

// EndResourceScheduling materializes resource records for every primary
// creation request, then applies every allocation and usage
// configurator in order.
func (m *Manager) EndResourceScheduling() error {
	for i := range m.creationRequests {
		req := &m.creationRequests[i]
		if existing, ok := m.currentFrameResources[req.resource]; ok {
			// Same name created twice this frame.
			creator := m.creatorOf(existing.Name(), i)
			return &DuplicateResourceError{Resource: req.resource, Pass: req.pass, Existing: creator}
		}
		res := newResource(req.resource, req.info.viewCount())
		if req.info.Texture != nil {
			res.textureDesc = req.info.Texture
		} else {
			res.bufferDesc = req.info.Buffer
		}
		m.currentFrameResources[req.resource] = res
		m.currentFrameEntries = append(m.currentFrameEntries, req.resource)
	}

	for _, req := range m.allocationRequests {
		res := m.currentFrameResources[req.resource]
		if res == nil {
			return &UnknownResourceError{Pass: req.pass, Resource: req.resource}
		}
		if err := req.configurator(res.SchedulingInfo()); err != nil {
			return err
		}
	}

	for _, req := range m.usageRequests {
		res := m.currentFrameResources[req.resource]
		if res == nil {
			return &UnknownResourceError{Pass: req.pass, Resource: req.resource}
		}
		if err := req.configurator(res.SchedulingInfo()); err != nil {
			return err
		}
	}
	return nil
}

// creatorOf finds the creation request that first claimed the name,
// scanning at most upTo entries.
func (m *Manager) creatorOf(resource name.Name, upTo int) name.Name {
	for i := 0; i < upTo; i++ {
		if m.creationRequests[i].resource == resource {
			return m.creationRequests[i].pass
		}
	}
	return name.Nil
}

// AllocateScheduledResources gives every current-frame resource a GPU
// handle: transferred from the previous frame when the name matches,
// created fresh otherwise.
func (m *Manager) AllocateScheduledResources() error {
	if m.transferPreviousFrameResources() {
		// Identical membership: the memory layout is stable, prior
		// tracking state carries over, nothing to create.
		return nil
	}

	for _, res := range m.currentFrameResources {
		if res.IsValid() {
			continue
		}

		switch {
		case res.textureDesc != nil:
			handle, err := m.device.CreateTexture(res.textureDesc)
			if err != nil {
				return fmt.Errorf("resource: create texture %q: %w", m.names.String(res.Name()), err)
			}
			res.texture = handle
			m.device.SetName(handle, m.names.String(res.Name()))
		case res.bufferDesc != nil:
			handle, err := m.device.CreateBuffer(res.bufferDesc)
			if err != nil {
				return fmt.Errorf("resource: create buffer %q: %w", m.names.String(res.Name()), err)
			}
			res.buffer = handle
			m.device.SetName(handle, m.names.String(res.Name()))
		}
		m.tracker.BeginTracking(res)
	}
	return nil
}

// transferPreviousFrameResources moves handles of resources present in
// both frames forward. Returns true when the two frames declared the
// identical resource set, in which case no allocation is needed.
func (m *Manager) transferPreviousFrameResources() bool {
	sort.Slice(m.currentFrameEntries, func(i, j int) bool {
		return m.currentFrameEntries[i] < m.currentFrameEntries[j]
	})

	// Sorted set intersection by name id.
	var intersection []name.Name
	i, j := 0, 0
	for i < len(m.previousFrameEntries) && j < len(m.currentFrameEntries) {
		switch {
		case m.previousFrameEntries[i] < m.currentFrameEntries[j]:
			i++
		case m.previousFrameEntries[i] > m.currentFrameEntries[j]:
			j++
		default:
			intersection = append(intersection, m.currentFrameEntries[j])
			i++
			j++
		}
	}

	for _, resName := range intersection {
		prev := m.previousFrameResources[resName]
		cur := m.currentFrameResources[resName]
		if prev == nil || cur == nil || !prev.IsValid() {
			continue
		}
		cur.transferFrom(prev)
	}

	return len(m.previousFrameEntries) == len(m.currentFrameEntries) &&
		len(intersection) == len(m.currentFrameEntries)
}

// CreateSampler creates a named sampler owned for the manager's
// lifetime. Creating the same name again is a no-op.
func (m *Manager) CreateSampler(samplerName name.Name, desc *rhi.SamplerDescriptor) error {
	if _, ok := m.samplers[samplerName]; ok {
		return nil
	}
	sampler, err := m.device.CreateSampler(desc)
	if err != nil {
		return fmt.Errorf("resource: create sampler %q: %w", m.names.String(samplerName), err)
	}
	m.device.SetName(sampler, m.names.String(samplerName))
	m.samplers[samplerName] = sampler
	return nil
}

// Sampler returns a named sampler, or nil.
func (m *Manager) Sampler(samplerName name.Name) rhi.Sampler {
	return m.samplers[samplerName]
}

// Shutdown destroys every owned resource and sampler immediately. The
// caller must have idled the GPU first.
func (m *Manager) Shutdown() {
	for resName, res := range m.currentFrameResources {
		m.tracker.StopTracking(resName)
		res.destroy(m.device)
	}
	for resName, res := range m.previousFrameResources {
		m.tracker.StopTracking(resName)
		res.destroy(m.device)
	}
	clear(m.currentFrameResources)
	clear(m.previousFrameResources)
	for _, sampler := range m.samplers {
		m.device.DestroySampler(sampler)
	}
	clear(m.samplers)
}
