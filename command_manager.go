// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"sync"

	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/types"
)

// commandAllocator owns one command pool per queue. A borrowed
// allocator is used by exactly one recording task at a time, so pools
// never see concurrent allocation.
type commandAllocator struct {
	device rhi.Device
	pools  [types.QueueCount]rhi.CommandPool
}

func (a *commandAllocator) get(queue types.QueueType) (rhi.CommandBuffer, error) {
	if a.pools[queue] == nil {
		pool, err := a.device.CreateCommandPool(queue)
		if err != nil {
			return nil, err
		}
		a.pools[queue] = pool
	}
	return a.pools[queue].Allocate()
}

func (a *commandAllocator) reset() error {
	for _, pool := range a.pools {
		if pool == nil {
			continue
		}
		if err := pool.Reset(); err != nil {
			return err
		}
	}
	return nil
}

func (a *commandAllocator) destroy() {
	for i, pool := range a.pools {
		if pool != nil {
			a.device.DestroyCommandPool(pool)
			a.pools[i] = nil
		}
	}
}

// commandManager hands out command allocators keyed by the frame ring
// index. Command buffers are never shared across frames: a slot's
// pools reset only when the slot is re-entered after its fences
// retired.
type commandManager struct {
	device     rhi.Device
	frameCount uint32
	frameIndex uint32

	mu sync.Mutex

	// allAllocators[slot] registers every allocator created for the
	// slot; free holds the current frame's available ones.
	allAllocators [][]*commandAllocator
	free          []*commandAllocator
}

func newCommandManager(device rhi.Device, frameCount uint32) *commandManager {
	return &commandManager{
		device:        device,
		frameCount:    frameCount,
		allAllocators: make([][]*commandAllocator, frameCount),
	}
}

// beginFrame resets the slot's pools and makes its allocators
// available again.
func (m *commandManager) beginFrame(frameIndex uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frameIndex = frameIndex
	m.free = m.free[:0]
	for _, a := range m.allAllocators[frameIndex] {
		if err := a.reset(); err != nil {
			return err
		}
		m.free = append(m.free, a)
	}
	return nil
}

// borrow hands out an allocator for exclusive use by one recording
// task. Creates a fresh one when the slot has none free, so the
// allocator count converges on the peak parallelism of recording.
func (m *commandManager) borrow() *commandAllocator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.free); n > 0 {
		a := m.free[n-1]
		m.free = m.free[:n-1]
		return a
	}
	a := &commandAllocator{device: m.device}
	m.allAllocators[m.frameIndex] = append(m.allAllocators[m.frameIndex], a)
	return a
}

// giveBack returns a borrowed allocator.
func (m *commandManager) giveBack(a *commandAllocator) {
	m.mu.Lock()
	m.free = append(m.free, a)
	m.mu.Unlock()
}

// getCmd is the single-threaded convenience path: borrow, allocate,
// return.
func (m *commandManager) getCmd(queue types.QueueType) (rhi.CommandBuffer, error) {
	a := m.borrow()
	cmd, err := a.get(queue)
	m.giveBack(a)
	return cmd, err
}

func (m *commandManager) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slot := range m.allAllocators {
		for _, a := range m.allAllocators[slot] {
			a.destroy()
		}
		m.allAllocators[slot] = nil
	}
	m.free = nil
}
