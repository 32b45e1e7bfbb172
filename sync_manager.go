// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"time"

	"github.com/gogpu/framegraph/rhi"
)

// syncManager owns semaphores and fences in per-frame free lists.
// Handles are recycled by ring index: a slot's primitives are reused
// only after its fences retired, so nothing in flight is handed out
// twice.
type syncManager struct {
	device     rhi.Device
	frameCount uint32
	frameIndex uint32

	// semaphores[slot] holds every semaphore ever created for that
	// slot; cursor[slot] is the next unused one this frame.
	semaphores [][]rhi.Semaphore
	cursor     []int

	acquireSemaphores []rhi.Semaphore

	freeFences [][]rhi.Fence
	usedFences [][]rhi.Fence
}

func newSyncManager(device rhi.Device, frameCount uint32) (*syncManager, error) {
	m := &syncManager{
		device:            device,
		frameCount:        frameCount,
		semaphores:        make([][]rhi.Semaphore, frameCount),
		cursor:            make([]int, frameCount),
		acquireSemaphores: make([]rhi.Semaphore, frameCount),
		freeFences:        make([][]rhi.Fence, frameCount),
		usedFences:        make([][]rhi.Fence, frameCount),
	}
	for i := range m.acquireSemaphores {
		sem, err := device.CreateSemaphore()
		if err != nil {
			return nil, err
		}
		device.SetName(sem, "AcquireSemaphore")
		m.acquireSemaphores[i] = sem
	}
	return m, nil
}

// beginFrame rewinds the slot's semaphore cursor. Safe because
// waitFences has retired everything the slot had in flight.
func (m *syncManager) beginFrame(frameIndex uint32) {
	m.frameIndex = frameIndex
	m.cursor[frameIndex] = 0
}

// semaphore returns a recycled or fresh semaphore owned by the current
// slot.
func (m *syncManager) semaphore() (rhi.Semaphore, error) {
	slot := m.frameIndex
	if m.cursor[slot] < len(m.semaphores[slot]) {
		sem := m.semaphores[slot][m.cursor[slot]]
		m.cursor[slot]++
		return sem, nil
	}
	sem, err := m.device.CreateSemaphore()
	if err != nil {
		return nil, err
	}
	m.semaphores[slot] = append(m.semaphores[slot], sem)
	m.cursor[slot]++
	return sem, nil
}

// acquireSemaphore returns the slot's swap-chain acquire semaphore.
func (m *syncManager) acquireSemaphore() rhi.Semaphore {
	return m.acquireSemaphores[m.frameIndex]
}

// fence returns a reset fence and registers it for the next wait.
func (m *syncManager) fence() (rhi.Fence, error) {
	slot := m.frameIndex
	var f rhi.Fence
	if n := len(m.freeFences[slot]); n > 0 {
		f = m.freeFences[slot][n-1]
		m.freeFences[slot] = m.freeFences[slot][:n-1]
	} else {
		var err error
		f, err = m.device.CreateFence()
		if err != nil {
			return nil, err
		}
	}
	m.usedFences[slot] = append(m.usedFences[slot], f)
	return f, nil
}

// waitFences blocks until the slot's in-flight fences retire, then
// recycles them.
func (m *syncManager) waitFences() error {
	slot := m.frameIndex
	if len(m.usedFences[slot]) == 0 {
		return nil
	}
	if err := m.device.WaitForFences(m.usedFences[slot], 10*time.Second); err != nil {
		return err
	}
	if err := m.device.ResetFences(m.usedFences[slot]); err != nil {
		return err
	}
	m.freeFences[slot] = append(m.freeFences[slot], m.usedFences[slot]...)
	m.usedFences[slot] = m.usedFences[slot][:0]
	return nil
}

func (m *syncManager) shutdown() {
	for slot := range m.semaphores {
		for _, sem := range m.semaphores[slot] {
			m.device.DestroySemaphore(sem)
		}
		for _, f := range m.freeFences[slot] {
			m.device.DestroyFence(f)
		}
		for _, f := range m.usedFences[slot] {
			m.device.DestroyFence(f)
		}
	}
	for _, sem := range m.acquireSemaphores {
		m.device.DestroySemaphore(sem)
	}
}
