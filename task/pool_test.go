// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package task

import (
	"sync/atomic"
	"testing"
)

func TestExecuteRunsTask(t *testing.T) {
	pool := NewPool(0)
	defer pool.Shutdown()

	var ran atomic.Bool
	group := NewGroup(PriorityHigh)
	pool.Execute(group, func(ExecutionInfo) { ran.Store(true) })
	pool.Wait(group)

	if !ran.Load() {
		t.Error("task did not run")
	}
	if pool.IsBusy(group) {
		t.Error("group still busy after Wait")
	}
}

func TestDispatchCoversEveryIndex(t *testing.T) {
	pool := NewPool(0)
	defer pool.Shutdown()

	const taskCount = 100
	var hits [taskCount]atomic.Int32

	group := NewGroup(PriorityHigh)
	pool.Dispatch(group, taskCount, 8, func(info ExecutionInfo) {
		hits[info.GlobalTaskIndex].Add(1)
	})
	pool.Wait(group)

	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Errorf("index %d executed %d times, want 1", i, got)
		}
	}
}

func TestDispatchSubgroupBounds(t *testing.T) {
	pool := NewPool(0)
	defer pool.Shutdown()

	var firsts, lasts atomic.Int32
	group := NewGroup(PriorityLow)
	pool.Dispatch(group, 10, 4, func(info ExecutionInfo) {
		if info.FirstInSubgroup {
			firsts.Add(1)
		}
		if info.LastInSubgroup {
			lasts.Add(1)
		}
	})
	pool.Wait(group)

	// 10 tasks in chunks of 4: three chunks.
	if firsts.Load() != 3 || lasts.Load() != 3 {
		t.Errorf("subgroup boundaries = %d firsts, %d lasts, want 3, 3", firsts.Load(), lasts.Load())
	}
}

func TestWaitPropagatesPanic(t *testing.T) {
	pool := NewPool(0)
	defer pool.Shutdown()

	group := NewGroup(PriorityHigh)
	pool.Execute(group, func(ExecutionInfo) {
		panic("shader blew up")
	})

	defer func() {
		if r := recover(); r != "shader blew up" {
			t.Errorf("Wait propagated %v, want the worker panic", r)
		}
	}()
	pool.Wait(group)
	t.Error("Wait returned instead of panicking")
}

func TestIndependentGroups(t *testing.T) {
	pool := NewPool(0)
	defer pool.Shutdown()

	release := make(chan struct{})
	slow := NewGroup(PriorityLow)
	fast := NewGroup(PriorityHigh)

	pool.Execute(slow, func(ExecutionInfo) { <-release })

	var fastRan atomic.Bool
	pool.Execute(fast, func(ExecutionInfo) { fastRan.Store(true) })
	pool.Wait(fast)

	if !fastRan.Load() {
		t.Error("high-priority group blocked behind an unrelated low-priority task")
	}
	close(release)
	pool.Wait(slow)
}

func TestThreadCounts(t *testing.T) {
	pool := NewPool(0)
	defer pool.Shutdown()

	if got := pool.ThreadCount(PriorityStreaming); got != 1 {
		t.Errorf("streaming thread count = %d, want 1", got)
	}
	if pool.ThreadCount(PriorityHigh) < 1 || pool.ThreadCount(PriorityLow) < 1 {
		t.Error("every class needs at least one worker")
	}

	capped := NewPool(2)
	defer capped.Shutdown()
	if got := capped.ThreadCount(PriorityHigh); got > 2 {
		t.Errorf("capped pool runs %d high workers, want <= 2", got)
	}
}
