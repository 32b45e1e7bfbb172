// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package task

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type taskItem struct {
	handler    Handler
	group      *Group
	begin      uint32
	end        uint32
	subgroupID uint32
}

// taskQueue is one worker's deque. Fine-grained: one mutex per queue.
type taskQueue struct {
	mu    sync.Mutex
	tasks []taskItem
}

func (q *taskQueue) pushBack(t taskItem) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

func (q *taskQueue) popFront() (taskItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return taskItem{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// priorityContext owns the workers and queues of one priority class.
type priorityContext struct {
	threadCount int
	queues      []*taskQueue
	nextQueue   atomic.Uint32

	mu   sync.Mutex
	cond *sync.Cond
}

func (c *priorityContext) queueFor(i uint32) *taskQueue {
	return c.queues[int(i)%len(c.queues)]
}

func (c *priorityContext) nextQueueIndex() uint32 {
	return c.nextQueue.Add(1)
}

// hasWork reports whether any queue holds a task. Called under c.mu so
// a submit (push, then signal under c.mu) cannot slip between the
// check and the wait.
func (c *priorityContext) hasWork() bool {
	for _, q := range c.queues {
		q.mu.Lock()
		n := len(q.tasks)
		q.mu.Unlock()
		if n > 0 {
			return true
		}
	}
	return false
}

// executeTasks drains queues starting at the given index, stealing
// from siblings once the own queue is empty.
func (c *priorityContext) executeTasks(startQueue uint32) {
	for i := 0; i < c.threadCount; i++ {
		q := c.queueFor(startQueue + uint32(i))
		for {
			item, ok := q.popFront()
			if !ok {
				break
			}
			runTask(item)
		}
	}
}

func runTask(item taskItem) {
	defer item.group.done()
	defer func() {
		if r := recover(); r != nil {
			item.group.capturePanic(r)
		}
	}()

	info := ExecutionInfo{SubgroupID: item.subgroupID}
	for idx := item.begin; idx < item.end; idx++ {
		info.GlobalTaskIndex = idx
		info.IndexInSubgroup = idx - item.begin
		info.FirstInSubgroup = idx == item.begin
		info.LastInSubgroup = idx == item.end-1
		item.handler(info)
	}
}

// Pool is the process-wide worker pool. Create one per engine; there
// are no package-level pools.
type Pool struct {
	contexts [priorityCount]*priorityContext
	alive    atomic.Bool
	workers  sync.WaitGroup
}

// NewPool starts the worker threads. maxThreads caps every class; pass
// 0 for no cap. Thread counts default to (cores-1, cores-2, 1),
// clamped to at least one.
func NewPool(maxThreads int) *Pool {
	p := &Pool{}
	p.alive.Store(true)

	cores := runtime.NumCPU()
	counts := [priorityCount]int{
		PriorityHigh:      cores - 1,
		PriorityLow:       cores - 2,
		PriorityStreaming: 1,
	}

	for prio := Priority(0); prio < priorityCount; prio++ {
		count := counts[prio]
		if count < 1 {
			count = 1
		}
		if maxThreads > 0 && count > maxThreads {
			count = maxThreads
		}

		ctx := &priorityContext{threadCount: count}
		ctx.cond = sync.NewCond(&ctx.mu)
		ctx.queues = make([]*taskQueue, count)
		for i := range ctx.queues {
			ctx.queues[i] = &taskQueue{}
		}
		p.contexts[prio] = ctx

		for threadID := 0; threadID < count; threadID++ {
			p.workers.Add(1)
			go p.worker(prio, ctx, threadID, cores)
		}
	}
	return p
}

func (p *Pool) worker(prio Priority, ctx *priorityContext, threadID, cores int) {
	defer p.workers.Done()

	// Workers are pinned OS threads so affinity and priority hints
	// stick for the thread's lifetime.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	core := threadID + 1
	if prio == PriorityStreaming {
		core = cores - 1 - threadID
	}
	pinThread(core % cores)

	for p.alive.Load() {
		ctx.executeTasks(uint32(threadID))

		ctx.mu.Lock()
		for !ctx.hasWork() && p.alive.Load() {
			ctx.cond.Wait()
		}
		ctx.mu.Unlock()
	}
}

// Execute submits a single task to the group's priority class.
func (p *Pool) Execute(group *Group, handler Handler) {
	group.add(1)

	ctx := p.contexts[group.priority]
	ctx.queueFor(ctx.nextQueueIndex()).pushBack(taskItem{
		handler: handler,
		group:   group,
		begin:   0,
		end:     1,
	})

	ctx.mu.Lock()
	ctx.cond.Signal()
	ctx.mu.Unlock()
}

// Dispatch splits taskCount invocations into chunks of groupSize and
// submits them to the group's priority class. Chunks run concurrently;
// invocations within a chunk run in order on one worker.
func (p *Pool) Dispatch(group *Group, taskCount, groupSize uint32, handler Handler) {
	if taskCount == 0 || groupSize == 0 {
		return
	}

	chunks := (taskCount + groupSize - 1) / groupSize
	group.add(int64(chunks))

	ctx := p.contexts[group.priority]
	for chunk := uint32(0); chunk < chunks; chunk++ {
		begin := chunk * groupSize
		end := begin + groupSize
		if end > taskCount {
			end = taskCount
		}
		ctx.queueFor(ctx.nextQueueIndex()).pushBack(taskItem{
			handler:    handler,
			group:      group,
			begin:      begin,
			end:        end,
			subgroupID: chunk,
		})
	}

	ctx.mu.Lock()
	ctx.cond.Broadcast()
	ctx.mu.Unlock()
}

// IsBusy reports whether the group has unfinished tasks.
func (p *Pool) IsBusy(group *Group) bool {
	return group.Pending() > 0
}

// Wait blocks until the group drains, participating in execution
// instead of idling. If any task in the group panicked since the last
// Wait, the first captured panic is re-raised here.
func (p *Pool) Wait(group *Group) {
	ctx := p.contexts[group.priority]

	if p.IsBusy(group) {
		ctx.mu.Lock()
		ctx.cond.Broadcast()
		ctx.mu.Unlock()

		ctx.executeTasks(ctx.nextQueueIndex())

		for p.IsBusy(group) {
			// Tasks of this group may be running on workers; nothing
			// left to steal.
			runtime.Gosched()
		}
	}

	if v, ok := group.takePanic(); ok {
		panic(v)
	}
}

// Shutdown stops the workers and waits for them to exit. Queued tasks
// that never ran are dropped; their groups stay busy forever, so drain
// with Wait before shutting down.
func (p *Pool) Shutdown() {
	p.alive.Store(false)
	for _, ctx := range p.contexts {
		ctx.mu.Lock()
		ctx.cond.Broadcast()
		ctx.mu.Unlock()
	}
	p.workers.Wait()
}

// ThreadCount returns the worker count of a priority class.
func (p *Pool) ThreadCount(priority Priority) int {
	return p.contexts[priority].threadCount
}
