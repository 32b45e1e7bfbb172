// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"github.com/gogpu/framegraph/name"
)

// Graph owns the pass nodes and compiles the frame schedule.
//
// Usage per frame: Clear, declare dependencies through the nodes, then
// Build. Accessors are valid until the next Clear.
type Graph struct {
	nodes           []Node
	nodeIndexByName map[name.Name]uint32

	adjacency [][]uint32
	topoOrder []uint32
	levels    []DependencyLevel

	nodesInExecOrder []uint32
	nodesPerQueue    [][]uint32

	queueNodeCounters []uint32
	detectedQueueCount uint32

	// writeRegistry maps each written view to its single writer pass.
	writeRegistry map[ViewName]name.Name
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodeIndexByName:    make(map[name.Name]uint32),
		writeRegistry:      make(map[ViewName]name.Name),
		detectedQueueCount: 1,
	}
}

// AddNode registers a pass. Adding the same pass name twice is a no-op.
// Nodes persist across frames; Clear resets their per-frame state.
func (g *Graph) AddNode(info PassInfo) *Node {
	if idx, ok := g.nodeIndexByName[info.Name]; ok {
		return &g.nodes[idx]
	}

	idx := uint32(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		info:         info,
		queueIndex:   info.Type.QueueIndex(),
		index:        idx,
		readViews:    make(ViewNameSet),
		writtenViews: make(ViewNameSet),
		allViews:     make(ViewNameSet),
	})
	g.nodeIndexByName[info.Name] = idx
	return &g.nodes[idx]
}

// Node returns the node for a pass name, or nil if unknown.
func (g *Graph) Node(pass name.Name) *Node {
	idx, ok := g.nodeIndexByName[pass]
	if !ok {
		return nil
	}
	return &g.nodes[idx]
}

// NodeAt returns the node at an unordered-array index.
func (g *Graph) NodeAt(index uint32) *Node {
	return &g.nodes[index]
}

// NodeCount returns the number of registered passes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// AddReadDependency declares that the pass reads views [0, viewCount)
// of the resource.
func (g *Graph) AddReadDependency(pass, resource name.Name, viewCount uint32) error {
	return g.AddReadDependencyRange(pass, resource, 0, viewCount-1)
}

// AddReadDependencyRange declares that the pass reads views
// [firstView, lastView] of the resource.
func (g *Graph) AddReadDependencyRange(pass, resource name.Name, firstView, lastView uint32) error {
	node := g.Node(pass)
	if node == nil {
		return &UnknownPassError{Pass: pass}
	}
	for i := firstView; i <= lastView; i++ {
		v := EncodeView(resource, i)
		node.readViews.Add(v)
		node.allViews.Add(v)
	}
	return nil
}

// AddWriteDependency declares that the pass writes views [0, viewCount)
// of the resource. Each view admits a single writer per frame.
func (g *Graph) AddWriteDependency(pass, resource name.Name, viewCount uint32) error {
	return g.AddWriteDependencyRange(pass, resource, 0, viewCount-1)
}

// AddWriteDependencyRange declares that the pass writes views
// [firstView, lastView] of the resource.
func (g *Graph) AddWriteDependencyRange(pass, resource name.Name, firstView, lastView uint32) error {
	node := g.Node(pass)
	if node == nil {
		return &UnknownPassError{Pass: pass}
	}
	for i := firstView; i <= lastView; i++ {
		v := EncodeView(resource, i)
		if existing, ok := g.writeRegistry[v]; ok {
			return &DuplicateWriterError{View: v, Pass: pass, Existing: existing}
		}
		g.writeRegistry[v] = pass
		node.writtenViews.Add(v)
		node.allViews.Add(v)
	}
	return nil
}

// Writer returns the pass writing the given view this frame.
func (g *Graph) Writer(v ViewName) (name.Name, bool) {
	pass, ok := g.writeRegistry[v]
	return pass, ok
}

// Clear resets all per-frame state: the write registry, node
// dependencies and the compiled schedule. Registered passes survive.
func (g *Graph) Clear() {
	clear(g.writeRegistry)
	g.adjacency = nil
	g.topoOrder = g.topoOrder[:0]
	g.levels = nil
	g.nodesInExecOrder = g.nodesInExecOrder[:0]
	g.nodesPerQueue = nil
	g.queueNodeCounters = nil
	g.detectedQueueCount = 1
	for i := range g.nodes {
		g.nodes[i].clear()
	}
}

// Build compiles the schedule: adjacency, topological order, dependency
// levels, execution indices and minimized cross-queue syncs. Returns
// *CycleError if the declarations are cyclic.
func (g *Graph) Build() error {
	g.buildAdjacencyLists()
	if err := g.topologicalSort(); err != nil {
		return err
	}
	g.buildDependencyLevels()
	g.finalizeDependencyLevels()
	g.removeRedundantSyncs()
	return nil
}

// DependencyLevels returns the compiled levels in execution order.
func (g *Graph) DependencyLevels() []DependencyLevel {
	return g.levels
}

// NodesInExecOrder returns node indices in global execution order.
func (g *Graph) NodesInExecOrder() []uint32 {
	return g.nodesInExecOrder
}

// NodesForQueue returns node indices assigned to a queue, in queue
// order.
func (g *Graph) NodesForQueue(queue uint32) []uint32 {
	if int(queue) >= len(g.nodesPerQueue) {
		return nil
	}
	return g.nodesPerQueue[queue]
}

// DetectedQueueCount returns the number of queues the schedule uses.
func (g *Graph) DetectedQueueCount() uint32 {
	return g.detectedQueueCount
}

// buildAdjacencyLists links every writer to the readers of its views.
// Quadratic in node count, which is small (tens of passes).
func (g *Graph) buildAdjacencyLists() {
	g.adjacency = make([][]uint32, len(g.nodes))

	for nodeIdx := range g.nodes {
		node := &g.nodes[nodeIdx]
		if !node.HasAnyDependency() {
			continue
		}

		for otherIdx := range g.nodes {
			if nodeIdx == otherIdx {
				continue
			}
			other := &g.nodes[otherIdx]

			for view := range other.readViews {
				if !node.writtenViews.Contains(view) {
					continue
				}

				g.adjacency[nodeIdx] = append(g.adjacency[nodeIdx], uint32(otherIdx))
				if node.queueIndex != other.queueIndex {
					node.syncSignalRequired = true
					other.nodesToSyncWith = append(other.nodesToSyncWith, uint32(nodeIdx))
				}
				break
			}
		}
	}
}

// topologicalSort orders the nodes by depth-first search, failing on
// the first back-edge. The post-order is reversed into topological
// order.
func (g *Graph) topologicalSort() error {
	visited := make([]bool, len(g.nodes))
	onStack := make([]bool, len(g.nodes))

	var visit func(idx uint32) error
	visit = func(idx uint32) error {
		visited[idx] = true
		onStack[idx] = true

		for _, neighbor := range g.adjacency[idx] {
			if visited[neighbor] && onStack[neighbor] {
				return &CycleError{
					From: g.nodes[idx].info.Name,
					To:   g.nodes[neighbor].info.Name,
				}
			}
			if !visited[neighbor] {
				if err := visit(neighbor); err != nil {
					return err
				}
			}
		}

		onStack[idx] = false
		g.topoOrder = append(g.topoOrder, idx)
		return nil
	}

	for idx := range g.nodes {
		if !visited[idx] && g.nodes[idx].HasAnyDependency() {
			if err := visit(uint32(idx)); err != nil {
				return err
			}
		}
	}

	// Reverse the post-order.
	for i, j := 0, len(g.topoOrder)-1; i < j; i, j = i+1, j-1 {
		g.topoOrder[i], g.topoOrder[j] = g.topoOrder[j], g.topoOrder[i]
	}
	return nil
}

// buildDependencyLevels buckets nodes by longest-path distance from
// the roots.
func (g *Graph) buildDependencyLevels() {
	levelCount := uint32(1)
	longest := make([]uint32, len(g.nodes))

	for _, idx := range g.topoOrder {
		for _, succ := range g.adjacency[idx] {
			if longest[succ] < longest[idx]+1 {
				longest[succ] = longest[idx] + 1
				if longest[succ]+1 > levelCount {
					levelCount = longest[succ] + 1
				}
			}
		}
	}

	g.levels = make([]DependencyLevel, levelCount)
	g.detectedQueueCount = 1

	for _, idx := range g.topoOrder {
		node := &g.nodes[idx]
		levelIdx := longest[idx]
		level := &g.levels[levelIdx]
		level.addNode(idx)
		level.levelIndex = levelIdx
		node.levelIndex = levelIdx
		if node.queueIndex+1 > g.detectedQueueCount {
			g.detectedQueueCount = node.queueIndex + 1
		}
	}
}

// finalizeDependencyLevels assigns global and per-queue execution
// indices, adds the implicit same-queue sync edges, and records which
// views each level reads from more than one queue.
func (g *Graph) finalizeDependencyLevels() {
	globalExecIdx := uint32(0)

	g.nodesInExecOrder = make([]uint32, 0, len(g.topoOrder))
	g.nodesPerQueue = make([][]uint32, g.detectedQueueCount)
	g.queueNodeCounters = make([]uint32, g.detectedQueueCount)

	perQueuePrevNode := make([]int32, g.detectedQueueCount)
	for i := range perQueuePrevNode {
		perQueuePrevNode[i] = -1
	}

	for levelIdx := range g.levels {
		level := &g.levels[levelIdx]
		localExecIdx := uint32(0)

		readingQueues := make(map[ViewName]QueueIndexSet)
		level.nodesPerQueue = make([][]uint32, g.detectedQueueCount)
		level.viewsReadByMultipleQueues = make(ViewNameSet)
		level.queuesInvolvedInCrossQueueReads = make(QueueIndexSet)

		for _, idx := range level.nodes {
			node := &g.nodes[idx]

			for view := range node.readViews {
				set, ok := readingQueues[view]
				if !ok {
					set = make(QueueIndexSet)
					readingQueues[view] = set
				}
				set.Add(node.queueIndex)
			}

			node.globalExecIndex = globalExecIdx
			node.levelLocalIndex = localExecIdx
			node.queueLocalIndex = g.queueNodeCounters[node.queueIndex]
			g.queueNodeCounters[node.queueIndex]++

			g.nodesInExecOrder = append(g.nodesInExecOrder, idx)
			level.nodesPerQueue[node.queueIndex] = append(level.nodesPerQueue[node.queueIndex], idx)
			g.nodesPerQueue[node.queueIndex] = append(g.nodesPerQueue[node.queueIndex], idx)

			if prev := perQueuePrevNode[node.queueIndex]; prev >= 0 {
				node.nodesToSyncWith = append(node.nodesToSyncWith, uint32(prev))
			}
			perQueuePrevNode[node.queueIndex] = int32(idx)

			globalExecIdx++
			localExecIdx++
		}

		for view, queues := range readingQueues {
			if len(queues) < 2 {
				continue
			}
			level.viewsReadByMultipleQueues.Add(view)
			for q := range queues {
				level.queuesInvolvedInCrossQueueReads.Add(q)
			}
		}
	}
}
