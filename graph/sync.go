// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

// removeRedundantSyncs minimizes each node's wait list to the smallest
// set of semaphores that still honors every dependency.
//
// Phase 1 collapses waits to at most one node per source queue — the
// one with the largest queue-local exec index, which covers every
// earlier node on that queue — and propagates sync indices inherited
// from the same-queue predecessor.
//
// Phase 2 greedily picks the candidate whose transitive coverage spans
// the most still-unsynced queues, until every queue is covered.
// Candidates whose coverage ends up a subset of an emitted one are
// dropped without a wait.
func (g *Graph) removeRedundantSyncs() {
	queueCount := g.detectedQueueCount

	for i := range g.nodes {
		node := &g.nodes[i]
		node.syncIndices = make([]uint32, queueCount)
		for q := range node.syncIndices {
			node.syncIndices[q] = InvalidSyncIndex
		}
	}

	for levelIdx := range g.levels {
		level := &g.levels[levelIdx]

		for _, idx := range level.nodes {
			g.collapseSyncsPerQueue(&g.nodes[idx], queueCount)
		}

		for _, idx := range level.nodes {
			g.pickOptimalSyncs(&g.nodes[idx])
		}
	}
}

// collapseSyncsPerQueue is phase 1 for one node.
func (g *Graph) collapseSyncsPerQueue(node *Node, queueCount uint32) {
	// closest[q] is the latest dependency on queue q, or -1.
	closest := make([]int32, queueCount)
	for q := range closest {
		closest[q] = -1
	}

	for _, depIdx := range node.nodesToSyncWith {
		dep := &g.nodes[depIdx]
		cur := closest[dep.queueIndex]
		if cur < 0 || dep.queueLocalIndex > g.nodes[cur].queueLocalIndex {
			closest[dep.queueIndex] = int32(depIdx)
		}
	}

	node.nodesToSyncWith = node.nodesToSyncWith[:0]

	for q := uint32(0); q < queueCount; q++ {
		if closest[q] < 0 {
			// No direct dependency on this queue: inherit whatever the
			// same-queue predecessor was already synchronized against.
			if prev := closest[node.queueIndex]; prev >= 0 {
				node.syncIndices[q] = g.nodes[prev].syncIndices[q]
			}
			continue
		}

		dep := &g.nodes[closest[q]]
		if dep.queueIndex != node.queueIndex {
			node.syncIndices[dep.queueIndex] = dep.queueLocalIndex
		}
		node.nodesToSyncWith = append(node.nodesToSyncWith, uint32(closest[q]))
	}

	node.syncIndices[node.queueIndex] = node.queueLocalIndex
}

// pickOptimalSyncs is phase 2 for one node: greedy maximum-coverage
// selection over the collapsed candidate set.
func (g *Graph) pickOptimalSyncs(node *Node) {
	queuesToSync := make(QueueIndexSet)
	for _, depIdx := range node.nodesToSyncWith {
		queuesToSync.Add(g.nodes[depIdx].queueIndex)
	}

	candidates := append([]uint32(nil), node.nodesToSyncWith...)
	var optimal []uint32

	for len(queuesToSync) > 0 {
		bestIdx := -1
		var bestCovered []uint32

		for c, depIdx := range candidates {
			covered := g.coveredQueues(node, &g.nodes[depIdx], queuesToSync)
			if len(covered) > len(bestCovered) {
				bestIdx = c
				bestCovered = covered
			}
		}

		if bestIdx < 0 {
			// Every candidate has zero coverage; cannot happen since a
			// candidate always covers its own queue, but guard against
			// an endless loop regardless.
			break
		}

		dep := &g.nodes[candidates[bestIdx]]
		if dep.queueIndex != node.queueIndex {
			optimal = append(optimal, candidates[bestIdx])
			node.syncIndices[dep.queueIndex] = dep.queueLocalIndex
		}
		for _, q := range bestCovered {
			delete(queuesToSync, q)
		}
		candidates = append(candidates[:bestIdx], candidates[bestIdx+1:]...)
	}

	// Remaining candidates are covered transitively; they emit no wait.
	node.nodesToSyncWith = optimal
}

// coveredQueues returns the queues in queuesToSync whose required sync
// point is already reached through dep's transitive sync indices.
func (g *Graph) coveredQueues(node, dep *Node, queuesToSync QueueIndexSet) []uint32 {
	var covered []uint32
	for q := range queuesToSync {
		desired := node.syncIndices[q]
		if desired == InvalidSyncIndex {
			continue
		}
		if q == node.queueIndex {
			// The node's own entry is its own exec index; the
			// dependency only needs to cover everything before it.
			desired--
		}
		if depSync := dep.syncIndices[q]; depSync != InvalidSyncIndex && depSync >= desired {
			covered = append(covered, q)
		}
	}
	return covered
}
