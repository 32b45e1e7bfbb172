// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

// QueueIndexSet is a set of queue indices.
type QueueIndexSet map[uint32]struct{}

// Add inserts q into the set.
func (s QueueIndexSet) Add(q uint32) {
	s[q] = struct{}{}
}

// Contains reports whether q is in the set.
func (s QueueIndexSet) Contains(q uint32) bool {
	_, ok := s[q]
	return ok
}

// DependencyLevel is an ordered bucket of nodes sharing the same
// longest-path distance from the roots. Everything in one level may
// execute concurrently; barriers are computed per level.
type DependencyLevel struct {
	levelIndex uint32

	// nodes in insertion (topological) order.
	nodes []uint32

	// nodesPerQueue[q] lists the level's nodes assigned to queue q.
	nodesPerQueue [][]uint32

	// viewsReadByMultipleQueues forces a conservative union layout at
	// this level: one transition must serve all reading queues.
	viewsReadByMultipleQueues ViewNameSet

	// queuesInvolvedInCrossQueueReads lists the queues participating
	// in those multi-queue reads.
	queuesInvolvedInCrossQueueReads QueueIndexSet
}

// LevelIndex returns the level's position in the schedule.
func (l *DependencyLevel) LevelIndex() uint32 { return l.levelIndex }

// Nodes returns the node indices in this level.
func (l *DependencyLevel) Nodes() []uint32 { return l.nodes }

// NodesForQueue returns the level's node indices on the given queue.
func (l *DependencyLevel) NodesForQueue(queue uint32) []uint32 {
	if int(queue) >= len(l.nodesPerQueue) {
		return nil
	}
	return l.nodesPerQueue[queue]
}

// ViewsReadByMultipleQueues returns the views read from more than one
// queue within this level.
func (l *DependencyLevel) ViewsReadByMultipleQueues() ViewNameSet {
	return l.viewsReadByMultipleQueues
}

// QueuesInvolvedInCrossQueueReads returns the queues participating in
// multi-queue reads within this level.
func (l *DependencyLevel) QueuesInvolvedInCrossQueueReads() QueueIndexSet {
	return l.queuesInvolvedInCrossQueueReads
}

func (l *DependencyLevel) addNode(index uint32) {
	l.nodes = append(l.nodes, index)
}
