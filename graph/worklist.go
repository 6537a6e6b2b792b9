package graph

import (
	"cmp"
	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/hashicorp/go-set/v3"
)

// worklist yields nodes in non-decreasing depth order, and every node at most once per pass
type worklist struct {
	queue  *priorityqueue.Queue
	queued *set.Set[NodeID]
}

func newWorklist(s *Store) *worklist {
	byDepth := func(a, b interface{}) int {
		idA, idB := a.(NodeID), b.(NodeID)
		if c := cmp.Compare(s.nodes[idA].depth, s.nodes[idB].depth); c != 0 {
			return c
		}
		return cmp.Compare(idA, idB)
	}
	return &worklist{
		queue:  priorityqueue.NewWith(byDepth),
		queued: set.New[NodeID](16),
	}
}

// push is a no-op for a node already pushed during this pass.
//
// Nodes are only pushed by their children, which have a strictly smaller
// depth, so a node is never pushed again after it was popped.
func (w *worklist) push(id NodeID) {
	if w.queued.Insert(id) {
		w.queue.Enqueue(id)
	}
}

func (w *worklist) pop() (NodeID, bool) {
	v, ok := w.queue.Dequeue()
	if !ok {
		return Invalid, false
	}
	return v.(NodeID), true
}
