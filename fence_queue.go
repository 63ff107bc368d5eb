package upscaler

import (
	"sync/atomic"
)

// fenceNode is a link in fenceQueue. The node at head is a stub whose fence
// has already been consumed.
type fenceNode struct {
	next  atomic.Pointer[fenceNode]
	fence Fence
}

// fenceQueue is an unbounded single-producer single-consumer FIFO.
//
// Only the producer touches tail, only the consumer touches head. The
// producer publishes a node with an atomic store to next, and the consumer
// observes it with an atomic load, so a fence enqueued by the producer is
// fully visible to the consumer once dequeued. No locks are taken.
type fenceQueue struct {
	head *fenceNode // consumer side
	tail *fenceNode // producer side
	len  atomic.Int64
}

func newFenceQueue() *fenceQueue {
	stub := &fenceNode{}
	return &fenceQueue{head: stub, tail: stub}
}

// enqueue appends f. Producer only.
func (q *fenceQueue) enqueue(f Fence) {
	n := &fenceNode{fence: f}
	q.len.Add(1)
	q.tail.next.Store(n)
	q.tail = n
}

// peek returns the oldest fence without removing it. Consumer only.
func (q *fenceQueue) peek() (Fence, bool) {
	next := q.head.next.Load()
	if next == nil {
		return nil, false
	}
	return next.fence, true
}

// pop removes and returns the oldest fence. Consumer only.
func (q *fenceQueue) pop() (Fence, bool) {
	next := q.head.next.Load()
	if next == nil {
		return nil, false
	}
	f := next.fence
	// next becomes the new stub; the producer never reads a node's fence.
	next.fence = nil
	q.head = next
	q.len.Add(-1)
	return f, true
}

// isEmpty reports whether the consumer sees no queued fences. Consumer only.
func (q *fenceQueue) isEmpty() bool {
	return q.head.next.Load() == nil
}

// size is an approximate count, safe to read from any goroutine.
func (q *fenceQueue) size() int {
	return int(q.len.Load())
}
