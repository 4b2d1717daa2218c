package navigation

import (
	"iter"

	"github.com/udisondev/navrunner/internal/model"
)

// defaultQueueCapacity is the initial waypoint capacity.
const defaultQueueCapacity = 64

// Queue is a FIFO of waypoints. Insertion order is traversal order.
// Not safe for concurrent use.
type Queue struct {
	items []model.Vec3
	head  int
}

// NewQueue creates an empty queue with room for capacity waypoints.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &Queue{items: make([]model.Vec3, 0, capacity)}
}

// Enqueue appends waypoints to the back. Duplicates are kept.
func (q *Queue) Enqueue(points ...model.Vec3) {
	q.items = append(q.items, points...)
}

// Peek returns the front waypoint without removing it.
func (q *Queue) Peek() (model.Vec3, bool) {
	if q.head >= len(q.items) {
		return model.Vec3{}, false
	}
	return q.items[q.head], true
}

// Dequeue removes and returns the front waypoint.
func (q *Queue) Dequeue() (model.Vec3, bool) {
	if q.head >= len(q.items) {
		return model.Vec3{}, false
	}
	p := q.items[q.head]
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head > cap(q.items)/2:
		// Reclaim the consumed prefix.
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return p, true
}

// Len returns the number of pending waypoints.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}

// Clear drops all pending waypoints.
func (q *Queue) Clear() {
	q.items = q.items[:0]
	q.head = 0
}

// All iterates pending waypoints front to back.
// The queue must not be mutated during iteration.
func (q *Queue) All() iter.Seq[model.Vec3] {
	return func(yield func(model.Vec3) bool) {
		for _, p := range q.items[q.head:] {
			if !yield(p) {
				return
			}
		}
	}
}
