package queue

import (
	"fmt"
	"sync"
)

// InMemoryQueue implements an in-memory queue backed by a buffered channel.
// Enqueue may be called from any goroutine; ReadAllMessages drains the queue
// in arrival order and is intended for a single consumer.
type InMemoryQueue struct {
	ch   chan interface{}
	lock sync.Mutex
}

// NewInMemoryQueue creates a new queue with the given capacity.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	return &InMemoryQueue{
		ch: make(chan interface{}, capacity),
	}
}

// Enqueue adds an item to the end of the queue.
// It fails instead of blocking when the queue is full.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return fmt.Errorf("queue is full (capacity %d)", cap(q.ch))
	}
}

// ReadAllMessages reads all pending items in the queue.
func (q *InMemoryQueue) ReadAllMessages() ([]interface{}, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	var items []interface{}
	for {
		select {
		case item := <-q.ch:
			items = append(items, item)
		default:
			return items, nil
		}
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	return len(q.ch)
}
