package pipeline

import (
	"sync"

	"flock-camera-sensor/flockapi"
)

// Queue is the unbounded FIFO between intake and emission.
// One goroutine pushes and one pops. Push never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []flockapi.Message
	closed bool

	readable chan struct{} // empty->non-empty edge
}

func NewQueue() *Queue {
	return &Queue{readable: make(chan struct{}, 1)}
}

// Push appends msg. It reports false once the queue is closed.
func (q *Queue) Push(msg flockapi.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, msg)
	select {
	case q.readable <- struct{}{}:
	default:
	}
	return true
}

// Pop blocks for the next message. After Close it keeps returning queued
// messages and then reports false.
func (q *Queue) Pop() (flockapi.Message, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = flockapi.Message{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, true
		}
		if q.closed {
			q.mu.Unlock()
			return flockapi.Message{}, false
		}
		q.mu.Unlock()
		<-q.readable
	}
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.readable)
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
