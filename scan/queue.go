package scan

import (
	"context"
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("queue closed")

// Queue is a FIFO of ports with a join barrier. A single producer calls
// Enqueue for every port and then Close; any number of consumers call
// Dequeue and, once finished with the item, MarkDone.
//
// The queue is drained when it has been closed and every enqueued item has
// been marked done.
type Queue struct {
	items chan uint16

	// send is held shared for every Enqueue and exclusively by Close, so
	// items is never closed under a blocked sender.
	send sync.RWMutex

	mu      sync.Mutex
	pending int
	closed  bool
	drained chan struct{}
}

func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		items:   make(chan uint16, capacity),
		drained: make(chan struct{}),
	}
}

// Enqueue adds port to the queue, blocking while the buffer is full.
func (q *Queue) Enqueue(ctx context.Context, port uint16) error {
	q.send.RLock()
	defer q.send.RUnlock()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending++
	q.mu.Unlock()

	select {
	case q.items <- port:
		return nil
	case <-ctx.Done():
		q.MarkDone()
		return ctx.Err()
	}
}

// Dequeue blocks until a port is available. ok is false once the queue is
// closed and empty, or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (port uint16, ok bool) {
	select {
	case port, ok = <-q.items:
		return port, ok
	case <-ctx.Done():
		return 0, false
	}
}

func (q *Queue) MarkDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == 0 {
		panic("scan: MarkDone called more times than Enqueue")
	}
	q.pending--
	q.settle()
}

// Close signals that no more ports will be enqueued. It waits for Enqueue
// calls already in progress; later ones get ErrQueueClosed.
func (q *Queue) Close() {
	q.send.Lock()
	defer q.send.Unlock()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
	q.settle()
}

// settle closes drained once nothing is outstanding. Callers hold mu.
func (q *Queue) settle() {
	if !q.closed || q.pending != 0 {
		return
	}
	select {
	case <-q.drained:
	default:
		close(q.drained)
	}
}

func (q *Queue) Drained() <-chan struct{} {
	return q.drained
}

// WaitUntilDrained blocks until the queue is drained or ctx is done.
func (q *Queue) WaitUntilDrained(ctx context.Context) error {
	select {
	case <-q.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discard marks every item still buffered as done and returns how many were
// dropped. It is used after cancellation, once consumers have stopped.
func (q *Queue) Discard() int {
	n := 0
	for {
		select {
		case _, ok := <-q.items:
			if !ok {
				return n
			}
			n++
			q.MarkDone()
		default:
			return n
		}
	}
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}
