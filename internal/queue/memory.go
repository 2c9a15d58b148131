package queue

import (
	"context"
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("queue closed")

var (
	_ Publisher = (*MemoryQueue)(nil)
	_ Consumer  = (*MemoryQueue)(nil)
)

// MemoryQueue is a buffered in-process queue. Publish blocks while the
// buffer is full.
type MemoryQueue struct {
	ch     chan []byte
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, messages [][]byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	for _, msg := range messages {
		select {
		case q.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return ErrQueueClosed
		}
	}
	return nil
}

func (q *MemoryQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.done:
				return
			case payload := <-q.ch:
				select {
				case out <- Message{Payload: payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Len reports the number of buffered messages.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
	})
	return nil
}
