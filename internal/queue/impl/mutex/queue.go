package mutex

import (
	"sync"

	"github.com/Philanthropists/bluetooth-manager/internal/queue"
)

type mutexFifoQueue[T any] struct {
	maxSize int

	mu    sync.Mutex
	store []*T
}

// CreateQueue returns a queue holding at most maxsize elements, or any number
// of them when maxsize is not positive.
func CreateQueue[T any](maxsize int) *mutexFifoQueue[T] {
	return &mutexFifoQueue[T]{
		maxSize: maxsize,
	}
}

func (q *mutexFifoQueue[T]) PushBack(e *T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxSize > 0 && len(q.store) == q.maxSize {
		return false
	}

	q.store = append(q.store, e)

	return true
}

func (q *mutexFifoQueue[T]) Pop() (*T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.store) == 0 {
		return nil, queue.ErrEmpty.New("pop")
	}

	top := q.store[0]
	q.store[0] = nil
	q.store = q.store[1:]

	return top, nil
}

func (q *mutexFifoQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.store)
}

func (q *mutexFifoQueue[T]) IsEmpty() bool {
	return q.Size() == 0
}

func (q *mutexFifoQueue[T]) IsFull() bool {
	length := q.Size()
	return q.maxSize > 0 && length == q.maxSize
}
