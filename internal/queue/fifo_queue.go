package queue

import "github.com/zeebo/errs"

// ErrEmpty is returned by Pop when the queue holds no elements.
var ErrEmpty = errs.Class("queue is empty")

type FIFOQueue[T any] interface {
	PushBack(*T) bool
	Pop() (*T, error)
	Size() int
	IsEmpty() bool
	IsFull() bool
}
