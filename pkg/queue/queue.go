package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by Enqueue when the buffer has no free slot.
var ErrQueueFull = errors.New("queue is full")

// Queue is a bounded FIFO of items of type T.
type Queue[T any] interface {
	Enqueue(item T) error
	// Dequeue blocks until an item is available or ctx is done.
	Dequeue(ctx context.Context) (T, error)
	Size() int
	ReadAll() []T
	Clear()
}
