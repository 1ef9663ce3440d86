package application

import (
	"context"
	"sync"
)

// Task is a cancellable asynchronous load. Its result is published to the
// callback only if the task was not cancelled first.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	result    T
	err       error
	cancelled bool
}

// Go starts fn in its own goroutine. publish may be nil.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error), publish func(T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()

		result, err := fn(ctx)

		t.mu.Lock()
		defer t.mu.Unlock()
		if t.cancelled {
			return
		}
		t.result, t.err = result, err
		if publish != nil {
			publish(result, err)
		}
	}()

	return t
}

// Cancel discards the result. A publish already in progress completes first.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.cancel()
}

func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. A cancelled task yields
// the zero value and context.Canceled.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-t.done:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return zero, context.Canceled
	}
	return t.result, t.err
}
