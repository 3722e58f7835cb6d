// Package task runs a single cancellable background computation whose
// result is handed to exactly one owner.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Task is a running computation producing a T or an error.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	result T
	err    error
}

// Go starts fn in its own goroutine. The task is cancelled when parent is
// done or Cancel is called, whichever comes first.
func Go[T any](parent context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	t := &Task[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Task panic recovered", slog.Any("panic", r))
				t.err = fmt.Errorf("task panicked: %v", r)
			}
		}()

		t.result, t.err = fn(ctx)
		if t.err == nil && ctx.Err() != nil {
			// Finished after cancellation; the owner no longer wants the result
			var zero T
			t.result, t.err = zero, ctx.Err()
		}
	}()

	return t
}

// Cancel requests cancellation. It is safe to call more than once.
func (t *Task[T]) Cancel() {
	t.once.Do(t.cancel)
}

// Done is closed when the task has finished.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.result, t.err
}
