package store

import "context"

// Future is the handle returned by every store operation. The operation
// runs on the worker pool; the caller's goroutine never blocks unless it
// chooses to Await. Operations cannot be cancelled once submitted —
// abandoning a future is safe because all writes are idempotent upserts.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// failedFuture returns an already-rejected future.
func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.reject(err)
	return f
}

func (f *Future[T]) resolve(v T) {
	f.val = v
	close(f.done)
}

func (f *Future[T]) reject(err error) {
	f.err = err
	close(f.done)
}

// Await blocks until the operation completes or ctx is done. The
// operation itself keeps running to completion either way.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the operation has completed, for
// callers that want select-based chaining.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
