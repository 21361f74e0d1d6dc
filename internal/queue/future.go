package queue

import "context"

// Future is the completion contract between a producer and the consumer
// loop. Exactly one resolution fires for every admitted task: a value, an
// error rethrown verbatim, or a cancellation. Producers suspend
// cooperatively in Await; resolution happens only on the consumer side (or
// during shutdown for tasks that never started).
type Future[T any] struct {
	done      chan struct{}
	value     T
	err       error
	cancelled bool
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve completes the future with a value. Must be called at most once,
// and never combined with reject or abort.
func (f *Future[T]) resolve(v T) {
	f.value = v
	close(f.done)
}

// reject completes the future with the task's error.
func (f *Future[T]) reject(err error) {
	f.err = err
	close(f.done)
}

// abort completes the future as cancelled.
func (f *Future[T]) abort(err error) {
	f.cancelled = true
	f.err = err
	close(f.done)
}

// Await suspends until the task resolves or ctx is done. On resolution it
// returns the task's value, or rethrows the task's original error. The ctx
// here only bounds the wait; it does not cancel the task itself.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the future resolves, for use in
// select statements.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Cancelled reports whether the task resolved as cancelled. It returns
// false while the task is still pending.
func (f *Future[T]) Cancelled() bool {
	select {
	case <-f.done:
		return f.cancelled
	default:
		return false
	}
}
