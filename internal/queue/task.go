package queue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// task is the type-erased command object resident in a lane. The invoke,
// fail and discard closures are built by the generic submit functions and
// close over the real result type and its typed Future, so a single queue
// carries tasks of many result types.
type task struct {
	id         uuid.UUID
	level      PriorityLevel
	priority   int
	timeout    time.Duration
	enqueuedAt time.Time

	// ctx is the task's owned cancellation scope, composed over the
	// caller's context at submission time. cancel releases it.
	ctx    context.Context
	cancel context.CancelFunc

	cancelled atomic.Bool

	// invoke runs the work body with the linked execution context. On
	// success it resolves the future and returns nil; on error it returns
	// the work's error without resolving, leaving classification to the
	// processor loop.
	invoke func(ctx context.Context) error

	// fail resolves the future by rethrowing err to the awaiting caller.
	fail func(err error)

	// discard resolves the future as cancelled without running the work.
	discard func(err error)
}

// markCancelled flags the task and resolves its future as cancelled. The
// work body never runs through this path.
func (t *task) markCancelled(err error) {
	t.cancelled.Store(true)
	t.discard(err)
	t.cancel()
}

// IsCancelled reports whether the task was resolved as cancelled.
func (t *task) IsCancelled() bool {
	return t.cancelled.Load()
}

// newTask builds the erased entry for a typed work function and its
// future. The caller's ctx becomes the root of the task's cancellation
// scope.
func newTask[T any](ctx context.Context, work func(context.Context) (T, error), fut *Future[T], level PriorityLevel, priority int, timeout time.Duration) *task {
	tctx, cancel := context.WithCancel(ctx)
	return &task{
		id:         uuid.New(),
		level:      level,
		priority:   priority,
		timeout:    timeout,
		enqueuedAt: time.Now(),
		ctx:        tctx,
		cancel:     cancel,
		invoke: func(runCtx context.Context) error {
			v, err := work(runCtx)
			if err != nil {
				return err
			}
			fut.resolve(v)
			return nil
		},
		fail:    fut.reject,
		discard: fut.abort,
	}
}
