package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// SerialQueue executes submitted work strictly one task at a time, in
// admission order. Producers receive a Future immediately and suspend in
// Await; the single consumer loop resolves it later. Use it to serialize
// and throttle access to a downstream resource such as a rate-limited API.
type SerialQueue struct {
	cfg    Config
	adm    *admission
	stats  *QueueStats
	logger *slog.Logger

	started   atomic.Bool
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewSerialQueue constructs a stopped queue. Tasks may be enqueued before
// Start; they stay resident until the processor loop runs.
func NewSerialQueue(cfg Config, logger *slog.Logger) *SerialQueue {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	q := &SerialQueue{
		cfg:     cfg,
		adm:     newAdmission(cfg.Capacity, cfg.RejectWhenFull),
		stats:   newQueueStats(AggregateStatsName, cfg.ProcessTimeWindow, cfg.ProcessTimeWindowAge),
		logger:  logger,
		stopped: make(chan struct{}),
	}
	// Safety net for owners that never call Close. Must never panic.
	runtime.SetFinalizer(q, (*SerialQueue).finalize)
	return q
}

// Enqueue admits a work function to q and returns its Future. The work
// runs with a context derived from ctx; cancelling ctx before dispatch
// skips the work body entirely. On a bounded queue Enqueue suspends
// cooperatively while the queue is full, unless RejectWhenFull is set.
func Enqueue[T any](ctx context.Context, q *SerialQueue, work func(context.Context) (T, error)) (*Future[T], error) {
	fut := newFuture[T]()
	t := newTask(ctx, work, fut, PriorityNormal, 0, 0)
	if err := q.adm.admit(ctx, t); err != nil {
		t.cancel()
		return nil, err
	}
	q.stats.taskQueued()
	q.logger.Debug("task enqueued",
		"task_id", t.id,
		"queue_depth", q.adm.resident())
	return fut, nil
}

// Stats returns the queue's live stats object. Repeated reads observe
// continuous updates; no snapshot is taken.
func (q *SerialQueue) Stats() *QueueStats {
	return q.stats
}

// Start launches the processor loop. Calling it more than once, or after
// Close, is a no-op.
func (q *SerialQueue) Start(ctx context.Context) {
	select {
	case <-q.adm.closing:
		return
	default:
	}
	if !q.started.CompareAndSwap(false, true) {
		return
	}
	go q.run(ctx)
}

// Close shuts the queue down: no further admissions are accepted, and
// Close waits (bounded by DrainTimeout) for in-flight and already-admitted
// tasks to finish. Whatever remains afterwards is resolved as cancelled so
// no caller Future is left pending. Close is idempotent; if the loop was
// never started, queued work is cancelled, never executed.
func (q *SerialQueue) Close() error {
	q.closeOnce.Do(func() {
		q.adm.close()
		if q.started.Load() {
			select {
			case <-q.stopped:
			case <-time.After(q.cfg.DrainTimeout):
				q.logger.Warn("drain timeout elapsed with tasks outstanding",
					"remaining", q.adm.resident())
			}
		}
		for t := q.adm.pop(); t != nil; t = q.adm.pop() {
			t.markCancelled(ErrTaskCancelled)
			q.stats.taskFailed()
		}
		runtime.SetFinalizer(q, nil)
		q.logger.Info("queue closed",
			"processed", q.stats.Processed(),
			"failed", q.stats.Failed())
	})
	return nil
}

func (q *SerialQueue) finalize() {
	defer func() {
		_ = recover()
	}()
	_ = q.Close()
}

// run is the processor loop: pop, execute, resolve, repeat. On shutdown it
// drains every already-admitted task before returning; if the Start
// context is cancelled it stops without draining.
func (q *SerialQueue) run(ctx context.Context) {
	defer close(q.stopped)
	q.logger.Debug("queue processor started")
	for {
		if t := q.adm.pop(); t != nil {
			q.process(t)
			continue
		}
		select {
		case <-q.adm.wake:
		case <-q.adm.closing:
			for t := q.adm.pop(); t != nil; t = q.adm.pop() {
				q.process(t)
			}
			q.logger.Debug("queue processor drained and stopped")
			return
		case <-ctx.Done():
			q.logger.Debug("queue processor stopped", "reason", ctx.Err())
			return
		}
	}
}

// process executes one task and resolves its Future exactly once. A panic
// or error in the work never affects the loop or other tasks.
func (q *SerialQueue) process(t *task) {
	defer t.cancel()
	log := q.logger.With("task_id", t.id)

	if t.ctx.Err() != nil {
		t.markCancelled(ErrTaskCancelled)
		q.stats.taskFailed()
		log.Debug("task cancelled before dispatch")
		return
	}

	start := time.Now()
	err := runTask(t.ctx, t)
	duration := time.Since(start)

	switch {
	case err == nil:
		q.stats.taskProcessed(duration)
		log.Debug("task completed", "duration", duration)
	case t.ctx.Err() != nil:
		t.markCancelled(ErrTaskCancelled)
		q.stats.taskFailed()
		log.Debug("task cancelled during execution")
	default:
		t.fail(err)
		q.stats.taskFailed()
		log.Error("task execution failed", "error", err)
	}
}

// runTask invokes the work body, converting a panic into an error so one
// task's failure is isolated from the loop.
func runTask(ctx context.Context, t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.invoke(ctx)
}
