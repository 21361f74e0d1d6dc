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

// PriorityQueue is the prioritized variant of SerialQueue: five
// independent FIFO lanes, one per PriorityLevel. At every selection point
// the highest non-empty lane wins; execution is never preempted once
// started. Like SerialQueue it executes exactly one task at a time.
type PriorityQueue struct {
	cfg    Config
	adm    *admission
	stats  *PrioritizedQueueStats
	logger *slog.Logger

	started   atomic.Bool
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewPriorityQueue constructs a stopped prioritized queue.
func NewPriorityQueue(cfg Config, logger *slog.Logger) *PriorityQueue {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	q := &PriorityQueue{
		cfg:     cfg,
		adm:     newAdmission(cfg.Capacity, cfg.RejectWhenFull),
		stats:   newPrioritizedQueueStats(cfg.ProcessTimeWindow, cfg.ProcessTimeWindowAge),
		logger:  logger,
		stopped: make(chan struct{}),
	}
	// Safety net for owners that never call Close. Must never panic.
	runtime.SetFinalizer(q, (*PriorityQueue).finalize)
	return q
}

// Submit admits a work function to q and returns its Future. Options set
// the priority level (default PriorityNormal), a numeric priority used as
// grouping metadata only, and an execution timeout. The work runs with a
// context composed from ctx, the task's owned cancellation scope, and the
// timeout deadline when one is set.
func Submit[T any](ctx context.Context, q *PriorityQueue, work func(context.Context) (T, error), opts ...TaskOption) (*Future[T], error) {
	o := taskOptions{level: PriorityNormal}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.level.IsValid() {
		return nil, fmt.Errorf("invalid priority level %d", int(o.level))
	}

	fut := newFuture[T]()
	t := newTask(ctx, work, fut, o.level, o.priority, o.timeout)
	if err := q.adm.admit(ctx, t); err != nil {
		t.cancel()
		return nil, err
	}
	q.stats.taskQueued(t.level)
	q.logger.Debug("task enqueued",
		"task_id", t.id,
		"priority_level", t.level.String(),
		"priority", t.priority,
		"queue_depth", q.adm.resident())
	return fut, nil
}

// Stats returns the queue's live stats object. Repeated reads observe
// continuous updates; no snapshot is taken.
func (q *PriorityQueue) Stats() *PrioritizedQueueStats {
	return q.stats
}

// Start launches the processor loop. Calling it more than once, or after
// Close, is a no-op.
func (q *PriorityQueue) Start(ctx context.Context) {
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

// Close shuts the queue down with the same semantics as
// (*SerialQueue).Close: stop admissions, drain bounded by DrainTimeout,
// cancel whatever remains, idempotent, and never executes queued work if
// the loop was never started.
func (q *PriorityQueue) Close() error {
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
			q.stats.taskDequeued()
			q.stats.taskCancelled()
		}
		runtime.SetFinalizer(q, nil)
		q.logger.Info("queue closed",
			"processed", q.stats.Processed(),
			"failed", q.stats.Failed(),
			"cancelled", q.stats.Cancelled())
	})
	return nil
}

func (q *PriorityQueue) finalize() {
	defer func() {
		_ = recover()
	}()
	_ = q.Close()
}

func (q *PriorityQueue) run(ctx context.Context) {
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

// process executes one task and resolves its Future exactly once,
// incrementing exactly one outcome counter. Timeout-driven cancellation is
// counted as a failure, distinct from caller-driven cancellation.
func (q *PriorityQueue) process(t *task) {
	defer t.cancel()
	q.stats.taskDequeued()
	log := q.logger.With(
		"task_id", t.id,
		"priority_level", t.level.String())

	if t.ctx.Err() != nil {
		t.markCancelled(ErrTaskCancelled)
		q.stats.taskCancelled()
		log.Debug("task cancelled before dispatch")
		return
	}

	q.stats.setCurrentLevel(t.level)
	defer q.stats.clearCurrentLevel()

	runCtx := t.ctx
	cancelRun := func() {}
	if t.timeout > 0 {
		runCtx, cancelRun = context.WithTimeout(t.ctx, t.timeout)
	}
	defer cancelRun()

	start := time.Now()
	err := runTask(runCtx, t)
	duration := time.Since(start)

	switch {
	case err == nil:
		q.stats.taskProcessed(t.level, duration)
		log.Debug("task completed", "duration", duration)
	case t.ctx.Err() != nil:
		// The caller's scope fired mid-execution.
		t.markCancelled(ErrTaskCancelled)
		q.stats.taskCancelled()
		log.Debug("task cancelled during execution")
	case t.timeout > 0 && runCtx.Err() == context.DeadlineExceeded:
		t.fail(fmt.Errorf("%w after %s", ErrTaskTimeout, t.timeout))
		q.stats.taskFailed()
		log.Warn("task timed out", "timeout", t.timeout)
	default:
		t.fail(err)
		q.stats.taskFailed()
		log.Error("task execution failed", "error", err)
	}
}
