package queue

import "errors"

// Common errors returned by queue operations
var (
	// ErrQueueClosed is returned when a task is submitted to a queue that
	// has already been closed.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrQueueFull is returned by admission when the queue is bounded,
	// configured to reject rather than wait, and at capacity.
	ErrQueueFull = errors.New("queue is full")

	// ErrTaskCancelled resolves a task's Future when the caller's
	// cancellation scope fired before or during execution.
	ErrTaskCancelled = errors.New("task cancelled")

	// ErrTaskTimeout resolves a task's Future when the per-task timeout
	// elapsed before the work completed. It is counted as a failure,
	// distinct from caller-driven cancellation.
	ErrTaskTimeout = errors.New("task timed out")
)
