package queue

import "time"

// taskOptions holds per-submission settings for the prioritized queue.
type taskOptions struct {
	level    PriorityLevel
	priority int
	timeout  time.Duration
}

// TaskOption customizes a single submission to a prioritized queue.
type TaskOption func(*taskOptions)

// WithLevel places the task in the lane for l. The default is
// PriorityNormal.
func WithLevel(l PriorityLevel) TaskOption {
	return func(o *taskOptions) {
		o.level = l
	}
}

// WithPriority attaches a numeric priority to the task. It is grouping
// metadata only and never reorders tasks within a level.
func WithPriority(n int) TaskOption {
	return func(o *taskOptions) {
		o.priority = n
	}
}

// WithTimeout bounds the task's execution time. When the deadline elapses
// the task's cancellation scope fires and the Future resolves with
// ErrTaskTimeout.
func WithTimeout(d time.Duration) TaskOption {
	return func(o *taskOptions) {
		o.timeout = d
	}
}
